package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cliapi "pdf-contacts/internal/cli"
	"pdf-contacts/internal/services"
)

var importCmd = &cobra.Command{
	Use:   "import <file.pdf>...",
	Short: "Upload PDFs to the server",
	Long: `Upload one or more PDF documents. The server extracts their addresses and
stores the ones it has not seen before. Files are uploaded one at a time;
the command stops at the first failure.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	for _, path := range args {
		spinner := cliapi.NewProgressSpinner(fmt.Sprintf("Uploading %s", path), cfg.NoColor || cfg.Quiet || cfg.Format == "json")
		if !cfg.Quiet && cfg.Format != "json" {
			spinner.Start()
		}
		result, err := client.UploadPDF(cmd.Context(), path)
		spinner.Stop()
		if err != nil {
			err = fmt.Errorf("%s: %w", path, err)
			formatter.PrintError(err)
			return err
		}

		if err := printImport(cfg, formatter, result); err != nil {
			return err
		}
	}

	return nil
}

func printImport(cfg *cliapi.Config, formatter *cliapi.OutputFormatter, result *services.ImportResult) error {
	if !cfg.Quiet && cfg.Format == "table" {
		formatter.PrintSuccess(fmt.Sprintf("Imported %s (%d new addresses)", result.FileName, result.Stored))
	}
	return formatter.PrintImportResult(result)
}
