package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var errResetNotConfirmed = errors.New("reset deletes all imported data; pass --yes to confirm")

var (
	apiKey  string
	confirm bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all imported data (development servers only)",
	Long: `Drop every imported document, production and address on the server.
The server refuses unless it runs in the development environment. The admin
key is read from --api-key or PDF_CONTACTS_ADMIN_API_KEY.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringVar(&apiKey, "api-key", "", "Admin API key")
	resetCmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm the reset")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	if !confirm {
		err := errResetNotConfirmed
		formatter.PrintError(err)
		return err
	}

	key := apiKey
	if key == "" {
		key = os.Getenv("PDF_CONTACTS_ADMIN_API_KEY")
	}

	if err := client.WithAPIKey(key).ResetDatabase(cmd.Context()); err != nil {
		formatter.PrintError(err)
		return err
	}

	formatter.PrintSuccess("Database reset")
	return nil
}
