package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List imported documents",
	Long: `List the documents the server has imported, newest first, together with
the addresses stored for each. Use --limit to show only the most recent ones.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Show at most this many documents (0 for all)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	if listLimit < 0 {
		err := fmt.Errorf("--limit cannot be negative, got %d", listLimit)
		formatter.PrintError(err)
		return err
	}

	issues, err := client.ListImports(cmd.Context())
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	// The server returns newest first
	if listLimit > 0 && len(issues) > listLimit {
		issues = issues[:listLimit]
	}

	return formatter.PrintImports(issues)
}
