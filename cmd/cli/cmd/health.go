package cmd

import (
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show server health",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	formatter := newFormatter(cmd, cfg)

	status, err := newClient(cfg).HealthCheck(cmd.Context())
	if err != nil {
		formatter.PrintError(err)
		return err
	}
	return formatter.PrintHealth(status)
}
