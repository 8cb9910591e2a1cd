package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	cliapi "pdf-contacts/internal/cli"
	"pdf-contacts/internal/config"
)

var (
	serverURL string
	format    string
	quiet     bool
	noColor   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pdf-contacts",
	Short: "Extract contact emails from PDF documents",
	Long: `PDF Contacts reconstructs the email addresses buried in the text of PDF
documents such as call sheets and production listings. Documents can be
processed locally with "extract" or uploaded to a server with "import",
which keeps every address it has not seen before.

Settings come from ~/.pdf-contacts.json, PDF_CONTACTS_* environment
variables and the flags below, in increasing order of precedence.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "API server address")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (addresses only)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")
}

// loadConfig merges the config file and environment with any flags the
// user set explicitly
func loadConfig(cmd *cobra.Command) (*cliapi.Config, error) {
	cfg, err := config.LoadCLIConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = serverURL
	}
	if flags.Changed("format") {
		cfg.Format = format
	}
	if flags.Changed("quiet") {
		cfg.Quiet = quiet
	}
	if flags.Changed("no-color") {
		cfg.NoColor = noColor
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newFormatter builds a formatter writing to the command's streams
func newFormatter(cmd *cobra.Command, cfg *cliapi.Config) *cliapi.OutputFormatter {
	formatter := cliapi.NewOutputFormatterWithColor(cfg.Format, cfg.Quiet, cfg.NoColor)
	formatter.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	return formatter
}

func newClient(cfg *cliapi.Config) *cliapi.Client {
	return cliapi.NewClientWithTimeout(cfg.ServerURL, cfg.RequestTimeout)
}

// initializeClient sets up configuration, formatter, and API client
func initializeClient(cmd *cobra.Command) (*cliapi.Config, *cliapi.OutputFormatter, *cliapi.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	formatter := newFormatter(cmd, cfg)
	client := newClient(cfg)

	// Test connectivity
	if _, err := client.HealthCheck(cmd.Context()); err != nil {
		formatter.PrintError(err)
		return nil, nil, nil, err
	}

	return cfg, formatter, client, nil
}
