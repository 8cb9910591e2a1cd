package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate completion script",
	Long: `To load completions:

Bash:
  $ source <(pdf-contacts completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ pdf-contacts completion bash > /etc/bash_completion.d/pdf-contacts
  # macOS:
  $ pdf-contacts completion bash > /usr/local/etc/bash_completion.d/pdf-contacts

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ pdf-contacts completion zsh > "${fpath[1]}/_pdf-contacts"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ pdf-contacts completion fish | source

  # To load completions for each session, execute once:
  $ pdf-contacts completion fish > ~/.config/fish/completions/pdf-contacts.fish

PowerShell:
  PS> pdf-contacts completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> pdf-contacts completion powershell > pdf-contacts.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:                  runCompletion,
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "bash":
		return rootCmd.GenBashCompletion(cmd.OutOrStdout())
	case "zsh":
		return rootCmd.GenZshCompletion(cmd.OutOrStdout())
	case "fish":
		return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
	case "powershell":
		return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
	}
	return nil
}