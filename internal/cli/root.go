package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates and returns the root cobra command
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reason3",
		Short: "Claim and accessibility analysis backed by a language model",
		Long: `reason3 sends text, screenshots or web pages to a language model and
returns a validated JSON report. Without an API key it returns the fallback
report, so every command works offline.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringP("config", "c", "config.yaml", "Path to configuration file")

	cmd.AddCommand(newAnalyzeCommand(), newServeCommand(), newHistoryCommand())
	return cmd
}
