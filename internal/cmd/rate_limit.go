package cmd

import "github.com/spf13/cobra"

var rateLimitCmd = &cobra.Command{
	Use:   "rate-limit",
	Short: "Inspect and reset persisted GitHub rate limit state",
	Long: `Inspect and reset the locally tracked request budgets for the GitHub
and insight API endpoints. State is persisted in the devpulse store so
backoff windows survive across runs.`,
}

func init() {
	rateLimitCmd.AddCommand(rateLimitListCmd)
	rateLimitCmd.AddCommand(rateLimitResetCmd)
	rootCmd.AddCommand(rateLimitCmd)
}
