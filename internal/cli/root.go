package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pilotproxy-cli",
	Short: "Pilot sub-proxy trust verification for delegated grid identities",
	Long: `Pilot sub-proxy trust verification for delegated grid identities.

pilotproxy-cli decides whether an untrusted payload proxy chain was delegated
by a trusted pilot proxy: the payload leaf must be signed by the pilot's key,
both must be RFC 3820 proxies, and the payload's FQAN attribute tags may be
required to match an operator pattern.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("format", "text", "Output format: text or json")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)
}
