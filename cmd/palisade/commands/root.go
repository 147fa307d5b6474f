package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cachePath string
	verbose   bool
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "palisade",
		Short: "Palisade data-access control plane",
		Long: `Palisade coordinates access to distributed data: it resolves a user's
identity and a resource's policy, mints a redemption token scoped to the
resources a request may see, and plans parallel input splits across them.

This binary is a smoke-testing entry point, not a production server: it
wires the Coordinator, Policy Resolver and Split Planner against in-memory
service implementations and in-process fixtures.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "cache gateway sqlite path (empty: in-memory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newDemoCommand())

	return rootCmd
}
