// Package cli implements the fractal-admin command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// Execute runs fractal-admin with os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fractal-admin",
		Short:         "Inspect and validate include/exclude directives",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newParseCmd(),
		newPresetsCmd(),
		newTUICmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}
