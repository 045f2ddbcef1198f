package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/fractal/internal/tui"
	"github.com/r9s-ai/fractal/pkg/presets"
)

func newTUICmd() *cobra.Command {
	var presetsFile string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Explore directives interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := presets.Load(strings.TrimSpace(presetsFile))
			if err != nil {
				return err
			}
			return tui.Run(tui.Options{Presets: reg}, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&presetsFile, "file", "f", "", "presets yaml path (enables ctrl+p preset cycling)")
	return cmd
}
