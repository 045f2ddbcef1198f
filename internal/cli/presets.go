package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/r9s-ai/fractal/pkg/presets"
)

func newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Inspect preset files",
	}
	cmd.AddCommand(newPresetsValidateCmd(), newPresetsListCmd())
	return cmd
}

func newPresetsValidateCmd() *cobra.Command {
	var file string
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a presets yaml file",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := presets.Validate(strings.TrimSpace(file))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			warn := color.New(color.FgYellow).SprintFunc()
			bad := color.New(color.FgRed).SprintFunc()
			for _, w := range res.Warnings {
				_, _ = fmt.Fprintf(out, "%s %v\n", warn("WARN "), w)
			}
			for _, e := range res.Errors {
				_, _ = fmt.Fprintf(out, "%s %v\n", bad("ERROR"), e)
			}
			if err := res.Err(); err != nil {
				return fmt.Errorf("%s: %d preset(s), %d error(s)", file, res.Presets, len(res.Errors))
			}
			if strict && len(res.Warnings) > 0 {
				return fmt.Errorf("%s: %d warning(s) with --strict", file, len(res.Warnings))
			}
			_, err = fmt.Fprintf(out, "%s: %d preset(s) ok\n", file, res.Presets)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "presets.yaml", "presets yaml path")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}

func newPresetsListCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List presets and their directives",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := presets.Load(strings.TrimSpace(file))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range reg.Names() {
				p, _ := reg.Get(name)
				_, _ = fmt.Fprintf(out, "%s\tinclude=%q\texclude=%q", name, p.Include, p.Exclude)
				if keys := p.ExternalSet().Keys(); len(keys) > 0 {
					_, _ = fmt.Fprintf(out, "\texternals=%s", strings.Join(keys, ","))
				}
				_, _ = fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "presets.yaml", "presets yaml path")
	return cmd
}
