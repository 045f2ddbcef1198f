package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/fractal/internal/server"
	"github.com/r9s-ai/fractal/pkg/config"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the directive HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			return server.Run(strings.TrimSpace(cfgPath))
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&cfgPath, "config", "c", "fractal.yaml", "config yaml path")
	fs.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	return cmd
}
