package main

import (
	"github.com/spf13/cobra"

	"github.com/phil-jonesQ/app-ruuner/internal/config"
)

type rootFlags struct {
	configPath string
	port       int
	root       string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "apprunner",
		Short: "Self-hosted dashboard for locally staged apps",
		Long: `apprunner discovers the sub-applications under a projects root, builds
them on demand and tracks launches, ratings and connected dashboards in real
time.

Running apprunner without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file (overrides "+config.PathEnv+")")
	cmd.PersistentFlags().IntVar(&flags.port, "port", 0, "HTTP port (overrides server.port)")
	cmd.PersistentFlags().StringVar(&flags.root, "root", "", "projects root directory (overrides projects.root)")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newMCPCmd(flags))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// load reads the configuration and applies explicitly set flags on top.
func (f *rootFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = f.port
	}
	if cmd.Flags().Changed("root") {
		cfg.Projects.Root = f.root
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
