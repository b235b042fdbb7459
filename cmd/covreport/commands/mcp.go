package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/covreport/internal/config"
	"github.com/Sumatoshi-tech/covreport/internal/mcp"
	"github.com/Sumatoshi-tech/covreport/pkg/observability"
	"github.com/Sumatoshi-tech/covreport/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

Tools:
  - coverage_summary: per-file and package line coverage of a Go profile,
    LCOV tracefile or JSON summary, with the verdict against a target`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			// stdout is the protocol stream.
			cfg.Logging.JSON = true
			if debug {
				cfg.Logging.Level = "debug"
			}

			providers, err := initObservability(cfg, observability.ModeMCP, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer shutdownObservability(providers)

			srv := mcp.NewServer(mcp.ServerDeps{
				Version: version.Version,
				Logger:  providers.Logger,
				Tracer:  providers.Tracer,
			})

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&configPath, flagConfig, "", "Path to config file")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}
