package commands

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/covreport/internal/pipeline"
	"github.com/Sumatoshi-tech/covreport/pkg/observability"
)

const (
	renderCmdUse   = "render <input>"
	renderCmdShort = "Render stored coverage data without running tests"
	renderCmdLong  = `Render a Go coverage profile, an LCOV tracefile or a JSON summary written
with --format json. The coverage target is applied as in "report".`
)

type renderFlags struct {
	commonFlags

	packageDir string
}

// NewRenderCommand creates the render subcommand.
func NewRenderCommand() *cobra.Command {
	return newRenderCommand(nil)
}

func newRenderCommand(fs afero.Fs) *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:           renderCmdUse,
		Short:         renderCmdShort,
		Long:          renderCmdLong,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], &flags, fs)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.packageDir, flagPackageDir, "",
		"Package root file names are relative to (default: package_dir from config)")

	return cmd
}

func runRender(cmd *cobra.Command, input string, flags *renderFlags, fs afero.Fs) error {
	cfg, err := flags.load(cmd)
	if err != nil {
		return err
	}

	packageDir, err := absPackageDir(cfg, flags.packageDir)
	if err != nil {
		return err
	}

	providers, err := initObservability(cfg, observability.ModeCLI, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer shutdownObservability(providers)

	metrics, err := observability.NewCoverageMetrics(providers.Meter)
	if err != nil {
		return err
	}

	orch := pipeline.New(pipeline.Deps{
		Fs:      fs,
		Metrics: metrics,
		Tracer:  providers.Tracer,
		Logger:  providers.Logger,
	})

	result, err := orch.Render(cmd.Context(), input, pipeline.Options{
		PackageDir:       packageDir,
		Exclude:          cfg.Exclude,
		IncludeGenerated: cfg.IncludeGenerated,
		Workers:          cfg.Workers,
		Target:           cfg.Target,
		MetricsTextfile:  cfg.Metrics.Textfile,
	})
	if err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), cfg, result.Package, result.Verdict)
}
