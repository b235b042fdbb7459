package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/covreport/internal/config"
	"github.com/Sumatoshi-tech/covreport/internal/pipeline"
	"github.com/Sumatoshi-tech/covreport/pkg/observability"
)

const (
	reportCmdUse   = "report [package-dir]"
	reportCmdShort = "Run the tests and report line coverage against a target"
	reportCmdLong  = `Run the package tests with coverage enabled, print a per-file table of
hit/tracked lines and uncovered line ranges, and exit non-zero when the
package total is below the target.

An LCOV tracefile is written to the results directory. With --html or --xml
the tracefile is also handed to genhtml or lcov_cobertura.`
)

type reportFlags struct {
	commonFlags

	html bool
	open bool
	xml  bool
}

// NewReportCommand creates the report subcommand.
func NewReportCommand() *cobra.Command {
	return newReportCommand(nil)
}

// newReportCommand builds the command; a nil tools argument wires the real
// external programs at run time.
func newReportCommand(tools *toolset) *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:           reportCmdUse,
		Short:         reportCmdShort,
		Long:          reportCmdLong,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, args, &flags, tools)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.html, flagHTML, false, "Generate the HTML report with genhtml")
	cmd.Flags().BoolVar(&flags.open, flagOpen, false, "Open the HTML report when done (implies --html)")
	cmd.Flags().BoolVar(&flags.xml, flagXML, false, "Generate a Cobertura XML report with lcov_cobertura")

	return cmd
}

func runReport(cmd *cobra.Command, args []string, flags *reportFlags, tools *toolset) error {
	cfg, err := flags.load(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed(flagHTML) {
		cfg.HTML.Enabled = flags.html
	}

	if cmd.Flags().Changed(flagOpen) {
		cfg.HTML.Open = flags.open
		cfg.HTML.Enabled = cfg.HTML.Enabled || flags.open
	}

	if cmd.Flags().Changed(flagXML) {
		cfg.XML.Enabled = flags.xml
	}

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}

	packageDir, err := absPackageDir(cfg, arg)
	if err != nil {
		return err
	}

	if tools == nil {
		defaults := defaultTools(cmd.ErrOrStderr())
		tools = &defaults
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
		Fs:       tools.fs,
		Tests:    tools.tests,
		HTML:     tools.html,
		XML:      tools.xml,
		Opener:   tools.opener,
		Branches: tools.branches,
		Metrics:  metrics,
		Tracer:   providers.Tracer,
		Logger:   providers.Logger,
	})

	result, err := orch.Run(cmd.Context(), pipelineOptions(cfg, packageDir))
	if err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), cfg, result.Package, result.Verdict)
}

func pipelineOptions(cfg *config.Config, packageDir string) pipeline.Options {
	return pipeline.Options{
		PackageDir:       packageDir,
		ResultsDir:       cfg.ResultsDir,
		Tracefile:        cfg.Tracefile,
		Profile:          cfg.Profile,
		TestPackages:     cfg.Test.Packages,
		TestArgs:         cfg.Test.Args,
		Exclude:          cfg.Exclude,
		IncludeGenerated: cfg.IncludeGenerated,
		Workers:          cfg.Workers,
		Target:           cfg.Target,
		HTML: pipeline.HTMLOptions{
			Enabled:     cfg.HTML.Enabled,
			Output:      cfg.HTML.Output,
			Open:        cfg.HTML.Open,
			BranchTitle: cfg.HTML.BranchTitle,
		},
		XML:             pipeline.XMLOptions{Enabled: cfg.XML.Enabled, Output: cfg.XML.Output},
		MetricsTextfile: cfg.Metrics.Textfile,
		Cleanup:         cfg.Cleanup,
	}
}
