// Package commands implements the covreport subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/covreport/internal/config"
	"github.com/Sumatoshi-tech/covreport/internal/toolchain"
	"github.com/Sumatoshi-tech/covreport/internal/vcs"
	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
	"github.com/Sumatoshi-tech/covreport/pkg/gate"
	"github.com/Sumatoshi-tech/covreport/pkg/observability"
	"github.com/Sumatoshi-tech/covreport/pkg/report"
	"github.com/Sumatoshi-tech/covreport/pkg/terminal"
	"github.com/Sumatoshi-tech/covreport/pkg/version"
)

const (
	flagConfig          = "config"
	flagTarget          = "target"
	flagFormat          = "format"
	flagNoColor         = "no-color"
	flagLogLevel        = "log-level"
	flagLogJSON         = "log-json"
	flagMetricsTextfile = "metrics-textfile"
	flagExclude         = "exclude"
	flagWorkers         = "workers"
	flagPackageDir      = "package-dir"
	flagHTML            = "html"
	flagOpen            = "open"
	flagXML             = "xml"
)

// toolset holds the external collaborators of a command.
type toolset struct {
	fs       afero.Fs
	tests    toolchain.TestRunner
	html     toolchain.HTMLGenerator
	xml      toolchain.XMLConverter
	opener   toolchain.Opener
	branches vcs.BranchDetector
}

// defaultTools wires the real programs. Test output goes to stderr so that
// stdout carries only the report.
func defaultTools(testOutput io.Writer) toolset {
	executor := toolchain.ProcessExecutor{}

	return toolset{
		fs:       afero.NewOsFs(),
		tests:    toolchain.GoTest{Exec: executor, Output: testOutput},
		html:     toolchain.Genhtml{Exec: executor},
		xml:      toolchain.LcovCobertura{Exec: executor},
		opener:   toolchain.SystemOpener{Exec: executor},
		branches: vcs.GitDetector{},
	}
}

// commonFlags are shared by report and render. Values only override the
// loaded configuration when the flag was given explicitly.
type commonFlags struct {
	configPath      string
	target          float64
	format          string
	noColor         bool
	logLevel        string
	logJSON         bool
	metricsTextfile string
	exclude         []string
	workers         int
}

func (f *commonFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.configPath, flagConfig, "", "Path to config file (default: .covreport.yaml in CWD or $HOME)")
	flags.Float64Var(&f.target, flagTarget, config.DefaultTarget, "Coverage target in percent")
	flags.StringVar(&f.format, flagFormat, config.DefaultOutputFormat, "Output format: text, json, yaml")
	flags.BoolVar(&f.noColor, flagNoColor, false, "Disable colored output")
	flags.StringVar(&f.logLevel, flagLogLevel, config.DefaultLogLevel, "Log level: debug, info, warn, error")
	flags.BoolVar(&f.logJSON, flagLogJSON, false, "Write logs as JSON")
	flags.StringVar(&f.metricsTextfile, flagMetricsTextfile, "", "Write Prometheus gauges to this file")
	flags.StringSliceVar(&f.exclude, flagExclude, nil, "Glob of files to leave out (repeatable)")
	flags.IntVar(&f.workers, flagWorkers, config.DefaultWorkers, "Summary workers (0 = GOMAXPROCS)")
}

// load reads the configuration and applies explicitly set flags on top.
func (f *commonFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed

	if changed(flagTarget) {
		cfg.Target = f.target
	}

	if changed(flagFormat) {
		cfg.Output.Format = f.format
	}

	if changed(flagNoColor) {
		cfg.Output.NoColor = f.noColor
	}

	if changed(flagLogLevel) {
		cfg.Logging.Level = f.logLevel
	}

	if changed(flagLogJSON) {
		cfg.Logging.JSON = f.logJSON
	}

	if changed(flagMetricsTextfile) {
		cfg.Metrics.Textfile = f.metricsTextfile
	}

	if changed(flagExclude) {
		cfg.Exclude = f.exclude
	}

	if changed(flagWorkers) {
		cfg.Workers = f.workers
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// absPackageDir resolves the package dir from an optional positional
// argument, falling back to the configured one.
func absPackageDir(cfg *config.Config, arg string) (string, error) {
	dir := cfg.PackageDir
	if arg != "" {
		dir = arg
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve package dir: %w", err)
	}

	return abs, nil
}

func initObservability(cfg *config.Config, mode observability.AppMode, logOut io.Writer) (observability.Providers, error) {
	level, err := observability.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return observability.Providers{}, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure

	return observability.InitWithWriter(obsCfg, logOut)
}

func shutdownObservability(providers observability.Providers) {
	err := providers.Shutdown(context.Background())
	if err != nil {
		providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

// writeResult prints the table or the machine-readable document and returns
// gate.ErrTargetNotMet when the target was missed.
func writeResult(w io.Writer, cfg *config.Config, pkg coverage.PackageCoverage, verdict gate.Verdict) error {
	if cfg.Output.Format != report.FormatText {
		err := report.Encode(w, cfg.Output.Format, report.Document{Package: pkg, Verdict: &verdict})
		if err != nil {
			return err
		}

		return verdict.Err()
	}

	termCfg := terminal.NewConfig()
	if cfg.Output.NoColor {
		termCfg.NoColor = true
	}

	renderer := report.NewTableRenderer(termCfg)

	err := renderer.Render(w, pkg)
	if err != nil {
		return err
	}

	err = renderer.RenderSummaryLine(w, pkg)
	if err != nil {
		return err
	}

	err = renderer.RenderVerdict(w, verdict)
	if err != nil {
		return err
	}

	return verdict.Err()
}
