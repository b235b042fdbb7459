// Package pipeline runs one coverage report end to end: tests, profile
// conversion, summaries, tracefile and report artifacts, metrics, cleanup.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/covreport/internal/toolchain"
	"github.com/Sumatoshi-tech/covreport/internal/vcs"
	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
	"github.com/Sumatoshi-tech/covreport/pkg/gate"
	"github.com/Sumatoshi-tech/covreport/pkg/goprofile"
	"github.com/Sumatoshi-tech/covreport/pkg/lcov"
	"github.com/Sumatoshi-tech/covreport/pkg/observability"
)

const (
	spanPrefix = "covreport."

	htmlIndex = "index.html"
	dirPerm   = 0o750
)

// ErrRelativePackageDir indicates Options.PackageDir is not absolute.
var ErrRelativePackageDir = errors.New("package dir must be absolute")

// Options describe one run. Relative artifact paths are resolved against
// ResultsDir, which is itself resolved against PackageDir.
type Options struct {
	PackageDir string
	ResultsDir string
	Tracefile  string
	Profile    string

	TestPackages []string
	TestArgs     []string

	Exclude          []string
	IncludeGenerated bool
	Workers          int

	Target float64

	HTML HTMLOptions
	XML  XMLOptions

	MetricsTextfile string
	Cleanup         bool
}

// HTMLOptions controls the HTML report.
type HTMLOptions struct {
	Enabled     bool
	Output      string
	Open        bool
	BranchTitle bool
}

// XMLOptions controls the Cobertura report.
type XMLOptions struct {
	Enabled bool
	Output  string
}

// Artifacts lists the files a run left behind. Empty fields were not produced.
type Artifacts struct {
	Tracefile string `json:"tracefile"`
	HTMLDir   string `json:"html_dir,omitempty"`
	XMLFile   string `json:"xml_file,omitempty"`
	Textfile  string `json:"metrics_textfile,omitempty"`
}

// Result is the outcome of a run.
type Result struct {
	Package   coverage.PackageCoverage
	Verdict   gate.Verdict
	Artifacts Artifacts
}

// Deps are the collaborators of an Orchestrator. Nil optional fields
// disable the corresponding step.
type Deps struct {
	Fs     afero.Fs
	Tests  toolchain.TestRunner
	HTML   toolchain.HTMLGenerator
	XML    toolchain.XMLConverter
	Opener toolchain.Opener
	// Branches feeds the HTML title; nil means no title.
	Branches vcs.BranchDetector
	// Metrics records run instruments; nil disables them.
	Metrics *observability.CoverageMetrics
	Tracer  trace.Tracer
	Logger  *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Orchestrator wires the external tools around the coverage core.
type Orchestrator struct {
	deps Deps
}

// New returns an Orchestrator, filling unset infrastructure with defaults.
func New(deps Deps) *Orchestrator {
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}

	if deps.Tracer == nil {
		deps.Tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Orchestrator{deps: deps}
}

// Run executes the tests and produces the coverage result. A target that is
// not met is reported in Result.Verdict, not as an error. Tool failures are
// fatal, except the viewer and branch detection which only log.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Result, error) {
	if !filepath.IsAbs(opts.PackageDir) {
		return Result{}, fmt.Errorf("%w: %q", ErrRelativePackageDir, opts.PackageDir)
	}

	start := o.deps.Now()

	ctx, span := o.deps.Tracer.Start(ctx, spanPrefix+"run",
		trace.WithAttributes(attribute.String("package_dir", opts.PackageDir)))
	defer span.End()

	result, err := o.run(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return Result{}, err
	}

	o.finish(ctx, span, start, result)

	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, opts Options) (Result, error) {
	resultsDir := resolve(opts.PackageDir, opts.ResultsDir)
	profilePath := resolve(resultsDir, opts.Profile)

	mkErr := o.deps.Fs.MkdirAll(resultsDir, dirPerm)
	if mkErr != nil {
		return Result{}, fmt.Errorf("create results dir: %w", mkErr)
	}

	err := o.stage(ctx, "tests", func(ctx context.Context) error {
		if o.deps.Tests == nil {
			return nil
		}

		return o.deps.Tests.RunTests(ctx, opts.PackageDir, profilePath, opts.TestPackages, opts.TestArgs)
	})
	if err != nil {
		return Result{}, err
	}

	var files []coverage.FileLines

	err = o.stage(ctx, "profile", func(context.Context) error {
		loader, loaderErr := goprofile.NewLoader(o.deps.Fs, goprofile.Options{
			PackageDir:       opts.PackageDir,
			Exclude:          opts.Exclude,
			IncludeGenerated: opts.IncludeGenerated,
		}, o.deps.Logger)
		if loaderErr != nil {
			return fmt.Errorf("profile loader: %w", loaderErr)
		}

		var loadErr error

		files, loadErr = loader.LoadFile(profilePath)

		return loadErr
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{Artifacts: Artifacts{Tracefile: resolve(resultsDir, opts.Tracefile)}}

	err = o.stage(ctx, "summarize", func(ctx context.Context) error {
		var sumErr error

		result.Package, sumErr = coverage.SummarizeAll(ctx, opts.PackageDir, files, opts.Workers)

		return sumErr
	})
	if err != nil {
		return Result{}, err
	}

	err = o.stage(ctx, "tracefile", func(context.Context) error {
		return lcov.WriteFile(o.deps.Fs, result.Artifacts.Tracefile, testName(opts.PackageDir), toRecords(opts.PackageDir, files))
	})
	if err != nil {
		return Result{}, err
	}

	err = o.reports(ctx, opts, resultsDir, &result.Artifacts)
	if err != nil {
		return Result{}, err
	}

	result.Verdict = gate.Check(result.Package, opts.Target)

	err = o.writeTextfile(opts, &result)
	if err != nil {
		return Result{}, err
	}

	if opts.Cleanup {
		o.cleanup(ctx, profilePath)
	}

	o.deps.Logger.InfoContext(ctx, "coverage computed",
		"files", len(result.Package.Files),
		"lines_hit", result.Package.LinesHit,
		"lines_tracked", result.Package.LinesTracked,
		"coverage", result.Package.Coverage.String(),
		"outcome", result.Verdict.Outcome.String())

	return result, nil
}

// reports produces the optional HTML and XML artifacts from the tracefile.
func (o *Orchestrator) reports(ctx context.Context, opts Options, resultsDir string, artifacts *Artifacts) error {
	if opts.HTML.Enabled && o.deps.HTML != nil {
		htmlDir := resolve(resultsDir, opts.HTML.Output)

		err := o.stage(ctx, "html", func(ctx context.Context) error {
			title := ""
			if opts.HTML.BranchTitle {
				title = vcs.Title(ctx, o.deps.Branches, opts.PackageDir, o.deps.Logger)
			}

			return o.deps.HTML.GenerateHTML(ctx, artifacts.Tracefile, htmlDir, title)
		})
		if err != nil {
			return err
		}

		artifacts.HTMLDir = htmlDir

		if opts.HTML.Open && o.deps.Opener != nil {
			openErr := o.deps.Opener.Open(ctx, filepath.Join(htmlDir, htmlIndex))
			if openErr != nil {
				o.deps.Logger.WarnContext(ctx, "could not open html report", "error", openErr)
			}
		}
	}

	if opts.XML.Enabled && o.deps.XML != nil {
		xmlFile := resolve(resultsDir, opts.XML.Output)

		err := o.stage(ctx, "xml", func(ctx context.Context) error {
			return o.deps.XML.ConvertXML(ctx, artifacts.Tracefile, xmlFile, opts.PackageDir)
		})
		if err != nil {
			return err
		}

		artifacts.XMLFile = xmlFile
	}

	return nil
}

// writeTextfile exports the result as Prometheus gauges when configured.
func (o *Orchestrator) writeTextfile(opts Options, result *Result) error {
	if opts.MetricsTextfile == "" {
		return nil
	}

	err := observability.WriteTextfile(opts.MetricsTextfile, result.Package, result.Verdict)
	if err != nil {
		return err
	}

	result.Artifacts.Textfile = opts.MetricsTextfile

	return nil
}

// finish records the run instruments and tags the root span with the outcome.
func (o *Orchestrator) finish(ctx context.Context, span trace.Span, start time.Time, result Result) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordRun(ctx, result.Package, result.Verdict, o.deps.Now().Sub(start))
	}

	span.SetAttributes(attribute.String("outcome", result.Verdict.Outcome.String()))
}

// cleanup removes the raw profile. Failures are logged.
func (o *Orchestrator) cleanup(ctx context.Context, profilePath string) {
	err := o.deps.Fs.Remove(profilePath)
	if err != nil {
		o.deps.Logger.WarnContext(ctx, "could not remove raw profile", "path", profilePath, "error", err)

		return
	}

	o.deps.Logger.DebugContext(ctx, "removed raw profile", "path", profilePath)
}

// stage runs fn inside a child span and logs its duration.
func (o *Orchestrator) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := o.deps.Tracer.Start(ctx, spanPrefix+name)
	defer span.End()

	started := o.deps.Now()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return fmt.Errorf("%s: %w", name, err)
	}

	o.deps.Logger.DebugContext(ctx, "stage done", "stage", name, "elapsed", o.deps.Now().Sub(started))

	return nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(base, path)
}

// testName is the TN value of the tracefile.
func testName(packageDir string) string {
	return filepath.Base(packageDir)
}
