package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/covreport/pkg/gate"
)

// Render builds the result from stored coverage data at input instead of a
// test run. Only the package, filter, worker, target and textfile options
// apply. Metrics and the textfile are produced as in Run.
func (o *Orchestrator) Render(ctx context.Context, input string, opts Options) (Result, error) {
	if !filepath.IsAbs(opts.PackageDir) {
		return Result{}, fmt.Errorf("%w: %q", ErrRelativePackageDir, opts.PackageDir)
	}

	start := o.deps.Now()

	ctx, span := o.deps.Tracer.Start(ctx, spanPrefix+"render",
		trace.WithAttributes(attribute.String("package_dir", opts.PackageDir), attribute.String("input", input)))
	defer span.End()

	result, err := o.render(ctx, input, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return Result{}, err
	}

	o.finish(ctx, span, start, result)

	return result, nil
}

func (o *Orchestrator) render(ctx context.Context, input string, opts Options) (Result, error) {
	var result Result

	err := o.stage(ctx, "ingest", func(ctx context.Context) error {
		var ingestErr error

		result.Package, ingestErr = Ingest(ctx, o.deps.Fs, input, IngestOptions{
			PackageDir:       opts.PackageDir,
			Exclude:          opts.Exclude,
			IncludeGenerated: opts.IncludeGenerated,
			Workers:          opts.Workers,
			Logger:           o.deps.Logger,
		})

		return ingestErr
	})
	if err != nil {
		return Result{}, err
	}

	result.Verdict = gate.Check(result.Package, opts.Target)

	err = o.writeTextfile(opts, &result)
	if err != nil {
		return Result{}, err
	}

	o.deps.Logger.InfoContext(ctx, "coverage rendered",
		"input", input,
		"files", len(result.Package.Files),
		"coverage", result.Package.Coverage.String(),
		"outcome", result.Verdict.Outcome.String())

	return result, nil
}
