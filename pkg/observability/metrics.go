package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
	"github.com/Sumatoshi-tech/covreport/pkg/gate"
)

const (
	metricCoveragePercent = "covreport.coverage.percent"
	metricGateOutcomes    = "covreport.gate.outcomes.total"
	metricRunDuration     = "covreport.run.duration.seconds"

	attrPackageDir = "package_dir"
	attrOutcome    = "outcome"
)

// durationBucketBoundaries covers quick renders up to long test suites.
var durationBucketBoundaries = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// CoverageMetrics holds the OTel instruments recorded once per run.
type CoverageMetrics struct {
	coverage    metric.Float64Gauge
	outcomes    metric.Int64Counter
	runDuration metric.Float64Histogram
}

// NewCoverageMetrics creates the run instruments from the given meter.
func NewCoverageMetrics(mt metric.Meter) (*CoverageMetrics, error) {
	cov, err := mt.Float64Gauge(metricCoveragePercent,
		metric.WithDescription("Package line coverage"),
		metric.WithUnit("%"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCoveragePercent, err)
	}

	outcomes, err := mt.Int64Counter(metricGateOutcomes,
		metric.WithDescription("Threshold gate outcomes"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricGateOutcomes, err)
	}

	duration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	return &CoverageMetrics{coverage: cov, outcomes: outcomes, runDuration: duration}, nil
}

// RecordRun records the package coverage, the gate outcome and the run
// duration. An undefined coverage is not recorded on the gauge.
func (cm *CoverageMetrics) RecordRun(
	ctx context.Context, pkg coverage.PackageCoverage, verdict gate.Verdict, duration time.Duration,
) {
	dirAttr := attribute.String(attrPackageDir, pkg.PackageDir)

	if value, ok := pkg.Coverage.Value(); ok {
		cm.coverage.Record(ctx, value, metric.WithAttributes(dirAttr))
	}

	cm.outcomes.Add(ctx, 1, metric.WithAttributes(dirAttr, attribute.String(attrOutcome, verdict.Outcome.String())))
	cm.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(dirAttr))
}
