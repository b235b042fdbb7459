package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
	"github.com/Sumatoshi-tech/covreport/pkg/gate"
	"github.com/Sumatoshi-tech/covreport/pkg/observability"
)

func samplePackage(t *testing.T) coverage.PackageCoverage {
	t.Helper()

	file, err := coverage.Summarize("a.go", []coverage.LineHits{
		coverage.Hits(1), coverage.Hits(0), coverage.Hits(0), coverage.Untracked(), coverage.Hits(4), coverage.Hits(0),
	})
	require.NoError(t, err)

	pkg, err := coverage.Aggregate("/src", []coverage.FileSummary{file})
	require.NoError(t, err)

	return pkg
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func recordOnce(t *testing.T, pkg coverage.PackageCoverage) metricdata.ResourceMetrics {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	cm, err := observability.NewCoverageMetrics(mp.Meter("test"))
	require.NoError(t, err)

	cm.RecordRun(context.Background(), pkg, gate.Check(pkg, gate.DefaultTarget), 1500*time.Millisecond)

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func TestCoverageMetrics_RecordRun(t *testing.T) {
	t.Parallel()

	rm := recordOnce(t, samplePackage(t))

	cov := findMetric(rm, "covreport.coverage.percent")
	require.NotNil(t, cov)

	gauge, ok := cov.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 40.0, gauge.DataPoints[0].Value, 1e-9)

	outcomes := findMetric(rm, "covreport.gate.outcomes.total")
	require.NotNil(t, outcomes)

	sum, ok := outcomes.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)

	outcome, found := sum.DataPoints[0].Attributes.Value("outcome")
	require.True(t, found)
	assert.Equal(t, "not met", outcome.AsString())

	duration := findMetric(rm, "covreport.run.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 1e-9)
}

func TestCoverageMetrics_UndefinedCoverageSkipsGauge(t *testing.T) {
	t.Parallel()

	pkg, err := coverage.Aggregate("/empty", nil)
	require.NoError(t, err)

	rm := recordOnce(t, pkg)

	assert.Nil(t, findMetric(rm, "covreport.coverage.percent"))
	assert.NotNil(t, findMetric(rm, "covreport.gate.outcomes.total"))
}
