package observability

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
	"github.com/Sumatoshi-tech/covreport/pkg/gate"
)

const textfileNamespace = "covreport"

// ErrEmptyTextfilePath is returned when no textfile destination is given.
var ErrEmptyTextfilePath = errors.New("textfile path is empty")

// NewCoverageRegistry returns a fresh registry holding the gauges of one
// coverage result, labelled by package dir. An undefined coverage is
// exported as NaN.
func NewCoverageRegistry(pkg coverage.PackageCoverage, verdict gate.Verdict) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{attrPackageDir: pkg.PackageDir}

	met := 0.0
	if verdict.Outcome == gate.Met {
		met = 1
	}

	gauges := []struct {
		name  string
		help  string
		value float64
	}{
		{"coverage_percent", "Package line coverage in percent.", pkg.Coverage.Float64()},
		{"lines_tracked", "Number of trackable lines.", float64(pkg.LinesTracked)},
		{"lines_hit", "Number of trackable lines executed at least once.", float64(pkg.LinesHit)},
		{"target_percent", "Coverage target in percent.", verdict.Target},
		{"target_met", "1 when the coverage target was met, 0 otherwise.", met},
	}

	for _, g := range gauges {
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   textfileNamespace,
			Name:        g.name,
			Help:        g.help,
			ConstLabels: labels,
		})
		gauge.Set(g.value)

		err := registry.Register(gauge)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", g.name, err)
		}
	}

	return registry, nil
}

// WriteTextfile writes the coverage gauges in the Prometheus text format
// for the node_exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string, pkg coverage.PackageCoverage, verdict gate.Verdict) error {
	if path == "" {
		return ErrEmptyTextfilePath
	}

	registry, err := NewCoverageRegistry(pkg, verdict)
	if err != nil {
		return err
	}

	err = prometheus.WriteToTextfile(path, registry)
	if err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
