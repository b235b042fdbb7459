package observability_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
	"github.com/Sumatoshi-tech/covreport/pkg/gate"
	"github.com/Sumatoshi-tech/covreport/pkg/observability"
)

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	pkg := samplePackage(t)
	path := filepath.Join(t.TempDir(), "covreport.prom")

	require.NoError(t, observability.WriteTextfile(path, pkg, gate.Check(pkg, 30)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `covreport_coverage_percent{package_dir="/src"} 40`)
	assert.Contains(t, text, `covreport_lines_tracked{package_dir="/src"} 5`)
	assert.Contains(t, text, `covreport_lines_hit{package_dir="/src"} 2`)
	assert.Contains(t, text, `covreport_target_percent{package_dir="/src"} 30`)
	assert.Contains(t, text, `covreport_target_met{package_dir="/src"} 1`)
	assert.Contains(t, text, "# TYPE covreport_lines_hit gauge")
}

func TestWriteTextfile_UndefinedCoverageIsNaN(t *testing.T) {
	t.Parallel()

	pkg, err := coverage.Aggregate("/empty", nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "covreport.prom")
	require.NoError(t, observability.WriteTextfile(path, pkg, gate.Check(pkg, 80)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), `covreport_coverage_percent{package_dir="/empty"} NaN`)
	assert.Contains(t, string(data), `covreport_target_met{package_dir="/empty"} 0`)
}

func TestWriteTextfile_EmptyPath(t *testing.T) {
	t.Parallel()

	pkg := samplePackage(t)
	require.ErrorIs(t, observability.WriteTextfile("", pkg, gate.Check(pkg, 80)), observability.ErrEmptyTextfilePath)
}
