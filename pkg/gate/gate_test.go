package gate_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
	"github.com/Sumatoshi-tech/covreport/pkg/gate"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cov    coverage.Percentage
		target float64
		want   gate.Outcome
	}{
		{"above target", coverage.Percent(82.3), 80, gate.Met},
		{"exactly target", coverage.Percent(80), 80, gate.Met},
		{"below target", coverage.Percent(79.99), 80, gate.NotMet},
		{"undefined with zero target", coverage.Percentage{}, 0, gate.NotMet},
		{"zero coverage with zero target", coverage.Percent(0), 0, gate.Met},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, gate.Evaluate(tt.cov, tt.target))
		})
	}
}

func TestOutcome_ExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, gate.Met.ExitCode())
	assert.Equal(t, 1, gate.NotMet.ExitCode())
}

func TestCheck_Verdict(t *testing.T) {
	t.Parallel()

	pkg, err := coverage.Aggregate("/src", []coverage.FileSummary{
		{Filename: "a.go", LinesHit: 9, LinesTracked: 20},
	})
	require.NoError(t, err)

	verdict := gate.Check(pkg, gate.DefaultTarget)

	assert.Equal(t, gate.NotMet, verdict.Outcome)
	assert.Equal(t, "Coverage target of 80.0% not met (actual: 45.0%)", verdict.Message())
	require.ErrorIs(t, verdict.Err(), gate.ErrTargetNotMet)

	met := gate.Check(pkg, 40)
	assert.NoError(t, met.Err())
	assert.Contains(t, met.Message(), "40.0% met")
}

func TestVerdict_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(gate.Verdict{Target: 80, Coverage: coverage.Percent(90), Outcome: gate.Met})
	require.NoError(t, err)
	assert.JSONEq(t, `{"target":80,"coverage":90,"outcome":"met"}`, string(data))

	var decoded gate.Verdict
	require.NoError(t, json.Unmarshal([]byte(`{"target":50,"coverage":null,"outcome":"not met"}`), &decoded))
	assert.Equal(t, gate.NotMet, decoded.Outcome)
	assert.False(t, decoded.Coverage.Defined())

	require.ErrorIs(t, json.Unmarshal([]byte(`{"outcome":"maybe"}`), &decoded), gate.ErrUnknownOutcome)
}
