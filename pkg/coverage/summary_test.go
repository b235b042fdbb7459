package coverage_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
)

func TestSummarize_Examples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		counts      []int
		wantTracked int
		wantHit     int
		wantPercent float64
		wantDefined bool
	}{
		{"mixed", []int{1, 0, 0, untracked, 0, 2}, 5, 2, 40.0, true},
		{"none hit", []int{0, 0, 0}, 3, 0, 0.0, true},
		{"nothing tracked", []int{untracked, untracked}, 0, 0, 0, false},
		{"fully hit", []int{1, untracked, 9}, 2, 2, 100.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			summary, err := coverage.Summarize("a.go", linesOf(tt.counts...))
			require.NoError(t, err)

			assert.Equal(t, tt.wantTracked, summary.LinesTracked)
			assert.Equal(t, tt.wantHit, summary.LinesHit)

			percent, defined := summary.Coverage.Value()
			assert.Equal(t, tt.wantDefined, defined)

			if defined {
				assert.InDelta(t, tt.wantPercent, percent, 1e-9)
			}
		})
	}
}

func TestSummarize_GapsAcrossUntrackedLine(t *testing.T) {
	t.Parallel()

	// Five tracked lines, three of them missed across two gaps.
	summary, err := coverage.Summarize("lib/a.go", linesOf(1, 0, 0, untracked, 0, 2))
	require.NoError(t, err)

	assert.Equal(t, []coverage.Gap{{Start: 2, End: 3}, {Start: 5, End: 5}}, summary.Gaps)
	assert.Equal(t, 5, summary.LinesTracked)
	assert.Equal(t, summary.LinesTracked-summary.MissedLines(), summary.LinesHit)
}

func TestSummarize_RejectsNegativeCount(t *testing.T) {
	t.Parallel()

	_, err := coverage.Summarize("a.go", []coverage.LineHits{coverage.Hits(1), coverage.Hits(-3)})
	require.ErrorIs(t, err, coverage.ErrNegativeHitCount)
	assert.Contains(t, err.Error(), "a.go:2")
}

func TestSummarize_RejectsEmptyFilename(t *testing.T) {
	t.Parallel()

	_, err := coverage.Summarize("", linesOf(1))
	require.ErrorIs(t, err, coverage.ErrEmptyFilename)
}

func TestSummarize_HitPlusGapsEqualsTracked(t *testing.T) {
	t.Parallel()

	fixtures := [][]int{
		{0, 0, untracked, 1, 0},
		{untracked, 0, 5, 5, 0, 0, 0},
		{2, 2, 2},
		{},
	}

	for i, counts := range fixtures {
		summary, err := coverage.Summarize(fmt.Sprintf("f%d.go", i), linesOf(counts...))
		require.NoError(t, err)

		assert.Equal(t, summary.LinesTracked, summary.LinesHit+summary.MissedLines())
		assert.GreaterOrEqual(t, summary.LinesHit, 0)
		assert.LessOrEqual(t, summary.LinesHit, summary.LinesTracked)
		assert.Equal(t, summary.LinesTracked == 0, !summary.Coverage.Defined())
	}
}

func TestAggregate_WeightsByLines(t *testing.T) {
	t.Parallel()

	files := []coverage.FileSummary{
		{Filename: "a.go", LinesHit: 8, LinesTracked: 10, Coverage: coverage.PercentOf(8, 10)},
		{Filename: "b.go", LinesHit: 1, LinesTracked: 10, Coverage: coverage.PercentOf(1, 10)},
	}

	pkg, err := coverage.Aggregate("/src/pkg", files)
	require.NoError(t, err)

	assert.Equal(t, "/src/pkg", pkg.PackageDir)
	assert.Equal(t, 9, pkg.LinesHit)
	assert.Equal(t, 20, pkg.LinesTracked)

	percent, ok := pkg.Coverage.Value()
	require.True(t, ok)
	assert.InDelta(t, 45.0, percent, 1e-9)
	assert.Equal(t, []string{"a.go", "b.go"}, []string{pkg.Files[0].Filename, pkg.Files[1].Filename})
}

func TestAggregate_EmptyPackage(t *testing.T) {
	t.Parallel()

	pkg, err := coverage.Aggregate("/src/pkg", nil)
	require.NoError(t, err)

	assert.Zero(t, pkg.LinesHit)
	assert.Zero(t, pkg.LinesTracked)
	assert.False(t, pkg.Coverage.Defined())
	assert.True(t, math.IsNaN(pkg.Coverage.Float64()))
}

func TestAggregate_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	files := []coverage.FileSummary{{Filename: "a.go"}, {Filename: "a.go"}}

	_, err := coverage.Aggregate("/src/pkg", files)
	require.ErrorIs(t, err, coverage.ErrDuplicateFile)
}

func TestAggregate_DoesNotAliasInput(t *testing.T) {
	t.Parallel()

	files := []coverage.FileSummary{{Filename: "a.go", LinesHit: 1, LinesTracked: 1}}

	pkg, err := coverage.Aggregate("/src/pkg", files)
	require.NoError(t, err)

	files[0].Filename = "changed.go"

	assert.Equal(t, "a.go", pkg.Files[0].Filename)
}

func TestSummarizeAll_KeepsInputOrder(t *testing.T) {
	t.Parallel()

	const fileCount = 64

	inputs := make([]coverage.FileLines, fileCount)
	for i := range inputs {
		inputs[i] = coverage.FileLines{
			Filename: fmt.Sprintf("f%02d.go", i),
			Lines:    linesOf(make([]int, i%7)...),
		}
	}

	pkg, err := coverage.SummarizeAll(context.Background(), "/src/pkg", inputs, 4)
	require.NoError(t, err)
	require.Len(t, pkg.Files, fileCount)

	for i, file := range pkg.Files {
		assert.Equal(t, inputs[i].Filename, file.Filename)
	}

	again, err := coverage.SummarizeAll(context.Background(), "/src/pkg", inputs, 1)
	require.NoError(t, err)
	assert.Equal(t, pkg, again)
}

func TestSummarizeAll_Idempotent(t *testing.T) {
	t.Parallel()

	patterns := [][]int{
		{1, 0, 0, untracked, 0, 2},
		{0, 0, 0},
		{untracked, untracked},
		{3, untracked, 0, 5, 0, 0, 1},
		{},
	}

	inputs := make([]coverage.FileLines, 40)
	for i := range inputs {
		inputs[i] = coverage.FileLines{
			Filename: fmt.Sprintf("dir%d/f%02d.go", i%3, i),
			Lines:    linesOf(patterns[i%len(patterns)]...),
		}
	}

	first, err := coverage.SummarizeAll(context.Background(), "/src/pkg", inputs, 8)
	require.NoError(t, err)

	second, err := coverage.SummarizeAll(context.Background(), "/src/pkg", inputs, 8)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, firstJSON, secondJSON)
}

func TestSummarizeAll_PropagatesInputErrors(t *testing.T) {
	t.Parallel()

	inputs := []coverage.FileLines{
		{Filename: "ok.go", Lines: linesOf(1)},
		{Filename: "bad.go", Lines: []coverage.LineHits{coverage.Hits(-1)}},
	}

	_, err := coverage.SummarizeAll(context.Background(), "/src/pkg", inputs, 0)
	require.ErrorIs(t, err, coverage.ErrNegativeHitCount)
}

func TestSummarizeAll_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := coverage.SummarizeAll(ctx, "/src/pkg", []coverage.FileLines{{Filename: "a.go"}}, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPercentage_Encoding(t *testing.T) {
	t.Parallel()

	type doc struct {
		Coverage coverage.Percentage `json:"coverage" yaml:"coverage"`
	}

	undefinedJSON, err := json.Marshal(doc{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"coverage":null}`, string(undefinedJSON))

	definedJSON, err := json.Marshal(doc{Coverage: coverage.PercentOf(1, 4)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"coverage":25}`, string(definedJSON))

	var decoded doc
	require.NoError(t, json.Unmarshal([]byte(`{"coverage":null}`), &decoded))
	assert.False(t, decoded.Coverage.Defined())

	undefinedYAML, err := yaml.Marshal(doc{})
	require.NoError(t, err)
	assert.Equal(t, "coverage: null\n", string(undefinedYAML))

	require.NoError(t, yaml.Unmarshal([]byte("coverage: 62.5\n"), &decoded))
	value, ok := decoded.Coverage.Value()
	require.True(t, ok)
	assert.InDelta(t, 62.5, value, 1e-9)
}

func TestPercentage_Rounded(t *testing.T) {
	t.Parallel()

	rounded, ok := coverage.PercentOf(2, 3).Rounded()
	require.True(t, ok)
	assert.Equal(t, 67, rounded)

	_, ok = coverage.PercentOf(0, 0).Rounded()
	assert.False(t, ok)
	assert.Equal(t, "n/a", coverage.Percentage{}.String())
}
