package coverage

import (
	"errors"
	"fmt"
)

// Input contract violations.
var (
	// ErrNegativeHitCount indicates a tracked line with a count below zero.
	ErrNegativeHitCount = errors.New("negative hit count")
	// ErrEmptyFilename indicates a file summary without a name.
	ErrEmptyFilename = errors.New("empty file name")
	// ErrDuplicateFile indicates two summaries for the same file in one package.
	ErrDuplicateFile = errors.New("duplicate file in package")
)

// FileSummary holds the line coverage metrics of one source file.
type FileSummary struct {
	Filename     string     `json:"filename"      yaml:"filename"`
	LinesTracked int        `json:"lines_tracked" yaml:"lines_tracked"`
	LinesHit     int        `json:"lines_hit"     yaml:"lines_hit"`
	Coverage     Percentage `json:"coverage"      yaml:"coverage"`
	Gaps         []Gap      `json:"coverage_gaps" yaml:"coverage_gaps"`
}

// Summarize computes the metrics of one file from its per-line hit counts.
// filename is the path relative to the package root.
func Summarize(filename string, lines []LineHits) (FileSummary, error) {
	if filename == "" {
		return FileSummary{}, ErrEmptyFilename
	}

	tracked := 0

	for i, line := range lines {
		count, ok := line.Count()
		if !ok {
			continue
		}

		if count < 0 {
			return FileSummary{}, fmt.Errorf("%w: %s:%d has %d", ErrNegativeHitCount, filename, i+1, count)
		}

		tracked++
	}

	summary := FileSummary{
		Filename:     filename,
		LinesTracked: tracked,
		Gaps:         FindGaps(lines),
	}
	summary.LinesHit = tracked - summary.MissedLines()
	summary.Coverage = PercentOf(summary.LinesHit, tracked)

	return summary, nil
}

// MissedLines returns the total number of lines inside gaps.
func (f FileSummary) MissedLines() int {
	missed := 0
	for _, gap := range f.Gaps {
		missed += gap.Len()
	}

	return missed
}
