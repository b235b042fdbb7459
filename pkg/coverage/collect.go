package coverage

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// FileLines is the raw per-line input for one file of a package.
type FileLines struct {
	Filename string
	Lines    []LineHits
}

// SummarizeAll summarizes every file on up to workers goroutines and
// aggregates the summaries in input order, so the result does not depend on
// completion order. workers <= 0 means GOMAXPROCS.
func SummarizeAll(ctx context.Context, packageDir string, inputs []FileLines, workers int) (PackageCoverage, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	summaries := make([]FileSummary, len(inputs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i, input := range inputs {
		group.Go(func() error {
			ctxErr := groupCtx.Err()
			if ctxErr != nil {
				return ctxErr
			}

			summary, err := Summarize(input.Filename, input.Lines)
			if err != nil {
				return err
			}

			summaries[i] = summary

			return nil
		})
	}

	waitErr := group.Wait()
	if waitErr != nil {
		return PackageCoverage{}, fmt.Errorf("summarize files: %w", waitErr)
	}

	return Aggregate(packageDir, summaries)
}
