package coverage

import (
	"fmt"
	"slices"
)

// PackageCoverage aggregates the file summaries of one package. The package
// coverage is computed from the summed line totals, not from the per-file
// percentages.
type PackageCoverage struct {
	PackageDir   string        `json:"package_dir"   yaml:"package_dir"`
	Files        []FileSummary `json:"files"         yaml:"files"`
	LinesHit     int           `json:"lines_hit"     yaml:"lines_hit"`
	LinesTracked int           `json:"lines_tracked" yaml:"lines_tracked"`
	Coverage     Percentage    `json:"coverage"      yaml:"coverage"`
}

// Aggregate rolls files up into a PackageCoverage. The file order is kept.
// An empty file list is valid and yields an undefined coverage.
func Aggregate(packageDir string, files []FileSummary) (PackageCoverage, error) {
	seen := make(map[string]struct{}, len(files))

	var hit, tracked int

	for _, file := range files {
		if file.Filename == "" {
			return PackageCoverage{}, ErrEmptyFilename
		}

		if _, dup := seen[file.Filename]; dup {
			return PackageCoverage{}, fmt.Errorf("%w: %s", ErrDuplicateFile, file.Filename)
		}

		seen[file.Filename] = struct{}{}
		hit += file.LinesHit
		tracked += file.LinesTracked
	}

	return PackageCoverage{
		PackageDir:   packageDir,
		Files:        slices.Clone(files),
		LinesHit:     hit,
		LinesTracked: tracked,
		Coverage:     PercentOf(hit, tracked),
	}, nil
}
