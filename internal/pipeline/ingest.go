package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
	"github.com/Sumatoshi-tech/covreport/pkg/goprofile"
	"github.com/Sumatoshi-tech/covreport/pkg/lcov"
	"github.com/Sumatoshi-tech/covreport/pkg/report"
)

// InputKind classifies a stored coverage file.
type InputKind int

// Input kinds.
const (
	KindTracefile InputKind = iota
	KindProfile
	KindSummary
)

func (k InputKind) String() string {
	switch k {
	case KindProfile:
		return "go profile"
	case KindSummary:
		return "json summary"
	default:
		return "lcov tracefile"
	}
}

const profileModePrefix = "mode:"

// DetectKind guesses the format from the first bytes of a file.
func DetectKind(content []byte) InputKind {
	trimmed := bytes.TrimLeft(content, " \t\r\n")

	switch {
	case bytes.HasPrefix(trimmed, []byte("{")):
		return KindSummary
	case bytes.HasPrefix(trimmed, []byte(profileModePrefix)):
		return KindProfile
	default:
		return KindTracefile
	}
}

// IngestOptions controls how a stored file is turned into package coverage.
type IngestOptions struct {
	// PackageDir is the absolute package root file names are relative to.
	PackageDir       string
	Exclude          []string
	IncludeGenerated bool
	Workers          int
	Logger           *slog.Logger
}

// Ingest reads a Go profile, LCOV tracefile or JSON summary from path and
// returns its package coverage. JSON summaries are schema-validated and
// re-aggregated; a stored verdict is dropped.
func Ingest(ctx context.Context, fs afero.Fs, path string, opts IngestOptions) (coverage.PackageCoverage, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return coverage.PackageCoverage{}, fmt.Errorf("read input: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	kind := DetectKind(content)
	logger.DebugContext(ctx, "ingesting stored coverage", "path", path, "kind", kind.String())

	var files []coverage.FileLines

	switch kind {
	case KindSummary:
		doc, decodeErr := report.DecodeJSON(bytes.NewReader(content))
		if decodeErr != nil {
			return coverage.PackageCoverage{}, decodeErr
		}

		return doc.Package, nil
	case KindProfile:
		loader, loaderErr := goprofile.NewLoader(fs, goprofile.Options{
			PackageDir:       opts.PackageDir,
			Exclude:          opts.Exclude,
			IncludeGenerated: opts.IncludeGenerated,
		}, logger)
		if loaderErr != nil {
			return coverage.PackageCoverage{}, fmt.Errorf("profile loader: %w", loaderErr)
		}

		files, err = loader.Load(bytes.NewReader(content))
		if err != nil {
			return coverage.PackageCoverage{}, fmt.Errorf("load profile: %w", err)
		}
	default:
		records, readErr := lcov.Read(bytes.NewReader(content))
		if readErr != nil {
			return coverage.PackageCoverage{}, fmt.Errorf("load tracefile: %w", readErr)
		}

		files = fromRecords(opts.PackageDir, records)
	}

	return coverage.SummarizeAll(ctx, opts.PackageDir, files, opts.Workers)
}

// fromRecords names each record relative to packageDir when it lies inside it.
func fromRecords(packageDir string, records []lcov.Record) []coverage.FileLines {
	files := make([]coverage.FileLines, len(records))

	for i, rec := range records {
		files[i] = coverage.FileLines{Filename: relativeName(packageDir, rec.Path), Lines: rec.Lines}
	}

	return files
}

// toRecords is the inverse of fromRecords.
func toRecords(packageDir string, files []coverage.FileLines) []lcov.Record {
	records := make([]lcov.Record, len(files))

	for i, file := range files {
		records[i] = lcov.Record{
			Path:  filepath.Join(packageDir, filepath.FromSlash(file.Filename)),
			Lines: file.Lines,
		}
	}

	return records
}

func relativeName(packageDir, path string) string {
	if packageDir == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}

	rel, err := filepath.Rel(packageDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}

	return filepath.ToSlash(rel)
}
