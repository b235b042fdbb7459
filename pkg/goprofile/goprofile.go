// Package goprofile converts Go coverage profiles (go test -coverprofile)
// into per-line hit counts keyed by paths relative to a package root.
package goprofile

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"github.com/src-d/enry/v2"
	"golang.org/x/mod/modfile"
	"golang.org/x/tools/cover"

	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
)

const goModFile = "go.mod"

// maxLine bounds block line numbers; no Go source file comes near it.
const maxLine = 1 << 22

var errBlockRange = errors.New("invalid block line range")

// legacyPathPrefix marks profile entries of packages outside GOPATH and modules.
const legacyPathPrefix = "_"

var (
	// ErrBadPattern indicates an exclude pattern doublestar cannot parse.
	ErrBadPattern = errors.New("invalid exclude pattern")
	// ErrRelativePackageDir indicates a package dir that is not absolute.
	ErrRelativePackageDir = errors.New("package dir must be absolute")
	// ErrMalformedProfile indicates a block with an impossible line range.
	ErrMalformedProfile = errors.New("malformed coverage profile")
)

// Options controls how profile entries are mapped and filtered.
type Options struct {
	// PackageDir is the absolute package root. Output file names are relative to it.
	PackageDir string
	// Exclude holds doublestar patterns matched against the relative file name.
	Exclude []string
	// IncludeGenerated keeps files marked "Code generated ... DO NOT EDIT.".
	IncludeGenerated bool
}

// Loader reads profiles and source files through an afero filesystem.
type Loader struct {
	fs     afero.Fs
	opts   Options
	logger *slog.Logger

	moduleRoot string
	modulePath string
}

// NewLoader validates opts and locates the enclosing Go module, if any.
func NewLoader(fs afero.Fs, opts Options, logger *slog.Logger) (*Loader, error) {
	if !filepath.IsAbs(opts.PackageDir) {
		return nil, fmt.Errorf("%w: %q", ErrRelativePackageDir, opts.PackageDir)
	}

	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	l := &Loader{fs: fs, opts: opts, logger: logger}
	l.moduleRoot, l.modulePath = findModule(fs, opts.PackageDir)

	return l, nil
}

// LoadFile parses the profile at profilePath.
func (l *Loader) LoadFile(profilePath string) ([]coverage.FileLines, error) {
	file, err := l.fs.Open(profilePath)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	defer file.Close()

	return l.Load(file)
}

// Load parses a profile and returns one entry per kept source file, in the
// order the profile lists them.
func (l *Loader) Load(r io.Reader) ([]coverage.FileLines, error) {
	profiles, err := cover.ParseProfilesFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}

	files := make([]coverage.FileLines, 0, len(profiles))

	for _, profile := range profiles {
		abs, rel := l.resolve(profile.FileName)

		if enry.IsVendor(rel) {
			l.logger.Debug("skipping vendored file", "file", rel)

			continue
		}

		excluded, matchErr := l.excluded(rel)
		if matchErr != nil {
			return nil, matchErr
		}

		if excluded {
			l.logger.Debug("skipping excluded file", "file", rel)

			continue
		}

		content, readErr := afero.ReadFile(l.fs, abs)
		if readErr != nil {
			l.logger.Debug("source not readable, sizing by profile", "file", abs, "error", readErr)

			content = nil
		}

		if !l.opts.IncludeGenerated && isGenerated(abs, content) {
			l.logger.Debug("skipping generated file", "file", rel)

			continue
		}

		lines, hitsErr := lineHits(profile, countLines(content))
		if hitsErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedProfile, profile.FileName, hitsErr)
		}

		files = append(files, coverage.FileLines{Filename: rel, Lines: lines})
	}

	return files, nil
}

// resolve maps a profile file name to an absolute path and a slash-separated
// path relative to the package dir.
func (l *Loader) resolve(name string) (string, string) {
	var abs string

	switch {
	case l.modulePath != "" && strings.HasPrefix(name, l.modulePath+"/"):
		abs = filepath.Join(l.moduleRoot, filepath.FromSlash(strings.TrimPrefix(name, l.modulePath+"/")))
	case strings.HasPrefix(name, legacyPathPrefix+"/"):
		abs = filepath.FromSlash(strings.TrimPrefix(name, legacyPathPrefix))
	case filepath.IsAbs(name):
		abs = name
	default:
		return filepath.Join(l.opts.PackageDir, filepath.FromSlash(name)), path.Clean(name)
	}

	rel, err := filepath.Rel(l.opts.PackageDir, abs)
	if err != nil {
		return abs, filepath.ToSlash(abs)
	}

	return abs, filepath.ToSlash(rel)
}

func (l *Loader) excluded(rel string) (bool, error) {
	for _, pattern := range l.opts.Exclude {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("%w: %q: %w", ErrBadPattern, pattern, err)
		}

		if matched {
			return true, nil
		}
	}

	return false, nil
}

// lineHits spreads block counts over lines. A line covered by several
// blocks takes the highest count; blocks without statements are ignored.
// The result has at least lineCount entries.
func lineHits(profile *cover.Profile, lineCount int) ([]coverage.LineHits, error) {
	size := lineCount

	for _, block := range profile.Blocks {
		if block.NumStmt == 0 {
			continue
		}

		if block.StartLine < 1 || block.EndLine < block.StartLine {
			return nil, fmt.Errorf("%w: lines %d-%d", errBlockRange, block.StartLine, block.EndLine)
		}

		if block.EndLine > maxLine {
			return nil, fmt.Errorf("%w: line %d above %d", errBlockRange, block.EndLine, maxLine)
		}

		size = max(size, block.EndLine)
	}

	lines := make([]coverage.LineHits, size)

	for _, block := range profile.Blocks {
		if block.NumStmt == 0 {
			continue
		}

		for line := block.StartLine; line <= block.EndLine; line++ {
			current, tracked := lines[line-1].Count()
			if !tracked || block.Count > current {
				lines[line-1] = coverage.Hits(block.Count)
			}
		}
	}

	return lines, nil
}

// isGenerated reports whether content carries the standard
// "Code generated ... DO NOT EDIT." header.
func isGenerated(filename string, content []byte) bool {
	if len(content) == 0 {
		return false
	}

	file, err := parser.ParseFile(token.NewFileSet(), filename, content, parser.PackageClauseOnly|parser.ParseComments)
	if err != nil {
		return false
	}

	return ast.IsGenerated(file)
}

// countLines returns the number of physical lines in content.
func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}

	n := strings.Count(string(content), "\n")
	if content[len(content)-1] != '\n' {
		n++
	}

	return n
}

// findModule walks up from dir to the nearest go.mod and returns its
// directory and module path, or empty strings when there is none.
func findModule(fs afero.Fs, dir string) (string, string) {
	for current := dir; ; current = filepath.Dir(current) {
		data, err := afero.ReadFile(fs, filepath.Join(current, goModFile))
		if err == nil {
			return current, modfile.ModulePath(data)
		}

		if filepath.Dir(current) == current {
			return "", ""
		}
	}
}
