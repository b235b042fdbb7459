// Package lcov reads and writes the line-coverage subset of the LCOV
// tracefile format (TN, SF, DA, LF, LH, end_of_record).
package lcov

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
)

// Record prefixes.
const (
	prefixTestName   = "TN:"
	prefixSourceFile = "SF:"
	prefixLineData   = "DA:"
	prefixLinesFound = "LF:"
	prefixLinesHit   = "LH:"
	endOfRecord      = "end_of_record"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// ErrMalformedRecord indicates a tracefile line that cannot be parsed.
var ErrMalformedRecord = errors.New("malformed lcov record")

// Record is the line coverage of one source file.
type Record struct {
	Path  string
	Lines []coverage.LineHits
}

// Write emits one record per file. Only tracked lines produce DA entries.
func Write(w io.Writer, testName string, records []Record) error {
	bw := bufio.NewWriter(w)

	for _, rec := range records {
		found, hit := 0, 0

		fmt.Fprintf(bw, "%s%s\n%s%s\n", prefixTestName, testName, prefixSourceFile, rec.Path)

		for i, line := range rec.Lines {
			count, ok := line.Count()
			if !ok {
				continue
			}

			found++

			if count > 0 {
				hit++
			}

			fmt.Fprintf(bw, "%s%d,%d\n", prefixLineData, i+1, count)
		}

		fmt.Fprintf(bw, "%s%d\n%s%d\n%s\n", prefixLinesFound, found, prefixLinesHit, hit, endOfRecord)
	}

	err := bw.Flush()
	if err != nil {
		return fmt.Errorf("write tracefile: %w", err)
	}

	return nil
}

// WriteFile writes records to path on fs, creating parent directories.
func WriteFile(fs afero.Fs, path, testName string, records []Record) error {
	mkErr := fs.MkdirAll(filepath.Dir(path), dirPerm)
	if mkErr != nil {
		return fmt.Errorf("create tracefile dir: %w", mkErr)
	}

	file, err := fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("create tracefile: %w", err)
	}

	writeErr := Write(file, testName, records)

	return errors.Join(writeErr, file.Close())
}

// Read parses a tracefile. Lines without a DA entry are untracked; repeated
// DA entries for one line are summed. Records other than SF, DA and
// end_of_record are ignored.
func Read(r io.Reader) ([]Record, error) {
	var (
		records []Record
		current *Record
		counts  map[int]int
		maxLine int
	)

	flush := func() {
		if current == nil {
			return
		}

		current.Lines = make([]coverage.LineHits, maxLine)
		for line, count := range counts {
			current.Lines[line-1] = coverage.Hits(count)
		}

		records = append(records, *current)
		current, counts, maxLine = nil, nil, 0
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(text, prefixSourceFile):
			flush()

			current = &Record{Path: strings.TrimPrefix(text, prefixSourceFile)}
			counts = make(map[int]int)
		case strings.HasPrefix(text, prefixLineData):
			if current == nil {
				return nil, fmt.Errorf("%w: line %d: DA outside of a file record", ErrMalformedRecord, lineNo)
			}

			line, count, err := parseLineData(strings.TrimPrefix(text, prefixLineData))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, lineNo, err)
			}

			counts[line] += count
			maxLine = max(maxLine, line)
		case text == endOfRecord:
			flush()
		}
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		return nil, fmt.Errorf("read tracefile: %w", scanErr)
	}

	flush()

	return records, nil
}

// ReadFile parses the tracefile at path on fs.
func ReadFile(fs afero.Fs, path string) ([]Record, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tracefile: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// maxLineNumber bounds DA line numbers, since Read allocates one entry per
// line up to the highest one.
const maxLineNumber = 1 << 22

var errLineNumber = errors.New("line number out of range")

// parseLineData parses "line,count[,checksum]".
func parseLineData(data string) (int, int, error) {
	fields := strings.Split(data, ",")
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("want line,count, got %q", data)
	}

	line, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("line number: %w", err)
	}

	if line < 1 || line > maxLineNumber {
		return 0, 0, fmt.Errorf("%w: %d", errLineNumber, line)
	}

	count, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("hit count: %w", err)
	}

	return line, count, nil
}
