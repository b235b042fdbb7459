package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
	"github.com/Sumatoshi-tech/covreport/pkg/gate"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	// ErrUnknownFormat indicates an output format other than text, json or yaml.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrInvalidSummary indicates a stored JSON summary that fails validation.
	ErrInvalidSummary = errors.New("invalid coverage summary")
)

//go:embed summary.schema.json
var summarySchema []byte

// Document is the machine-readable form of one coverage run.
type Document struct {
	Package coverage.PackageCoverage `json:"package"           yaml:"package"`
	Verdict *gate.Verdict            `json:"verdict,omitempty" yaml:"verdict,omitempty"`
}

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML}
}

// Encode writes doc as JSON or YAML.
func Encode(w io.Writer, format string, doc Document) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(doc)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(doc)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// DecodeJSON reads a Document previously written with FormatJSON. The input
// is validated against the summary schema and the package totals are
// recomputed from the files, so a hand-edited total cannot leak through.
func DecodeJSON(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read summary: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(summarySchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidSummary, err)
	}

	if !result.Valid() {
		return Document{}, fmt.Errorf("%w: %s", ErrInvalidSummary, describeSchemaErrors(result.Errors()))
	}

	var doc Document

	dec := json.NewDecoder(bytes.NewReader(data))

	err = dec.Decode(&doc)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidSummary, err)
	}

	for i, file := range doc.Package.Files {
		checkErr := checkFile(file)
		if checkErr != nil {
			return Document{}, checkErr
		}

		doc.Package.Files[i].Coverage = coverage.PercentOf(file.LinesHit, file.LinesTracked)
	}

	pkg, err := coverage.Aggregate(doc.Package.PackageDir, doc.Package.Files)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidSummary, err)
	}

	doc.Package = pkg

	return doc, nil
}

// checkFile enforces the gap invariants: each gap is a forward range and
// gaps are ascending with at least one line between neighbours.
func checkFile(file coverage.FileSummary) error {
	prevEnd := 0

	for _, gap := range file.Gaps {
		if gap.End < gap.Start {
			return fmt.Errorf("%w: %s: gap %s ends before it starts", ErrInvalidSummary, file.Filename, gap)
		}

		if prevEnd > 0 && gap.Start <= prevEnd+1 {
			return fmt.Errorf("%w: %s: gap %s overlaps or touches the previous gap", ErrInvalidSummary, file.Filename, gap)
		}

		prevEnd = gap.End
	}

	if file.LinesHit+file.MissedLines() != file.LinesTracked {
		return fmt.Errorf("%w: %s: hit and gap lines do not add up to tracked lines", ErrInvalidSummary, file.Filename)
	}

	return nil
}

func describeSchemaErrors(errs []gojsonschema.ResultError) string {
	parts := make([]string, len(errs))
	for i, resultErr := range errs {
		parts[i] = resultErr.Field() + ": " + resultErr.Description()
	}

	return strings.Join(parts, "; ")
}
