// Package report renders package coverage for people (aligned tables with
// severity emphasis) and machines (JSON, YAML).
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
	"github.com/Sumatoshi-tech/covreport/pkg/gate"
	"github.com/Sumatoshi-tech/covreport/pkg/terminal"
)

// Table labels.
const (
	HeaderFile      = "File"
	HeaderLines     = "Hit / Tracked"
	HeaderCoverage  = "Coverage"
	HeaderGaps      = "Uncovered lines"
	TotalLabel      = "Package total"
	UndefinedMarker = "-"
	gapSeparator    = ", "
)

// Column numbers as used by go-pretty (1-based).
const (
	columnLines    = 2
	columnCoverage = 3
)

// Severity thresholds in percent.
const (
	ThresholdCritical = 50.0
	ThresholdWarning  = 70.0
	ThresholdGood     = 90.0
)

// fileColumnShare is the fraction of the terminal width a file name may use.
const fileColumnShare = 3

// SeverityFor maps a coverage value to its emphasis: <= 50 strong negative,
// <= 70 warning, >= 90 positive, anything in between none. An undefined
// coverage is muted.
func SeverityFor(cov coverage.Percentage) terminal.Emphasis {
	value, ok := cov.Value()

	switch {
	case !ok:
		return terminal.EmphasisMuted
	case value <= ThresholdCritical:
		return terminal.EmphasisStrongNegative
	case value <= ThresholdWarning:
		return terminal.EmphasisWarning
	case value >= ThresholdGood:
		return terminal.EmphasisPositive
	default:
		return terminal.EmphasisNone
	}
}

// FormatGaps joins gaps as "1, 4 - 9, 12".
func FormatGaps(gaps []coverage.Gap) string {
	parts := make([]string, len(gaps))
	for i, gap := range gaps {
		parts[i] = gap.String()
	}

	return strings.Join(parts, gapSeparator)
}

// FormatPercent renders a rounded whole percentage or the undefined marker.
func FormatPercent(cov coverage.Percentage) string {
	rounded, ok := cov.Rounded()
	if !ok {
		return UndefinedMarker
	}

	return strconv.Itoa(rounded) + "%"
}

// TableRenderer renders a PackageCoverage as an aligned table.
type TableRenderer struct {
	config terminal.Config
}

// NewTableRenderer creates a renderer for the given terminal.
func NewTableRenderer(config terminal.Config) *TableRenderer {
	return &TableRenderer{config: config}
}

// Render writes one row per file in package order, a separator and the
// package total row.
func (r *TableRenderer) Render(w io.Writer, pkg coverage.PackageCoverage) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Header = text.FormatDefault
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = true
	tbl.Style().Options.SeparateHeader = true
	tbl.Style().Options.SeparateRows = false

	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: columnLines, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: columnCoverage, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})

	tbl.AppendHeader(table.Row{HeaderFile, HeaderLines, HeaderCoverage, HeaderGaps})

	digits := countWidth(pkg.LinesTracked)

	for _, file := range pkg.Files {
		tbl.AppendRow(r.fileRow(file, digits))
	}

	tbl.AppendSeparator()
	tbl.AppendRow(r.totalRow(pkg, digits))

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}

// RenderSummaryLine writes a muted "N files, X of Y lines hit" line.
func (r *TableRenderer) RenderSummaryLine(w io.Writer, pkg coverage.PackageCoverage) error {
	files := "files"
	if len(pkg.Files) == 1 {
		files = "file"
	}

	line := fmt.Sprintf("%s %s, %s of %s lines hit",
		humanize.Comma(int64(len(pkg.Files))), files,
		humanize.Comma(int64(pkg.LinesHit)), humanize.Comma(int64(pkg.LinesTracked)))

	_, err := fmt.Fprintln(w, r.config.Colorize(line, terminal.EmphasisMuted))
	if err != nil {
		return fmt.Errorf("write summary line: %w", err)
	}

	return nil
}

// RenderVerdict writes the gate message, positive when met and strongly
// negative otherwise.
func (r *TableRenderer) RenderVerdict(w io.Writer, verdict gate.Verdict) error {
	emphasis := terminal.EmphasisStrongNegative
	if verdict.Outcome == gate.Met {
		emphasis = terminal.EmphasisPositive
	}

	_, err := fmt.Fprintln(w, r.config.Colorize(verdict.Message(), emphasis))
	if err != nil {
		return fmt.Errorf("write verdict: %w", err)
	}

	return nil
}

func (r *TableRenderer) fileRow(file coverage.FileSummary, digits int) table.Row {
	return table.Row{
		r.fileName(file.Filename),
		formatCounts(file.LinesHit, file.LinesTracked, digits),
		r.coverageCell(file.Coverage),
		FormatGaps(file.Gaps),
	}
}

func (r *TableRenderer) totalRow(pkg coverage.PackageCoverage, digits int) table.Row {
	return table.Row{
		TotalLabel,
		formatCounts(pkg.LinesHit, pkg.LinesTracked, digits),
		r.coverageCell(pkg.Coverage),
	}
}

func (r *TableRenderer) coverageCell(cov coverage.Percentage) string {
	return r.config.Colorize(FormatPercent(cov), SeverityFor(cov))
}

func (r *TableRenderer) fileName(name string) string {
	if r.config.Width <= 0 {
		return name
	}

	return terminal.TruncateLeft(name, r.config.Width/fileColumnShare)
}

// formatCounts renders "hit / tracked" with both numbers padded to digits.
func formatCounts(hit, tracked, digits int) string {
	return fmt.Sprintf("%*d / %*d", digits, hit, digits, tracked)
}

func countWidth(n int) int {
	return len(strconv.Itoa(n))
}
