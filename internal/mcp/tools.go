package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/covreport/internal/pipeline"
	"github.com/Sumatoshi-tech/covreport/pkg/gate"
	"github.com/Sumatoshi-tech/covreport/pkg/report"
)

// ToolNameCoverageSummary is the name of the summary tool.
const ToolNameCoverageSummary = "coverage_summary"

const coverageSummaryDescription = "Summarize line coverage of a Go package from a coverage profile, " +
	"an LCOV tracefile or a stored JSON summary. Returns per-file hit/tracked counts, " +
	"uncovered line ranges, the package total and the verdict against a coverage target."

var (
	// ErrEmptyPath indicates the path parameter is empty.
	ErrEmptyPath = errors.New("path parameter is required and must not be empty")
	// ErrPathNotAbsolute indicates a path or package_dir that is not absolute.
	ErrPathNotAbsolute = errors.New("path must be absolute")
	// ErrTargetOutOfRange indicates a target outside 0..100.
	ErrTargetOutOfRange = errors.New("target must be between 0 and 100")
)

// CoverageSummaryInput is the input schema for the coverage_summary tool.
type CoverageSummaryInput struct {
	Path       string   `json:"path"                  jsonschema:"absolute path of a coverage profile, LCOV tracefile or JSON summary"`
	PackageDir string   `json:"package_dir,omitempty" jsonschema:"absolute package root; defaults to the directory of path"`
	Target     *float64 `json:"target,omitempty"      jsonschema:"coverage target in percent (default 80)"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleCoverageSummary(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input CoverageSummaryInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	packageDir, target, err := validateSummaryInput(input)
	if err != nil {
		return errorResult(err)
	}

	pkg, err := pipeline.Ingest(ctx, s.fs, input.Path, pipeline.IngestOptions{
		PackageDir: packageDir,
		Logger:     s.logger,
	})
	if err != nil {
		return errorResult(err)
	}

	verdict := gate.Check(pkg, target)

	s.logger.DebugContext(ctx, "coverage summary served",
		"path", input.Path, "coverage", pkg.Coverage.String(), "outcome", verdict.Outcome.String())

	return jsonResult(report.Document{Package: pkg, Verdict: &verdict})
}

func validateSummaryInput(input CoverageSummaryInput) (string, float64, error) {
	if input.Path == "" {
		return "", 0, ErrEmptyPath
	}

	if !filepath.IsAbs(input.Path) {
		return "", 0, fmt.Errorf("%w: %q", ErrPathNotAbsolute, input.Path)
	}

	packageDir := input.PackageDir
	if packageDir == "" {
		packageDir = filepath.Dir(input.Path)
	}

	if !filepath.IsAbs(packageDir) {
		return "", 0, fmt.Errorf("%w: %q", ErrPathNotAbsolute, packageDir)
	}

	target := gate.DefaultTarget
	if input.Target != nil {
		target = *input.Target
	}

	if target < 0 || target > 100 {
		return "", 0, fmt.Errorf("%w: %v", ErrTargetOutOfRange, target)
	}

	return packageDir, target, nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}
