package toolchain

import (
	"context"
	"fmt"
	"io"
	"runtime"
)

// CoverMode is the counter mode requested from the test runner.
const CoverMode = "count"

// TestRunner produces a raw coverage profile for a package tree.
type TestRunner interface {
	RunTests(ctx context.Context, dir, profile string, packages, args []string) error
}

// HTMLGenerator renders a browsable report from a tracefile.
type HTMLGenerator interface {
	GenerateHTML(ctx context.Context, tracefile, outputDir, title string) error
}

// XMLConverter turns a tracefile into a Cobertura XML report.
type XMLConverter interface {
	ConvertXML(ctx context.Context, tracefile, output, baseDir string) error
}

// Opener shows a file in the user's default viewer.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// GoTest runs "go test" with coverage enabled.
type GoTest struct {
	Exec Executor
	// Output receives the test runner's own output.
	Output io.Writer
}

// RunTests writes the profile for packages to profile, running in dir.
func (g GoTest) RunTests(ctx context.Context, dir, profile string, packages, args []string) error {
	cmdArgs := make([]string, 0, len(args)+len(packages)+3)
	cmdArgs = append(cmdArgs, "test", "-covermode="+CoverMode, "-coverprofile="+profile)
	cmdArgs = append(cmdArgs, args...)
	cmdArgs = append(cmdArgs, packages...)

	err := g.Exec.Run(ctx, Command{Name: "go", Args: cmdArgs, Dir: dir, Stdout: g.Output})
	if err != nil {
		return fmt.Errorf("run tests: %w", err)
	}

	return nil
}

// Genhtml drives the LCOV genhtml program.
type Genhtml struct {
	Exec Executor
}

// GenerateHTML writes the report into outputDir. An empty title is omitted.
func (g Genhtml) GenerateHTML(ctx context.Context, tracefile, outputDir, title string) error {
	args := []string{"--quiet", "--output-directory", outputDir}
	if title != "" {
		args = append(args, "--title", title)
	}

	args = append(args, tracefile)

	err := g.Exec.Run(ctx, Command{Name: "genhtml", Args: args})
	if err != nil {
		return fmt.Errorf("generate html: %w", err)
	}

	return nil
}

// LcovCobertura drives the lcov_cobertura converter.
type LcovCobertura struct {
	Exec Executor
}

// ConvertXML writes the Cobertura report to output. Source paths in the
// report are made relative to baseDir.
func (l LcovCobertura) ConvertXML(ctx context.Context, tracefile, output, baseDir string) error {
	err := l.Exec.Run(ctx, Command{
		Name: "lcov_cobertura",
		Args: []string{tracefile, "--base-dir", baseDir, "--output", output},
	})
	if err != nil {
		return fmt.Errorf("convert xml: %w", err)
	}

	return nil
}

// SystemOpener uses the platform's file opener.
type SystemOpener struct {
	Exec Executor
	// GOOS overrides runtime.GOOS when set.
	GOOS string
}

// Open hands path to open, xdg-open or the Windows URL handler.
func (o SystemOpener) Open(ctx context.Context, path string) error {
	goos := o.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	var cmd Command

	switch goos {
	case "darwin":
		cmd = Command{Name: "open", Args: []string{path}}
	case "windows":
		cmd = Command{Name: "rundll32", Args: []string{"url.dll,FileProtocolHandler", path}}
	default:
		cmd = Command{Name: "xdg-open", Args: []string{path}}
	}

	err := o.Exec.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	return nil
}
