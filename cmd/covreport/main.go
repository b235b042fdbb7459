// Package main provides the entry point for the covreport CLI tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/covreport/cmd/covreport/commands"
	"github.com/Sumatoshi-tech/covreport/pkg/gate"
	"github.com/Sumatoshi-tech/covreport/pkg/version"
)

const exitCodeError = 1

func main() {
	version.InitBinaryVersion()

	os.Exit(run(newRootCommand(), os.Stderr))
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "covreport",
		Short: "Line coverage report and gate for Go packages",
		Long: `covreport runs a package's tests with coverage enabled, prints per-file
coverage with uncovered line ranges and fails when the package total is
below a target.

Commands:
  report    Run tests and report coverage
  render    Render a stored profile, tracefile or JSON summary
  mcp       Serve coverage summaries over MCP`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}

// run executes the command tree and maps the error to an exit code. A missed
// coverage target has already been reported, so it exits without a message.
func run(rootCmd *cobra.Command, stderr io.Writer) int {
	err := rootCmd.Execute()
	if err == nil {
		return gate.ExitCodeMet
	}

	if errors.Is(err, gate.ErrTargetNotMet) {
		return gate.ExitCodeNotMet
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)

	return exitCodeError
}
