// Package toolchain wraps the external programs a coverage run depends on:
// the Go test runner, genhtml, lcov_cobertura and the desktop file opener.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

var (
	// ErrToolNotFound indicates the program is not on PATH.
	ErrToolNotFound = errors.New("tool not found")
	// ErrToolFailed indicates the program ran and exited unsuccessfully.
	ErrToolFailed = errors.New("tool failed")
)

// Command is a single external program invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Stdout receives the program's standard output; nil discards it.
	Stdout io.Writer
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Executor runs commands to completion.
type Executor interface {
	Run(ctx context.Context, cmd Command) error
}

// ProcessExecutor runs commands as child processes.
type ProcessExecutor struct{}

// Run resolves cmd.Name on PATH and waits for it. On failure the error
// wraps ErrToolFailed and carries the program's stderr.
func (ProcessExecutor) Run(ctx context.Context, cmd Command) error {
	path, err := exec.LookPath(cmd.Name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolNotFound, cmd.Name, err)
	}

	var stderr bytes.Buffer

	proc := exec.CommandContext(ctx, path, cmd.Args...)
	proc.Dir = cmd.Dir
	proc.Stdout = cmd.Stdout
	proc.Stderr = &stderr

	runErr := proc.Run()
	if runErr != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%w: %s: %w", ErrToolFailed, cmd, runErr)
		}

		return fmt.Errorf("%w: %s: %w: %s", ErrToolFailed, cmd, runErr, msg)
	}

	return nil
}
