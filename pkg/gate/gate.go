// Package gate decides whether a coverage run meets its target percentage.
package gate

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/covreport/pkg/coverage"
)

// DefaultTarget is the target percentage used when none is configured.
const DefaultTarget = 80.0

// Process exit codes for each outcome.
const (
	ExitCodeMet    = 0
	ExitCodeNotMet = 1
)

var (
	// ErrTargetNotMet is returned by callers that turn a NotMet verdict into an error.
	ErrTargetNotMet = errors.New("coverage target not met")
	// ErrUnknownOutcome indicates an outcome label that is neither "met" nor "not met".
	ErrUnknownOutcome = errors.New("unknown gate outcome")
)

// Outcome is the result of comparing coverage against a target.
type Outcome int

// Outcome values.
const (
	NotMet Outcome = iota
	Met
)

// String returns "met" or "not met".
func (o Outcome) String() string {
	if o == Met {
		return "met"
	}

	return "not met"
}

// MarshalText encodes the outcome as its String form.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes "met" or "not met".
func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case Met.String():
		*o = Met
	case NotMet.String():
		*o = NotMet
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, text)
	}

	return nil
}

// ExitCode maps the outcome to a process exit code.
func (o Outcome) ExitCode() int {
	if o == Met {
		return ExitCodeMet
	}

	return ExitCodeNotMet
}

// Evaluate reports Met iff coverage is defined and at least target.
// An undefined coverage never meets a target, including a target of zero.
func Evaluate(cov coverage.Percentage, target float64) Outcome {
	value, ok := cov.Value()
	if !ok || value < target {
		return NotMet
	}

	return Met
}

// Verdict is an evaluated gate together with its inputs.
type Verdict struct {
	Target   float64             `json:"target"   yaml:"target"`
	Coverage coverage.Percentage `json:"coverage" yaml:"coverage"`
	Outcome  Outcome             `json:"outcome"  yaml:"outcome"`
}

// Check evaluates pkg against target.
func Check(pkg coverage.PackageCoverage, target float64) Verdict {
	outcome := Evaluate(pkg.Coverage, target)

	return Verdict{
		Target:   target,
		Coverage: pkg.Coverage,
		Outcome:  outcome,
	}
}

// Message is the plain one-line description of the verdict.
func (v Verdict) Message() string {
	return fmt.Sprintf("Coverage target of %s %s (actual: %s)", formatTarget(v.Target), v.Outcome, v.Coverage)
}

// Err returns ErrTargetNotMet for a NotMet verdict and nil otherwise.
func (v Verdict) Err() error {
	if v.Outcome == Met {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrTargetNotMet, v.Message())
}

func formatTarget(target float64) string {
	return coverage.Percent(target).String()
}
