// Package terminal provides terminal detection and text emphasis for CLI output.
package terminal

import (
	"os"
	"strconv"

	"github.com/fatih/color"
)

// Width bounds applied to COLUMNS.
const (
	MinWidth = 60
	MaxWidth = 160
)

// Config holds terminal rendering configuration.
type Config struct {
	// Width bounds long cells; zero means unbounded.
	Width   int
	NoColor bool
}

// NewConfig creates a Config from the environment. Color is disabled when
// NO_COLOR is set or stdout is not a terminal.
func NewConfig() Config {
	return Config{
		Width:   DetectWidth(),
		NoColor: color.NoColor || os.Getenv("NO_COLOR") != "",
	}
}

// DetectWidth returns the terminal width from the COLUMNS environment
// variable clamped to [MinWidth, MaxWidth], or 0 if unset or invalid.
func DetectWidth() int {
	columnsEnv := os.Getenv("COLUMNS")
	if columnsEnv == "" {
		return 0
	}

	width, err := strconv.Atoi(columnsEnv)
	if err != nil {
		return 0
	}

	return min(max(width, MinWidth), MaxWidth)
}
