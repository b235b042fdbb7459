// Package config loads covreport settings from .covreport.yaml, COVREPORT_*
// environment variables and built-in defaults.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Defaults.
const (
	DefaultTarget           = 80.0
	DefaultPackageDir       = "."
	DefaultResultsDir       = "coverage"
	DefaultTracefile        = "lcov.info"
	DefaultProfile          = "coverage.out"
	DefaultWorkers          = 0
	DefaultIncludeGenerated = false
	DefaultCleanup          = true

	DefaultHTMLEnabled     = false
	DefaultHTMLOutput      = "html"
	DefaultHTMLOpen        = false
	DefaultHTMLBranchTitle = true

	DefaultXMLEnabled = false
	DefaultXMLOutput  = "coverage.xml"

	DefaultMetricsTextfile = ""

	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false

	DefaultOutputFormat = "text"
	DefaultNoColor      = false
)

// DefaultTestPackages is the package pattern handed to the test runner.
var DefaultTestPackages = []string{"./..."}

// Config is the full covreport configuration.
type Config struct {
	Target           float64         `mapstructure:"target"            validate:"gte=0,lte=100"`
	PackageDir       string          `mapstructure:"package_dir"       validate:"required"`
	ResultsDir       string          `mapstructure:"results_dir"       validate:"required"`
	Tracefile        string          `mapstructure:"tracefile"         validate:"required"`
	Profile          string          `mapstructure:"profile"           validate:"required"`
	Test             TestConfig      `mapstructure:"test"`
	Exclude          []string        `mapstructure:"exclude"`
	IncludeGenerated bool            `mapstructure:"include_generated"`
	Workers          int             `mapstructure:"workers"           validate:"gte=0"`
	HTML             HTMLConfig      `mapstructure:"html"`
	XML              XMLConfig       `mapstructure:"xml"`
	Metrics          MetricsConfig   `mapstructure:"metrics"`
	Logging          LoggingConfig   `mapstructure:"logging"`
	Telemetry        TelemetryConfig `mapstructure:"telemetry"`
	Output           OutputConfig    `mapstructure:"output"`
	Cleanup          bool            `mapstructure:"cleanup"`
}

// TestConfig selects what the test runner executes.
type TestConfig struct {
	Packages []string `mapstructure:"packages" validate:"min=1,dive,required"`
	Args     []string `mapstructure:"args"`
}

// HTMLConfig controls the browsable HTML report.
type HTMLConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Output      string `mapstructure:"output"       validate:"required_if=Enabled true"`
	Open        bool   `mapstructure:"open"`
	BranchTitle bool   `mapstructure:"branch_title"`
}

// XMLConfig controls the Cobertura XML report.
type XMLConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Output  string `mapstructure:"output"  validate:"required_if=Enabled true"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OTLP export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
}

// OutputConfig selects how the result is printed.
type OutputConfig struct {
	Format  string `mapstructure:"format"   validate:"oneof=text json yaml"`
	NoColor bool   `mapstructure:"no_color"`
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Target:           DefaultTarget,
		PackageDir:       DefaultPackageDir,
		ResultsDir:       DefaultResultsDir,
		Tracefile:        DefaultTracefile,
		Profile:          DefaultProfile,
		Test:             TestConfig{Packages: append([]string(nil), DefaultTestPackages...)},
		IncludeGenerated: DefaultIncludeGenerated,
		Workers:          DefaultWorkers,
		HTML: HTMLConfig{
			Enabled:     DefaultHTMLEnabled,
			Output:      DefaultHTMLOutput,
			Open:        DefaultHTMLOpen,
			BranchTitle: DefaultHTMLBranchTitle,
		},
		XML:       XMLConfig{Enabled: DefaultXMLEnabled, Output: DefaultXMLOutput},
		Metrics:   MetricsConfig{Textfile: DefaultMetricsTextfile},
		Logging:   LoggingConfig{Level: DefaultLogLevel, JSON: DefaultLogJSON},
		Telemetry: TelemetryConfig{OTLPEndpoint: DefaultOTLPEndpoint, OTLPInsecure: DefaultOTLPInsecure},
		Output:    OutputConfig{Format: DefaultOutputFormat, NoColor: DefaultNoColor},
		Cleanup:   DefaultCleanup,
	}
}

// Validate checks field constraints. It is called by LoadConfig and must be
// called again after command-line overrides are applied.
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	return nil
}
