package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = ".covreport"
	configType = "yaml"
	envPrefix  = "COVREPORT"

	envKeySeparator = "_"
)

// LoadConfig loads configuration from file, env vars and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// A missing config file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("target", DefaultTarget)
	viperCfg.SetDefault("package_dir", DefaultPackageDir)
	viperCfg.SetDefault("results_dir", DefaultResultsDir)
	viperCfg.SetDefault("tracefile", DefaultTracefile)
	viperCfg.SetDefault("profile", DefaultProfile)
	viperCfg.SetDefault("exclude", []string{})
	viperCfg.SetDefault("include_generated", DefaultIncludeGenerated)
	viperCfg.SetDefault("workers", DefaultWorkers)
	viperCfg.SetDefault("cleanup", DefaultCleanup)

	viperCfg.SetDefault("test.packages", DefaultTestPackages)
	viperCfg.SetDefault("test.args", []string{})

	viperCfg.SetDefault("html.enabled", DefaultHTMLEnabled)
	viperCfg.SetDefault("html.output", DefaultHTMLOutput)
	viperCfg.SetDefault("html.open", DefaultHTMLOpen)
	viperCfg.SetDefault("html.branch_title", DefaultHTMLBranchTitle)

	viperCfg.SetDefault("xml.enabled", DefaultXMLEnabled)
	viperCfg.SetDefault("xml.output", DefaultXMLOutput)

	viperCfg.SetDefault("metrics.textfile", DefaultMetricsTextfile)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.no_color", DefaultNoColor)
}
