package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".detekt-ls"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for detekt-ls settings.
const envPrefix = "DETEKT_LS"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Defaults for the lint surface.
var (
	// DefaultConfigNames are the conventional detekt config file names.
	DefaultConfigNames = []string{"detekt.yaml", "detekt.yml"}

	// DefaultTriggerFilePatterns match Kotlin sources and scripts.
	DefaultTriggerFilePatterns = []string{"*.kt", "*.kts"}
)

// DefaultExecutable is the bare detekt executable name.
const DefaultExecutable = "detekt"

// DefaultBuildUponDefaultConfig controls --build-upon-default-config.
const DefaultBuildUponDefaultConfig = true

// Load loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func Load(configPath string) (*Config, error) {
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

// Default returns the built-in configuration without touching the
// filesystem or environment.
func Default() *Config {
	return &Config{
		Lint: LintConfig{
			ConfigNames:            append([]string(nil), DefaultConfigNames...),
			BuildUponDefaultConfig: DefaultBuildUponDefaultConfig,
			Executable:             DefaultExecutable,
			TriggerFilePatterns:    append([]string(nil), DefaultTriggerFilePatterns...),
		},
	}
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("lint.config_names", DefaultConfigNames)
	viperCfg.SetDefault("lint.baseline_names", []string{})
	viperCfg.SetDefault("lint.build_upon_default_config", DefaultBuildUponDefaultConfig)
	viperCfg.SetDefault("lint.executable", DefaultExecutable)
	viperCfg.SetDefault("lint.trigger_file_patterns", DefaultTriggerFilePatterns)

	viperCfg.SetDefault("observability.metrics_addr", "")
	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.log_json", false)
}
