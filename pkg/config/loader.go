package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// appName names the XDG config directory.
const appName = "sitterdiff"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for sitterdiff settings.
const envPrefix = "SITTERDIFF"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// ErrConfigFileNotFound indicates that an explicitly requested config file does not exist.
// Callers typically log it and continue with Default.
var ErrConfigFileNotFound = errors.New("config file not found")

// SearchPaths returns the locations LoadConfig tries, in order, when no explicit
// path is given.
func SearchPaths() []string {
	var paths []string

	configHome := os.Getenv("XDG_CONFIG_HOME")
	home, homeErr := os.UserHomeDir()

	if configHome == "" && homeErr == nil {
		configHome = filepath.Join(home, ".config")
	}

	if configHome != "" {
		paths = append(paths, filepath.Join(configHome, appName, "config.yaml"))
	}

	if homeErr == nil {
		paths = append(paths, filepath.Join(home, "."+appName+".yaml"))
	}

	return append(paths, "."+appName+".yaml")
}

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path and
// must exist. Otherwise the first existing file among SearchPaths is used, and
// when there is none the defaults apply.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	source := configPath

	if source != "" {
		_, statErr := os.Stat(source)
		if errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, source)
		}
	} else {
		source = findConfigFile(SearchPaths())
	}

	if source != "" {
		viperCfg.SetConfigFile(source)

		readErr := viperCfg.ReadInConfig()
		if readErr != nil {
			return nil, fmt.Errorf("read config %s: %w", source, readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	if cfg.FileAssociations == nil {
		cfg.FileAssociations = map[string]string{}
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	cfg.Source = source

	return &cfg, nil
}

func findConfigFile(candidates []string) string {
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}

	return ""
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("alignment.max_edit_distance", DefaultMaxEditDistance)
	viperCfg.SetDefault("alignment.fallback", DefaultFallback)
	viperCfg.SetDefault("alignment.retry_factor", DefaultRetryFactor)

	viperCfg.SetDefault("cache.max_size", DefaultCacheMaxSize)

	viperCfg.SetDefault("file_associations", map[string]string{})

	viperCfg.SetDefault("formatting.deletion.color", DefaultDeletionColor)
	viperCfg.SetDefault("formatting.deletion.highlight", "")
	viperCfg.SetDefault("formatting.deletion.prefix", DefaultDeletionPrefix)
	viperCfg.SetDefault("formatting.deletion.bold", DefaultEmphasisBold)
	viperCfg.SetDefault("formatting.deletion.underline", DefaultEmphasisUnder)
	viperCfg.SetDefault("formatting.addition.color", DefaultAdditionColor)
	viperCfg.SetDefault("formatting.addition.highlight", "")
	viperCfg.SetDefault("formatting.addition.prefix", DefaultAdditionPrefix)
	viperCfg.SetDefault("formatting.addition.bold", DefaultEmphasisBold)
	viperCfg.SetDefault("formatting.addition.underline", DefaultEmphasisUnder)
	viperCfg.SetDefault("formatting.context_lines", DefaultContextLines)

	viperCfg.SetDefault("input.max_file_size", DefaultMaxFileSize)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)
}
