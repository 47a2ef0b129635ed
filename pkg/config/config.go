package config

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Config is the top-level configuration struct for sitterdiff.
// Field tags use mapstructure for viper unmarshalling and json/yaml for dumps.
type Config struct {
	Alignment        AlignmentConfig   `json:"alignment"         mapstructure:"alignment"         yaml:"alignment"`
	Cache            CacheConfig       `json:"cache"             mapstructure:"cache"             yaml:"cache"`
	FileAssociations map[string]string `json:"file_associations" mapstructure:"file_associations" yaml:"file_associations"`
	Formatting       FormattingConfig  `json:"formatting"        mapstructure:"formatting"        yaml:"formatting"`
	Input            InputConfig       `json:"input"             mapstructure:"input"             yaml:"input"`
	Logging          LoggingConfig     `json:"logging"           mapstructure:"logging"           yaml:"logging"`

	// Source is the file the configuration was read from, empty for defaults.
	Source string `json:"-" mapstructure:"-" yaml:"-"`
}

// AlignmentConfig holds the structural alignment budget and what to do when it is exceeded.
type AlignmentConfig struct {
	MaxEditDistance int    `json:"max_edit_distance" mapstructure:"max_edit_distance" yaml:"max_edit_distance"`
	Fallback        string `json:"fallback"          mapstructure:"fallback"          yaml:"fallback"`
	// RetryFactor multiplies MaxEditDistance for a single retry. Zero disables the retry.
	RetryFactor int `json:"retry_factor" mapstructure:"retry_factor" yaml:"retry_factor"`
}

// FormattingConfig holds terminal output styling.
type FormattingConfig struct {
	Deletion     StyleConfig `json:"deletion"      mapstructure:"deletion"      yaml:"deletion"`
	Addition     StyleConfig `json:"addition"      mapstructure:"addition"      yaml:"addition"`
	ContextLines int         `json:"context_lines" mapstructure:"context_lines" yaml:"context_lines"`
}

// StyleConfig styles one side of the diff. Bold and Underline apply to the
// changed nodes only; the rest of an affected line uses Color alone.
type StyleConfig struct {
	Color     string `json:"color"     mapstructure:"color"     yaml:"color"`
	Highlight string `json:"highlight" mapstructure:"highlight" yaml:"highlight"`
	Prefix    string `json:"prefix"    mapstructure:"prefix"    yaml:"prefix"`
	Bold      bool   `json:"bold"      mapstructure:"bold"      yaml:"bold"`
	Underline bool   `json:"underline" mapstructure:"underline" yaml:"underline"`
}

// InputConfig limits what is read from disk.
type InputConfig struct {
	MaxFileSize string `json:"max_file_size" mapstructure:"max_file_size" yaml:"max_file_size"`
}

// CacheConfig bounds the diff result cache of the long-running servers.
type CacheConfig struct {
	// MaxSize of zero disables the cache.
	MaxSize string `json:"max_size" mapstructure:"max_size" yaml:"max_size"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level" yaml:"level"`
	JSON  bool   `json:"json"  mapstructure:"json"  yaml:"json"`
}

// Sentinel errors for configuration validation.
var (
	// ErrSchemaViolation indicates the settings do not match the configuration schema.
	ErrSchemaViolation = errors.New("config does not match schema")
	// ErrInvalidMaxFileSize indicates input.max_file_size is not a positive size.
	ErrInvalidMaxFileSize = errors.New("input.max_file_size must be a positive size such as 4MB")
	// ErrInvalidAssociation indicates a file association with an empty extension.
	ErrInvalidAssociation = errors.New("file_associations keys must be non-empty extensions")
	// ErrInvalidCacheSize indicates cache.max_size is not a size.
	ErrInvalidCacheSize = errors.New("cache.max_size must be a size such as 64MB, or 0 to disable")
)

// Validate checks Config against the schema and then its semantic invariants.
func (c *Config) Validate() error {
	schemaErr := validateSchema(c)
	if schemaErr != nil {
		return schemaErr
	}

	_, sizeErr := c.MaxFileSizeBytes()
	if sizeErr != nil {
		return sizeErr
	}

	_, cacheErr := c.CacheSizeBytes()
	if cacheErr != nil {
		return cacheErr
	}

	for ext := range c.FileAssociations {
		if ext == "" || ext == "." {
			return ErrInvalidAssociation
		}
	}

	return nil
}

// MaxFileSizeBytes parses input.max_file_size.
func (c *Config) MaxFileSizeBytes() (uint64, error) {
	size, err := humanize.ParseBytes(c.Input.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMaxFileSize, err)
	}

	if size == 0 {
		return 0, ErrInvalidMaxFileSize
	}

	return size, nil
}

// CacheSizeBytes parses cache.max_size. Zero means the cache is disabled.
func (c *Config) CacheSizeBytes() (uint64, error) {
	if c.Cache.MaxSize == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.Cache.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidCacheSize, err)
	}

	return size, nil
}

// RetryBudget returns the relaxed alignment budget, or 0 when retrying is disabled.
func (c *Config) RetryBudget() int {
	if c.Alignment.RetryFactor <= 1 {
		return 0
	}

	return c.Alignment.MaxEditDistance * c.Alignment.RetryFactor
}
