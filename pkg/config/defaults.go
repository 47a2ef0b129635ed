// Package config provides the YAML configuration for sitterdiff.
package config

// Alignment defaults.
const (
	DefaultMaxEditDistance = 4096
	DefaultFallback        = FallbackNone
	DefaultRetryFactor     = 0
)

// Fallback policies applied when an alignment exceeds its budget.
const (
	// FallbackNone reports the diff-too-large error.
	FallbackNone = "none"
	// FallbackText degrades to a line diff.
	FallbackText = "text"
)

// Formatting defaults.
const (
	DefaultDeletionColor  = "red"
	DefaultAdditionColor  = "green"
	DefaultDeletionPrefix = "-"
	DefaultAdditionPrefix = "+"
	DefaultEmphasisBold   = true
	DefaultEmphasisUnder  = false
	DefaultContextLines   = 0
)

// Input defaults.
const (
	DefaultMaxFileSize = "4MB"
)

// Cache defaults.
const (
	DefaultCacheMaxSize = "64MB"
)

// Logging defaults.
const (
	DefaultLogLevel = "warn"
	DefaultLogJSON  = false
)

// Default returns the configuration used when no file is loaded.
func Default() *Config {
	return &Config{
		Alignment: AlignmentConfig{
			MaxEditDistance: DefaultMaxEditDistance,
			Fallback:        DefaultFallback,
			RetryFactor:     DefaultRetryFactor,
		},
		Cache: CacheConfig{
			MaxSize: DefaultCacheMaxSize,
		},
		FileAssociations: map[string]string{},
		Formatting: FormattingConfig{
			Deletion: StyleConfig{
				Color:     DefaultDeletionColor,
				Prefix:    DefaultDeletionPrefix,
				Bold:      DefaultEmphasisBold,
				Underline: DefaultEmphasisUnder,
			},
			Addition: StyleConfig{
				Color:     DefaultAdditionColor,
				Prefix:    DefaultAdditionPrefix,
				Bold:      DefaultEmphasisBold,
				Underline: DefaultEmphasisUnder,
			},
			ContextLines: DefaultContextLines,
		},
		Input: InputConfig{
			MaxFileSize: DefaultMaxFileSize,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
			JSON:  DefaultLogJSON,
		},
	}
}
