package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	want := config.Default()
	want.Source = path
	assert.Equal(t, want, cfg)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `alignment:
  max_edit_distance: 100
  fallback: text
  retry_factor: 4
file_associations:
  h: cpp
  tmpl: html
formatting:
  deletion:
    color: magenta
    prefix: "<"
    underline: true
  context_lines: 2
input:
  max_file_size: 512KiB
logging:
  level: debug
  json: true
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Alignment.MaxEditDistance)
	assert.Equal(t, config.FallbackText, cfg.Alignment.Fallback)
	assert.Equal(t, 400, cfg.RetryBudget())
	assert.Equal(t, map[string]string{"h": "cpp", "tmpl": "html"}, cfg.FileAssociations)

	assert.Equal(t, "magenta", cfg.Formatting.Deletion.Color)
	assert.Equal(t, "<", cfg.Formatting.Deletion.Prefix)
	assert.True(t, cfg.Formatting.Deletion.Underline)
	assert.True(t, cfg.Formatting.Deletion.Bold, "unset keys keep their defaults")
	assert.Equal(t, config.DefaultAdditionColor, cfg.Formatting.Addition.Color)
	assert.Equal(t, 2, cfg.Formatting.ContextLines)

	size, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(512*1024), size)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, path, cfg.Source)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "unknown fallback", content: "alignment:\n  fallback: guess\n", want: config.ErrSchemaViolation},
		{name: "zero budget", content: "alignment:\n  max_edit_distance: 0\n", want: config.ErrSchemaViolation},
		{name: "unknown color", content: "formatting:\n  addition:\n    color: mauve\n", want: config.ErrSchemaViolation},
		{name: "unknown log level", content: "logging:\n  level: chatty\n", want: config.ErrSchemaViolation},
		{name: "bad size", content: "input:\n  max_file_size: lots\n", want: config.ErrInvalidMaxFileSize},
		{name: "zero size", content: "input:\n  max_file_size: 0B\n", want: config.ErrInvalidMaxFileSize},
		{name: "bad cache size", content: "cache:\n  max_size: plenty\n", want: config.ErrInvalidCacheSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "alignment: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, config.ErrConfigFileNotFound)
}

func TestLoadConfig_SearchAndEnv(t *testing.T) {
	home := t.TempDir()
	xdg := t.TempDir()

	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("SITTERDIFF_ALIGNMENT_MAX_EDIT_DISTANCE", "77")

	homeFile := filepath.Join(home, ".sitterdiff.yaml")
	require.NoError(t, os.WriteFile(homeFile, []byte("logging:\n  level: info\n"), 0o600))

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, homeFile, cfg.Source)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 77, cfg.Alignment.MaxEditDistance, "environment overrides file and defaults")

	xdgFile := filepath.Join(xdg, "sitterdiff", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(xdgFile), 0o750))
	require.NoError(t, os.WriteFile(xdgFile, []byte("logging:\n  level: error\n"), 0o600))

	cfg, err = config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, xdgFile, cfg.Source, "XDG config wins over the home dotfile")
	assert.Equal(t, "error", cfg.Logging.Level)

	assert.Equal(t, xdgFile, config.SearchPaths()[0])
}
