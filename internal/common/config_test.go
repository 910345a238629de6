package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFile_LayersOverDefaults(t *testing.T) {
	path := writeConfig(t, "tenax.toml", `
[collector]
registry_file = "./custom-registry.toml"
mapping_file = "./custom-mapping.toml"
concurrency = 4

[edgar]
user_agent = "Test test@example.com"
`)

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "./custom-registry.toml", config.Collector.RegistryFile)
	assert.Equal(t, 4, config.Collector.Concurrency)
	// Untouched settings keep their defaults.
	assert.Equal(t, "13F-HR", config.Collector.TargetForm)
	assert.Equal(t, time.Second, config.Edgar.RequestDelay)
	assert.Equal(t, "./data", config.Storage.Badger.Path)
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	base := writeConfig(t, "base.toml", `
[collector]
concurrency = 2

[edgar]
user_agent = "Test test@example.com"
`)
	override := writeConfig(t, "override.toml", `
[collector]
concurrency = 8
`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)
	assert.Equal(t, 8, config.Collector.Concurrency)
	assert.Equal(t, "Test test@example.com", config.Edgar.UserAgent)
}

func TestLoadFromFile_EnvOverridesFile(t *testing.T) {
	t.Setenv("TENAX_COLLECTOR_CONCURRENCY", "6")
	t.Setenv("TENAX_EDGAR_USER_AGENT", "Env env@example.com")

	path := writeConfig(t, "tenax.toml", `
[collector]
concurrency = 2

[edgar]
user_agent = "File file@example.com"
`)

	config, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 6, config.Collector.Concurrency)
	assert.Equal(t, "Env env@example.com", config.Edgar.UserAgent)
}

func TestLoadFromFile_MissingUserAgentFailsValidation(t *testing.T) {
	// The SEC rejects anonymous requests, so an empty user agent is a
	// configuration error, not a runtime surprise.
	path := writeConfig(t, "tenax.toml", `
[collector]
concurrency = 1
`)

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestNewDefaultConfig_IsInvalidWithoutUserAgent(t *testing.T) {
	config := NewDefaultConfig()
	assert.Error(t, config.Validate())

	config.Edgar.UserAgent = "Test test@example.com"
	assert.NoError(t, config.Validate())
}
