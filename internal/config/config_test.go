package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nielsdekker/detekt-ls/internal/config"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))

	// An explicit but missing config path is a read error, not a
	// silent fallback.
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "detekt-ls.yaml")
	content := `lint:
  config_names: ["custom.yaml"]
  baseline_names: ["baseline.xml"]
  build_upon_default_config: false
  executable: /opt/detekt/bin/detekt
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"custom.yaml"}, cfg.Lint.ConfigNames)
	assert.Equal(t, []string{"baseline.xml"}, cfg.Lint.BaselineNames)
	assert.False(t, cfg.Lint.BuildUponDefaultConfig)
	assert.Equal(t, "/opt/detekt/bin/detekt", cfg.Lint.Executable)
	// Unset keys fall back to defaults.
	assert.Equal(t, config.DefaultTriggerFilePatterns, cfg.Lint.TriggerFilePatterns)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	assert.Equal(t, []string{"detekt.yaml", "detekt.yml"}, cfg.Lint.ConfigNames)
	assert.Empty(t, cfg.Lint.BaselineNames)
	assert.True(t, cfg.Lint.BuildUponDefaultConfig)
	assert.Equal(t, "detekt", cfg.Lint.Executable)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{
			name:    "empty config names",
			mutate:  func(c *config.Config) { c.Lint.ConfigNames = nil },
			wantErr: config.ErrNoConfigNames,
		},
		{
			name:    "empty executable",
			mutate:  func(c *config.Config) { c.Lint.Executable = "" },
			wantErr: config.ErrNoExecutable,
		},
		{
			name:    "empty trigger patterns",
			mutate:  func(c *config.Config) { c.Lint.TriggerFilePatterns = nil },
			wantErr: config.ErrNoTriggerPatterns,
		},
		{
			name:    "bad glob",
			mutate:  func(c *config.Config) { c.Lint.TriggerFilePatterns = []string{"[unclosed"} },
			wantErr: config.ErrBadTriggerPattern,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tc.mutate(cfg)

			assert.ErrorIs(t, cfg.Validate(), tc.wantErr)
		})
	}
}

func TestOverrides_ExplicitFalseIsHonored(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.True(t, cfg.Lint.BuildUponDefaultConfig)

	explicitFalse := false
	config.Overrides{BuildUponDefaultConfig: &explicitFalse}.Apply(cfg)

	assert.False(t, cfg.Lint.BuildUponDefaultConfig)
}

func TestOverrides_UnsetLeavesLoadedValue(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Lint.Executable = "/usr/local/bin/detekt"

	config.Overrides{}.Apply(cfg)

	assert.Equal(t, "/usr/local/bin/detekt", cfg.Lint.Executable)
	assert.True(t, cfg.Lint.BuildUponDefaultConfig)
}

func TestOverrides_SetFields(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	exe := "detekt-cli"
	addr := "127.0.0.1:9090"
	config.Overrides{
		ConfigNames: []string{"rules.yaml"},
		Executable:  &exe,
		MetricsAddr: &addr,
	}.Apply(cfg)

	assert.Equal(t, []string{"rules.yaml"}, cfg.Lint.ConfigNames)
	assert.Equal(t, "detekt-cli", cfg.Lint.Executable)
	assert.Equal(t, "127.0.0.1:9090", cfg.Observability.MetricsAddr)
}

func TestTriggerMatch(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	assert.True(t, cfg.TriggerMatch("/proj/src/Main.kt"))
	assert.True(t, cfg.TriggerMatch("build.gradle.kts"))
	assert.False(t, cfg.TriggerMatch("/proj/src/Main.java"))
	assert.False(t, cfg.TriggerMatch("/proj/src/kt"))
}
