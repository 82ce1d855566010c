package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestEnvValue(t *testing.T) {
	t.Setenv("PROTOVAL_TEST_LEVEL", "debug")
	tests := []struct {
		in, want string
	}{
		{"${PROTOVAL_TEST_LEVEL}", "debug"},
		{"$PROTOVAL_TEST_LEVEL", "debug"},
		{"${PROTOVAL_TEST_LEVEL:-info}", "debug"},
		{"${PROTOVAL_TEST_MISSING:-info}", "info"},
		{"${PROTOVAL_TEST_MISSING}", ""},
		{"log-${PROTOVAL_TEST_LEVEL}.txt", "log-debug.txt"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, os.Expand(tt.in, envValue), tt.in)
	}
}

func TestTyped(t *testing.T) {
	assert.Equal(t, true, typed("true"))
	assert.Equal(t, false, typed("false"))
	assert.Equal(t, 8, typed("8"))
	assert.Equal(t, "warn", typed("warn"))
}

func TestLoad_Default(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("PROTOVAL_TEST_PARALLELISM", "4")
	path := writeConfig(t, "protoval.yaml", `
version: 1
logger:
  level: ${PROTOVAL_TEST_LEVEL:-info}
generator:
  builder_suffix: Maker
  parallelism: ${PROTOVAL_TEST_PARALLELISM}
  emit_builders: ${PROTOVAL_TEST_BUILDERS:-false}
interop:
  pgv: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "Maker", cfg.Generator.BuilderSuffix)
	assert.Equal(t, 4, cfg.Generator.Parallelism)
	assert.True(t, cfg.Interop.PGV)
	assert.False(t, cfg.Generator.EmitBuilders)
	// отсутствующие ключи сохраняют значения по умолчанию
	assert.Equal(t, ".pb.validate.go", cfg.Generator.FileSuffix)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "v.ReadInConfig")

	path := writeConfig(t, "protoval.yaml", "version: 2\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "unsupported version 2")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "level", mutate: func(c *Config) { c.Logger.Level = "loud" }, errMsg: "logger.level"},
		{name: "suffix", mutate: func(c *Config) { c.Generator.FileSuffix = ".txt" }, errMsg: "must end with .go"},
		{name: "builder", mutate: func(c *Config) { c.Generator.BuilderSuffix = "-b" }, errMsg: "builder_suffix"},
		{name: "empty builder", mutate: func(c *Config) { c.Generator.BuilderSuffix = "" }, errMsg: "builder_suffix"},
		{name: "parallelism", mutate: func(c *Config) { c.Generator.Parallelism = -1 }, errMsg: "parallelism"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestConfig_Set(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Set("log_level", "debug"))
	require.NoError(t, cfg.Set("pgv", "true"))
	require.NoError(t, cfg.Set("emit_builders", "false"))
	require.NoError(t, cfg.Set("parallelism", "2"))
	require.NoError(t, cfg.Set("file_suffix", ".val.go"))
	require.NoError(t, cfg.Set("builder_suffix", "Maker"))

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.Interop.PGV)
	assert.False(t, cfg.Generator.EmitBuilders)
	assert.Equal(t, 2, cfg.Generator.Parallelism)
	assert.Equal(t, ".val.go", cfg.Generator.FileSuffix)
	assert.Equal(t, "Maker", cfg.Generator.BuilderSuffix)

	assert.Error(t, cfg.Set("pgv", "maybe"))
	assert.Error(t, cfg.Set("parallelism", "many"))
	assert.EqualError(t, cfg.Set("color", "red"), `unknown parameter "color"`)
}
