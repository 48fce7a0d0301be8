package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "CLK", cfg.Instrument.FunctionName)
	assert.True(t, cfg.InPlace())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"qualified function", func(c *Config) { c.Instrument.FunctionName = "clk.Tick" }, true},
		{"empty function", func(c *Config) { c.Instrument.FunctionName = "" }, false},
		{"function with call", func(c *Config) { c.Instrument.FunctionName = "CLK()" }, false},
		{"deep selector", func(c *Config) { c.Instrument.FunctionName = "a.b.c" }, false},
		{"zero operations", func(c *Config) { c.Instrument.MaxOperationCount = 0 }, false},
		{"zero statements", func(c *Config) { c.Instrument.MaxStatementCount = 0 }, false},
		{"multiline extern", func(c *Config) { c.Instrument.Extern = "var a = 1\nvar b = 2" }, false},
		{"html format", func(c *Config) { c.Output.Format = "html" }, false},
		{"json format", func(c *Config) { c.Output.Format = "json" }, true},
		{"directory and suffix", func(c *Config) {
			c.Output.Directory = "out"
			c.Output.Suffix = "_tick"
		}, false},
		{"suffix with separator", func(c *Config) { c.Output.Suffix = "x/y" }, false},
		{"negative size", func(c *Config) { c.Files.MaxFileSize = -1 }, false},
		{"bad pattern", func(c *Config) { c.Files.Exclude = []string{"["} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateReportsFirstViolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Instrument.MaxOperationCount = 0
	cfg.Output.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_operation_count")
	assert.NotContains(t, err.Error(), "xml")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gotick.yml")
	data := `
instrument:
  function_name: clk.Tick
  max_operation_count: 5
output:
  format: json
  suffix: _tick
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "clk.Tick", cfg.Instrument.FunctionName)
	assert.Equal(t, 5, cfg.Instrument.MaxOperationCount)
	assert.Equal(t, 1, cfg.Instrument.MaxStatementCount)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.True(t, cfg.Output.Gofmt)
	assert.False(t, cfg.InPlace())
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gotick.yml")
	require.NoError(t, os.WriteFile(path, []byte("instrument:\n  max_statement_count: 0\n"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	require.NoError(t, os.WriteFile(path, []byte("instrument: [\n"), 0644))
	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestGenerateConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".gotick.yml")
	require.NoError(t, GenerateConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	assert.Empty(t, findConfigFile())

	require.NoError(t, os.MkdirAll(".config", 0755))
	require.NoError(t, os.WriteFile(".config/gotick.yaml", []byte("version: \"1.0\"\n"), 0644))
	assert.Equal(t, ".config/gotick.yaml", findConfigFile())

	require.NoError(t, os.WriteFile(".gotick.yml", []byte("version: \"1.0\"\n"), 0644))
	assert.Equal(t, ".gotick.yml", findConfigFile())
}

func TestIsExcluded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Files.Exclude = append(cfg.Files.Exclude, "*_gen.go")

	assert.True(t, cfg.IsExcluded("vendor/x/y.go"))
	assert.True(t, cfg.IsExcluded("pkg/testdata/a.go"))
	assert.True(t, cfg.IsExcluded("pkg/model_gen.go"))
	assert.False(t, cfg.IsExcluded("pkg/model.go"))
	assert.False(t, cfg.IsExcluded("vendors/a.go"))
}

func TestIsOutput(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.IsOutput("a_tick.go"))

	cfg.Output.Suffix = "_tick"
	assert.True(t, cfg.IsOutput("pkg/a_tick.go"))
	assert.False(t, cfg.IsOutput("pkg/a.go"))

	cfg.Output.Suffix = ""
	cfg.Output.Directory = "out"
	assert.True(t, cfg.IsOutput("out"))
	assert.True(t, cfg.IsOutput("out/pkg/a.go"))
	assert.False(t, cfg.IsOutput("outer/a.go"))
}
