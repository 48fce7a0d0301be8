package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"gotick/internal/config"
	"gotick/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.MkdirAll(filepath.Dir(name), 0755))
		require.NoError(t, os.WriteFile(name, []byte("package p\n"), 0644))
	}
}

func TestCollectGoFiles(t *testing.T) {
	t.Chdir(t.TempDir())
	touch(t, "src/a.go", "src/a_test.go", "src/a_tick.go", "src/notes.txt",
		"src/vendor/v.go", "src/testdata/d.go", "src/sub/b.go")

	cfg := config.DefaultConfig()
	cfg.Output.Suffix = "_tick"

	files, err := collectGoFiles(cfg, "src")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("src", "a.go"), filepath.Join("src", "sub", "b.go")}, files)

	cfg.Files.IncludeTests = true
	files, err = collectGoFiles(cfg, "src")
	require.NoError(t, err)
	assert.Contains(t, files, filepath.Join("src", "a_test.go"))
}

func TestCollectSkipsOutputDirectory(t *testing.T) {
	t.Chdir(t.TempDir())
	touch(t, "a.go", "out/a.go")

	cfg := config.DefaultConfig()
	cfg.Output.Directory = "out"

	files := collectAll(cfg, []string{"./..."}, logging.Nop())
	assert.Equal(t, []string{"a.go"}, files)
}

func parseFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	require.NoError(t, rootCmd.Flags().Parse(args))
	t.Cleanup(func() {
		rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	})
	return rootCmd
}

func TestApplyFlagsOverrideOnlyWhenSet(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Instrument.FunctionName = "clk.Tick"
	cfg.Instrument.MaxStatementCount = 4

	c := parseFlags(t, "--step", "7", "--suffix", "_tick", "--no-gofmt")
	require.NoError(t, applyFlags(c, cfg))

	assert.Equal(t, "clk.Tick", cfg.Instrument.FunctionName)
	assert.Equal(t, 7, cfg.Instrument.MaxOperationCount)
	assert.Equal(t, 4, cfg.Instrument.MaxStatementCount)
	assert.Equal(t, "_tick", cfg.Output.Suffix)
	assert.False(t, cfg.Output.Gofmt)
}

func TestWatchRejectsInPlace(t *testing.T) {
	c := parseFlags(t, "--watch")
	err := applyFlags(c, config.DefaultConfig())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestCreateCostModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costs.txt")
	model, err := loadCostModel("")
	require.NoError(t, err)
	require.NoError(t, createCostModel(model, path))

	loaded, err := loadCostModel(path)
	require.NoError(t, err)
	var want, got bytes.Buffer
	require.NoError(t, model.Write(&want))
	require.NoError(t, loaded.Write(&got))
	assert.Equal(t, want.String(), got.String())

	_, err = loadCostModel(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
