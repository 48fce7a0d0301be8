// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the configuration for gotick
type Config struct {
	Version string `yaml:"version" json:"version"`

	// How counts are computed and emitted
	Instrument InstrumentConfig `yaml:"instrument" json:"instrument"`

	// Where instrumented files and reports go
	Output OutputConfig `yaml:"output" json:"output"`

	// File patterns
	Files FilesConfig `yaml:"files" json:"files"`
}

type InstrumentConfig struct {
	// Cost file; empty means every construct weighs 1
	CostModel string `yaml:"cost_model,omitempty" json:"cost_model,omitempty"`

	// Counting function called by inserted code, e.g. CLK or clk.Tick
	FunctionName string `yaml:"function_name" json:"function_name"`

	// A call is emitted once both thresholds are reached
	MaxOperationCount int `yaml:"max_operation_count" json:"max_operation_count"`
	MaxStatementCount int `yaml:"max_statement_count" json:"max_statement_count"`

	// Import path added to instrumented files
	Include string `yaml:"include,omitempty" json:"include,omitempty"`

	// Declaration line added after the import, e.g. "var CLK = clk.Tick"
	Extern string `yaml:"extern,omitempty" json:"extern,omitempty"`
}

type OutputConfig struct {
	// Report format
	Format string `yaml:"format" json:"format"`

	Colors  bool `yaml:"colors" json:"colors"`
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Mirror instrumented files under this directory
	Directory string `yaml:"directory,omitempty" json:"directory,omitempty"`

	// Write <name><suffix>.go next to each source; with no directory and no
	// suffix sources are rewritten in place
	Suffix string `yaml:"suffix,omitempty" json:"suffix,omitempty"`

	// Compute everything but write nothing
	DryRun bool `yaml:"dry_run" json:"dry_run"`

	// Run gofmt over instrumented text
	Gofmt bool `yaml:"gofmt" json:"gofmt"`

	// Report file path (optional)
	ReportFile string `yaml:"report_file,omitempty" json:"report_file,omitempty"`
}

type FilesConfig struct {
	// Exclude patterns, matched against paths and base names
	Exclude []string `yaml:"exclude" json:"exclude"`

	// Whether to instrument test files
	IncludeTests bool `yaml:"include_tests" json:"include_tests"`

	// Max file size (in KB), 0 for no limit
	MaxFileSize int `yaml:"max_file_size" json:"max_file_size"`
}

func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Instrument: InstrumentConfig{
			FunctionName:      "CLK",
			MaxOperationCount: 1,
			MaxStatementCount: 1,
		},
		Output: OutputConfig{
			Format:  "console",
			Colors:  true,
			Verbose: false,
			Gofmt:   true,
		},
		Files: FilesConfig{
			Exclude:      []string{"vendor/**", ".git/**", "testdata/**"},
			IncludeTests: false,
			MaxFileSize:  1024, // 1MB
		},
	}
}

// LoadConfig loads configuration from file or returns default
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := DefaultConfig() // Start with defaults

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// findConfigFile looks for config files in common locations
func findConfigFile() string {
	possiblePaths := []string{
		".gotick.yml",
		".gotick.yaml",
		"gotick.yml",
		"gotick.yaml",
		".config/gotick.yml",
		".config/gotick.yaml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// Validate returns the first violated constraint.
func (c *Config) Validate() error {
	in := c.Instrument
	if !isCallable(in.FunctionName) {
		return fmt.Errorf("%w: function_name %q is not an identifier or pkg.Name", ErrInvalidConfig, in.FunctionName)
	}
	if in.MaxOperationCount < 1 {
		return fmt.Errorf("%w: max_operation_count must be at least 1", ErrInvalidConfig)
	}
	if in.MaxStatementCount < 1 {
		return fmt.Errorf("%w: max_statement_count must be at least 1", ErrInvalidConfig)
	}
	if strings.ContainsAny(in.Extern, "\n\r") {
		return fmt.Errorf("%w: extern must be a single line", ErrInvalidConfig)
	}

	validFormats := []string{"console", "json"}
	formatValid := false
	for _, format := range validFormats {
		if c.Output.Format == format {
			formatValid = true
			break
		}
	}
	if !formatValid {
		return fmt.Errorf("%w: output format %s (valid: %v)", ErrInvalidConfig, c.Output.Format, validFormats)
	}

	if c.Output.Directory != "" && c.Output.Suffix != "" {
		return fmt.Errorf("%w: output directory and suffix cannot both be set", ErrInvalidConfig)
	}
	if strings.ContainsAny(c.Output.Suffix, `/\`) {
		return fmt.Errorf("%w: suffix %q must not contain a path separator", ErrInvalidConfig, c.Output.Suffix)
	}

	if c.Files.MaxFileSize < 0 {
		return fmt.Errorf("%w: max_file_size must not be negative", ErrInvalidConfig)
	}
	for _, pattern := range c.Files.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("%w: exclude pattern %q: %v", ErrInvalidConfig, pattern, err)
		}
	}

	return nil
}

func isCallable(name string) bool {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if !token.IsIdentifier(p) {
			return false
		}
	}
	return true
}

// InPlace reports whether sources are overwritten.
func (c *Config) InPlace() bool {
	return c.Output.Directory == "" && c.Output.Suffix == "" && !c.Output.DryRun
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateConfig creates a sample configuration file
func GenerateConfig(configPath string) error {
	config := DefaultConfig()
	return config.SaveConfig(configPath)
}

// IsExcluded reports whether path matches one of the exclude patterns. A
// pattern ending in /** excludes everything below that directory.
func (c *Config) IsExcluded(path string) bool {
	path = filepath.ToSlash(filepath.Clean(path))
	base := filepath.Base(path)
	for _, pattern := range c.Files.Exclude {
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			if path == dir || strings.HasPrefix(path, dir+"/") || strings.Contains(path, "/"+dir+"/") || base == dir {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// IsOutput reports whether path is a file this configuration writes, so
// that it is never instrumented again.
func (c *Config) IsOutput(path string) bool {
	if c.Output.Suffix != "" && strings.HasSuffix(path, c.Output.Suffix+".go") {
		return true
	}
	if c.Output.Directory == "" {
		return false
	}
	dir, err := filepath.Abs(c.Output.Directory)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator))
}
