// internal/config/config.go
//
// This package loads stackplan.yaml: the run-wide settings shared by every
// command (placement policy, convergence limits, logging, rendering and the
// optional plan journal).

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "stackplan.yaml"

// DefaultYAML is written by WriteDefault and documents every key.
const DefaultYAML = `# stackplan configuration
version: 1

# pinned: table blocks must sit at their goal location.
# anywhere: any stack bottom satisfies an OnTable goal.
placement: pinned

limits:
  max_passes: 64
  stall_passes: 4

logging:
  level: info   # debug | info | warn | error
  format: text  # text | json
  file: ""      # empty writes to stderr

render:
  color: auto   # auto | always | never
  facts: false

# Optional append-only plan journal.
journal: ""
`

// Limits bounds each driver pass.
type Limits struct {
	MaxPasses   int `yaml:"max_passes" mapstructure:"max_passes"`
	StallPasses int `yaml:"stall_passes" mapstructure:"stall_passes"`
}

// Logging selects the slog handler.
type Logging struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file,omitempty" mapstructure:"file"`
}

// Render controls diagram output.
type Render struct {
	Color string `yaml:"color" mapstructure:"color"`
	Facts bool   `yaml:"facts" mapstructure:"facts"`
}

// Config models stackplan.yaml.
type Config struct {
	Version   int     `yaml:"version" mapstructure:"version"`
	Placement string  `yaml:"placement" mapstructure:"placement"`
	Limits    Limits  `yaml:"limits" mapstructure:"limits"`
	Logging   Logging `yaml:"logging" mapstructure:"logging"`
	Render    Render  `yaml:"render" mapstructure:"render"`
	Journal   string  `yaml:"journal,omitempty" mapstructure:"journal"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-" mapstructure:"-"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Version:   1,
		Placement: "pinned",
		Limits:    Limits{MaxPasses: 64, StallPasses: 4},
		Logging:   Logging{Level: "info", Format: "text"},
		Render:    Render{Color: "auto"},
	}
}

// Load reads path. A missing file yields the defaults unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	parsed, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.Path = path
	return parsed, nil
}

// Parse decodes YAML config data. Relative file paths resolve against base.
func Parse(data []byte, base string) (Config, error) {
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Config{}, err
	}
	parsed.ApplyDefaults()
	parsed.Normalize(base)
	if err := parsed.Validate(); err != nil {
		return Config{}, err
	}
	return parsed, nil
}

// ApplyDefaults fills zero-valued fields from Default.
func (c *Config) ApplyDefaults() {
	def := Default()
	if c.Version == 0 {
		c.Version = def.Version
	}
	if strings.TrimSpace(c.Placement) == "" {
		c.Placement = def.Placement
	}
	if c.Limits.MaxPasses == 0 {
		c.Limits.MaxPasses = def.Limits.MaxPasses
	}
	if c.Limits.StallPasses == 0 {
		c.Limits.StallPasses = def.Limits.StallPasses
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = def.Logging.Level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = def.Logging.Format
	}
	if strings.TrimSpace(c.Render.Color) == "" {
		c.Render.Color = def.Render.Color
	}
}

// Normalize lower-cases enum fields and resolves file paths against base.
func (c *Config) Normalize(base string) {
	c.Placement = normalizeValue(c.Placement)
	c.Logging.Level = normalizeValue(c.Logging.Level)
	c.Logging.Format = normalizeValue(c.Logging.Format)
	c.Render.Color = normalizeValue(c.Render.Color)
	c.Logging.File = resolvePath(base, c.Logging.File)
	c.Journal = resolvePath(base, c.Journal)
}

// Validate rejects unknown enum values and non-positive limits.
func (c Config) Validate() error {
	if c.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if !contains([]string{"pinned", "anywhere"}, c.Placement) {
		return fmt.Errorf("placement must be 'pinned' or 'anywhere', got %q", c.Placement)
	}
	if c.Limits.MaxPasses < 1 {
		return fmt.Errorf("limits.max_passes must be >= 1")
	}
	if c.Limits.StallPasses < 1 {
		return fmt.Errorf("limits.stall_passes must be >= 1")
	}
	if !contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	if !contains([]string{"text", "json"}, c.Logging.Format) {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", c.Logging.Format)
	}
	if !contains([]string{"auto", "always", "never"}, c.Render.Color) {
		return fmt.Errorf("render.color must be auto, always or never, got %q", c.Render.Color)
	}
	return nil
}

// WriteDefault creates path with DefaultYAML unless it already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure dir: %w", err)
		}
	}
	return os.WriteFile(path, []byte(DefaultYAML), 0o644)
}

func normalizeValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) || base == "" {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
