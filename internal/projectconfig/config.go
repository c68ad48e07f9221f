// Package projectconfig provides the ProjectConfig struct and loader for
// .pwaudit.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up from the working directory.
const FileName = ".pwaudit.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultCacheDir = ".pwaudit-cache"
	DefaultFormat   = "text"

	// maxSearchDepth bounds the walk up from the start directory.
	maxSearchDepth = 10
)

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "junit"}

// CacheConfig holds checklist cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// OutputConfig holds report output settings.
type OutputConfig struct {
	Format string `yaml:"format,omitempty"`
}

// AuditConfig holds defaults for the audited page.
type AuditConfig struct {
	DocumentURL string `yaml:"document_url,omitempty"`
	ManifestURL string `yaml:"manifest_url,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .pwaudit.yaml.
type ProjectConfig struct {
	Cache  CacheConfig  `yaml:"cache,omitempty"`
	Output OutputConfig `yaml:"output,omitempty"`
	Audit  AuditConfig  `yaml:"audit,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
		Output: OutputConfig{
			Format: DefaultFormat,
		},
	}
}

// CacheEnabled reports whether the on-disk checklist cache should be used.
func (c *ProjectConfig) CacheEnabled() bool {
	return c.Cache.Enabled != nil && *c.Cache.Enabled
}

// Load finds .pwaudit.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	if err := fileCfg.validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

func (c *ProjectConfig) validate() error {
	if c.Output.Format == "" {
		return nil
	}
	for _, f := range Formats {
		if c.Output.Format == f {
			return nil
		}
	}
	return fmt.Errorf("output.format: unsupported format %q", c.Output.Format)
}

// findConfigFile walks up from dir looking for .pwaudit.yaml.
// Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < maxSearchDepth; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	if src.Output.Format != "" {
		dst.Output.Format = src.Output.Format
	}

	if src.Audit.DocumentURL != "" {
		dst.Audit.DocumentURL = src.Audit.DocumentURL
	}
	if src.Audit.ManifestURL != "" {
		dst.Audit.ManifestURL = src.Audit.ManifestURL
	}
}

func boolPtr(b bool) *bool {
	return &b
}
