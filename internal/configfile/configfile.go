// Package configfile reads and writes the per-project jk configuration.
package configfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const ConfigFileName = "config.json"

// JKDirName is the project metadata directory, created by jk init next to
// the registry root.
const JKDirName = ".jk"

type Config struct {
	// Registry
	Root     string `json:"root"`               // registry root, relative to the project dir
	IDPrefix string `json:"id_prefix"`          // e.g. "JRN"
	IDWidth  int    `json:"id_width,omitempty"` // zero-padding width, 0 means default (4)
	Layout   string `json:"layout,omitempty"`   // flat | staged

	// Validation defaults
	Mode     string `json:"mode,omitempty"`     // quick | standard | max
	Strict   bool   `json:"strict,omitempty"`
	Contract string `json:"contract,omitempty"` // basic | strict | auto
	Autofix  string `json:"autofix,omitempty"`  // auto | true | false

	// Custom vocabularies layered on top of the built-ins
	Statuses []string `json:"statuses,omitempty"`
	Tiers    []string `json:"tiers,omitempty"`

	// Artifact corpus
	ArtifactDir      string   `json:"artifact_dir,omitempty"`
	ArtifactSuffixes []string `json:"artifact_suffixes,omitempty"`

	// Import boundary
	SanctionedImport string   `json:"sanctioned_import,omitempty"`
	BannedImports    []string `json:"banned_imports,omitempty"`

	// Anti-pattern scanning
	URLAllowlist       []string `json:"url_allowlist,omitempty"`
	LintBackend        string   `json:"lint_backend,omitempty"` // auto | external | fallback
	LintCommand        []string `json:"lint_command,omitempty"`
	LintTimeoutSeconds int      `json:"lint_timeout_seconds,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Root:        "journeys",
		IDPrefix:    "JRN",
		IDWidth:     4,
		Layout:      "flat",
		Mode:        "standard",
		Contract:    "auto",
		Autofix:     "auto",
		ArtifactDir: "tests",
		LintBackend: "auto",
	}
}

func ConfigPath(jkDir string) string {
	return filepath.Join(jkDir, ConfigFileName)
}

// Load reads the config from the .jk directory. A missing file returns
// (nil, nil) so callers can distinguish "not initialized" from a read error.
func Load(jkDir string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(jkDir)) // #nosec G304 - controlled path from config
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Save(jkDir string) error {
	if err := os.MkdirAll(jkDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", jkDir, err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(jkDir), append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// RootPath returns the registry root as an absolute-ish path under the
// project directory.
func (c *Config) RootPath(projectDir string) string {
	if filepath.IsAbs(c.Root) {
		return c.Root
	}
	return filepath.Join(projectDir, c.Root)
}

// ArtifactPath returns the artifact corpus directory under the project dir.
func (c *Config) ArtifactPath(projectDir string) string {
	if filepath.IsAbs(c.ArtifactDir) {
		return c.ArtifactDir
	}
	return filepath.Join(projectDir, c.ArtifactDir)
}

// GetIDWidth returns the configured id width, or the default if not set.
func (c *Config) GetIDWidth() int {
	if c.IDWidth <= 0 {
		return 4
	}
	return c.IDWidth
}

// GetLintTimeout returns the configured external lint timeout.
func (c *Config) GetLintTimeout() time.Duration {
	if c.LintTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.LintTimeoutSeconds) * time.Second
}
