// # internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"depmap/internal/depmaperr"
)

// DefaultPath is consulted when no config file is passed explicitly.
const DefaultPath = "depmap.toml"

type Config struct {
	Analysis      Analysis      `toml:"analysis"`
	Output        Output        `toml:"output"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	Tokens        Tokens        `toml:"tokens"`
}

type Analysis struct {
	Root         string   `toml:"root"`
	Entry        string   `toml:"entry"`
	Workers      int      `toml:"workers"` // 0 picks a size from GOMAXPROCS
	Include      []string `toml:"include"`
	Exclude      []string `toml:"exclude"`
	UseGitignore *bool    `toml:"use_gitignore"`
}

// GitignoreEnabled defaults to true when the key is absent.
func (a Analysis) GitignoreEnabled() bool {
	if a.UseGitignore == nil {
		return true
	}
	return *a.UseGitignore
}

type Output struct {
	JSON    string `toml:"json"`
	DOT     string `toml:"dot"`
	TSV     string `toml:"tsv"`
	Mermaid string `toml:"mermaid"`
}

type Watch struct {
	Enabled       bool    `toml:"enabled"`
	DebounceMS    int     `toml:"debounce_ms"`
	RebuildPerSec float64 `toml:"rebuild_per_sec"`
	RebuildBurst  int     `toml:"rebuild_burst"`
}

func (w Watch) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	SampleAll    bool   `toml:"sample_all"`
}

type Tokens struct {
	Model string `toml:"model"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeConfig, "read config")
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeConfig, "parse config")
	}

	applyDefaults(&cfg)

	if err := validateAnalysis(&cfg); err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeConfig, "validate config")
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeConfig, "validate config")
	}
	if err := validateHistory(&cfg); err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeConfig, "validate config")
	}
	if err := validateTokens(&cfg); err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeConfig, "validate config")
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Analysis.Root) == "" {
		cfg.Analysis.Root = "."
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
	if cfg.Watch.RebuildPerSec == 0 {
		cfg.Watch.RebuildPerSec = 0.5
	}
	if cfg.Watch.RebuildBurst == 0 {
		cfg.Watch.RebuildBurst = 1
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "depmap.db"
	}
	if strings.TrimSpace(cfg.Tokens.Model) == "" {
		cfg.Tokens.Model = "gpt-4o"
	}
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must be >= 0, got %d", cfg.Analysis.Workers)
	}
	if entry := strings.TrimSpace(cfg.Analysis.Entry); entry != "" && filepath.IsAbs(entry) {
		return fmt.Errorf("analysis.entry must be relative to the root, got %q", entry)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must be >= 0, got %d", cfg.Watch.DebounceMS)
	}
	if cfg.Watch.RebuildPerSec <= 0 {
		return fmt.Errorf("watch.rebuild_per_sec must be > 0, got %v", cfg.Watch.RebuildPerSec)
	}
	if cfg.Watch.RebuildBurst < 1 {
		return fmt.Errorf("watch.rebuild_burst must be >= 1, got %d", cfg.Watch.RebuildBurst)
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled=true")
	}
	return nil
}

func validateTokens(cfg *Config) error {
	if strings.TrimSpace(cfg.Tokens.Model) == "" {
		return fmt.Errorf("tokens.model must not be empty")
	}
	return nil
}
