// # internal/config/config_test.go
package config

import (
	"os"
	"testing"
	"time"

	"depmap/internal/depmaperr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config*.toml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoad(t *testing.T) {
	content := `
[analysis]
root = "./src"
entry = "app/main.py"
workers = 4
include = ["*.py"]
exclude = ["tests", "*_test.py"]
use_gitignore = false

[output]
json = "deps.json"
dot = "deps.dot"

[watch]
enabled = true
debounce_ms = 250

[history]
enabled = true
path = "runs.db"

[observability]
metrics_addr = ":9180"

[tokens]
model = "gpt-4"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Analysis.Root != "./src" {
		t.Errorf("expected root ./src, got %s", cfg.Analysis.Root)
	}
	if cfg.Analysis.Entry != "app/main.py" {
		t.Errorf("expected entry app/main.py, got %s", cfg.Analysis.Entry)
	}
	if cfg.Analysis.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Analysis.Workers)
	}
	if cfg.Analysis.GitignoreEnabled() {
		t.Error("expected use_gitignore=false to be honored")
	}
	if len(cfg.Analysis.Exclude) != 2 {
		t.Errorf("unexpected exclude list: %v", cfg.Analysis.Exclude)
	}
	if cfg.Output.JSON != "deps.json" || cfg.Output.DOT != "deps.dot" {
		t.Errorf("unexpected output paths: %+v", cfg.Output)
	}
	if !cfg.Watch.Enabled || cfg.Watch.Debounce() != 250*time.Millisecond {
		t.Errorf("unexpected watch settings: %+v", cfg.Watch)
	}
	if !cfg.History.Enabled || cfg.History.Path != "runs.db" {
		t.Errorf("unexpected history settings: %+v", cfg.History)
	}
	if cfg.Observability.MetricsAddr != ":9180" {
		t.Errorf("unexpected metrics addr: %s", cfg.Observability.MetricsAddr)
	}
	if cfg.Tokens.Model != "gpt-4" {
		t.Errorf("unexpected tokens model: %s", cfg.Tokens.Model)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Analysis.Root != "." {
		t.Errorf("expected default root '.', got %s", cfg.Analysis.Root)
	}
	if !cfg.Analysis.GitignoreEnabled() {
		t.Error("expected gitignore enabled by default")
	}
	if cfg.Watch.Debounce() != 400*time.Millisecond {
		t.Errorf("expected default debounce 400ms, got %v", cfg.Watch.Debounce())
	}
	if cfg.Watch.RebuildPerSec != 0.5 || cfg.Watch.RebuildBurst != 1 {
		t.Errorf("unexpected rebuild limits: %+v", cfg.Watch)
	}
	if cfg.History.Path != "depmap.db" {
		t.Errorf("expected default history path, got %s", cfg.History.Path)
	}
	if cfg.Tokens.Model != "gpt-4o" {
		t.Errorf("expected default model gpt-4o, got %s", cfg.Tokens.Model)
	}
}

func TestDefaultMatchesEmptyFile(t *testing.T) {
	fromFile, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if def.Analysis.Root != fromFile.Analysis.Root ||
		def.Watch.DebounceMS != fromFile.Watch.DebounceMS ||
		def.History.Path != fromFile.History.Path ||
		def.Tokens.Model != fromFile.Tokens.Model {
		t.Errorf("Default() diverges from an empty config file: %+v vs %+v", def, fromFile)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"MalformedTOML", "bad = toml = format"},
		{"NegativeWorkers", "[analysis]\nworkers = -1\n"},
		{"AbsoluteEntry", "[analysis]\nentry = \"/abs/main.py\"\n"},
		{"NegativeDebounce", "[watch]\ndebounce_ms = -5\n"},
		{"NegativeRate", "[watch]\nrebuild_per_sec = -1.0\n"},
		{"NegativeBurst", "[watch]\nrebuild_burst = -2\n"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if !depmaperr.IsCode(err, depmaperr.CodeConfig) {
				t.Fatalf("expected CodeConfig, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("nonexistent.toml")
	if !depmaperr.IsCode(err, depmaperr.CodeConfig) {
		t.Fatalf("expected CodeConfig for missing file, got %v", err)
	}
}
