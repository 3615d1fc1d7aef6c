package wiki

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/olgasafonova/wikiread-mcp-server/internal/base"
)

func clearWikiEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"WIKI_CONFIG", "WIKI_BASE_URL", "WIKI_USER_AGENT", "WIKI_TIMEOUT", "WIKI_PARSER"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wikiread.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearWikiEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.UserAgent != base.DefaultUserAgent {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Timeout != base.DefaultTimeout {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.Parser != "default" {
		t.Errorf("Parser = %q", cfg.Parser)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	clearWikiEnv(t)
	t.Setenv("WIKI_BASE_URL", "https://fr.wikipedia.org/")
	t.Setenv("WIKI_USER_AGENT", "wikiread/1.0 (ops@example.org)")
	t.Setenv("WIKI_TIMEOUT", "5s")
	t.Setenv("WIKI_PARSER", "markdown")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.BaseURL != "https://fr.wikipedia.org" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.UserAgent != "wikiread/1.0 (ops@example.org)" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.Parser != "markdown" {
		t.Errorf("Parser = %q", cfg.Parser)
	}
}

func TestLoadConfig_FileWithEnvOverride(t *testing.T) {
	clearWikiEnv(t)
	path := writeConfig(t, `
base_url: https://wiki.example.org
user_agent: file-agent/2.0
timeout: 12s
parser: markdown
`)
	t.Setenv("WIKI_CONFIG", path)
	t.Setenv("WIKI_PARSER", "default")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.BaseURL != "https://wiki.example.org" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.UserAgent != "file-agent/2.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Timeout != 12*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.Parser != "default" {
		t.Errorf("env should override file, Parser = %q", cfg.Parser)
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	clearWikiEnv(t)

	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantMsg string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantMsg: "failed to read config",
		},
		{
			name:    "bad yaml",
			path:    func(t *testing.T) string { return writeConfig(t, "base_url: [unclosed") },
			wantMsg: "failed to unmarshal config yaml",
		},
		{
			name:    "invalid base url",
			path:    func(t *testing.T) string { return writeConfig(t, "base_url: wiki.example.org") },
			wantMsg: "scheme must be http or https",
		},
		{
			name:    "unknown parser",
			path:    func(t *testing.T) string { return writeConfig(t, "parser: wikitext") },
			wantMsg: "unknown parser",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFile(tt.path(t))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadConfig_InvalidTimeout(t *testing.T) {
	clearWikiEnv(t)
	t.Setenv("WIKI_TIMEOUT", "soon")

	if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "WIKI_TIMEOUT") {
		t.Errorf("expected WIKI_TIMEOUT error, got %v", err)
	}
}

func TestConfigValidate_TrimsSlashes(t *testing.T) {
	cfg := &Config{BaseURL: " https://en.wikipedia.org// "}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.BaseURL != "https://en.wikipedia.org" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}
