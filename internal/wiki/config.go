package wiki

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/olgasafonova/wikiread-mcp-server/internal/base"
	"github.com/olgasafonova/wikiread-mcp-server/internal/parser"
)

// DefaultBaseURL is used when no base URL is configured
const DefaultBaseURL = "https://en.wikipedia.org"

// Config holds the wiki connection settings. It is read once and not
// modified after NewClient.
type Config struct {
	// BaseURL is the wiki root, e.g. https://en.wikipedia.org (no trailing slash)
	BaseURL string `yaml:"base_url"`

	// UserAgent is sent on every request
	UserAgent string `yaml:"user_agent,omitempty"`

	// Timeout for a single request
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Parser names the article parser ("default" or "markdown")
	Parser string `yaml:"parser,omitempty"`
}

// LoadConfig builds a Config from an optional YAML file named by WIKI_CONFIG,
// overridden by WIKI_BASE_URL, WIKI_USER_AGENT, WIKI_TIMEOUT and WIKI_PARSER.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(os.Getenv("WIKI_CONFIG"))
}

// LoadConfigFile is LoadConfig with an explicit file path. An empty path
// skips the file.
func LoadConfigFile(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml %s: %w", path, err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("WIKI_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("WIKI_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("WIKI_PARSER"); v != "" {
		cfg.Parser = v
	}
	if v := os.Getenv("WIKI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid WIKI_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	return nil
}

// applyDefaults fills unset fields
func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = base.DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = base.DefaultTimeout
	}
	if cfg.Parser == "" {
		cfg.Parser = "default"
	}
}

// Validate checks the config and strips a trailing slash from BaseURL.
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base URL %q: missing host", c.BaseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid base URL %q: must not contain a query or fragment", c.BaseURL)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.Parser != "" && !slices.Contains(parser.Names(), strings.ToLower(c.Parser)) {
		return fmt.Errorf("unknown parser %q (available: %s)", c.Parser, strings.Join(parser.Names(), ", "))
	}
	return nil
}
