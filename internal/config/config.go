package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Property store keys.
const (
	KeyNotionToken = "NOTION_API_TOKEN"
	KeyDatabaseID  = "DATABASE_ID"
	KeyWebhookURL  = "DISCORD_WEBHOOK_URL"
	KeyColumnMap   = "NOTION_COLUMN_MAP"
)

// ErrMissing reports a required property that is not configured.
var ErrMissing = errors.New("required property not set")

type Config struct {
	LogLevel       string            `yaml:"log_level"`
	MatchTolerance time.Duration     `yaml:"match_tolerance"`
	Properties     map[string]string `yaml:"properties"`
	Notion         NotionConfig      `yaml:"notion"`
	Digest         DigestConfig      `yaml:"digest"`
	Web            WebConfig         `yaml:"web"`
}

type NotionConfig struct {
	BaseURL string `yaml:"base_url"`
	Version string `yaml:"version"`
}

type DigestConfig struct {
	// Schedule is the daily HH:MM (JST) the serve loop sends the digest at.
	Schedule string `yaml:"schedule"`
}

type WebConfig struct {
	Listen        string `yaml:"listen"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	AuthToken     string `yaml:"auth_token"`
	AuthTokenFile string `yaml:"auth_token_file"`
}

func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &cfg, nil
}

// Resolve finds the config file to use. Precedence: explicit path ->
// NOTION_HERALD_CONFIG -> ./config.yaml -> /var/lib/notion-herald/config.yaml.
// An explicit path that does not exist is an error; when no default file
// exists an empty config is returned so the environment alone can drive a run.
func Resolve(override string) (*Config, error) {
	path := override
	if path == "" {
		path = os.Getenv("NOTION_HERALD_CONFIG")
	}
	if path != "" {
		return LoadConfig(path)
	}
	for _, candidate := range []string{"./config.yaml", "/var/lib/notion-herald/config.yaml"} {
		if _, err := os.Stat(candidate); err == nil {
			return LoadConfig(candidate)
		}
	}
	return &Config{}, nil
}

// Store returns the layered property store for this config.
func (c *Config) Store() Store {
	var props map[string]string
	if c != nil {
		props = c.Properties
	}
	return Layered{Env{}, Map(props), FileRef{Base: Layered{Env{}, Map(props)}}}
}

// ResolveWebAuthToken returns the bearer token guarding the web API. The
// inline auth_token wins over auth_token_file.
func (c *Config) ResolveWebAuthToken() (string, error) {
	if c == nil {
		return "", nil
	}
	if c.Web.AuthToken != "" {
		return c.Web.AuthToken, nil
	}
	if c.Web.AuthTokenFile == "" {
		return "", nil
	}
	b, err := os.ReadFile(c.Web.AuthTokenFile)
	if err != nil {
		return "", fmt.Errorf("failed to read auth_token_file %s: %w", c.Web.AuthTokenFile, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// ListenAddr picks host:port, then listen, then a loopback default.
func (c *Config) ListenAddr() string {
	if c.Web.Host != "" && c.Web.Port != 0 {
		return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
	}
	if c.Web.Listen != "" {
		return c.Web.Listen
	}
	return "127.0.0.1:8080"
}
