package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-multierror"
)

const (
	DefaultAuthURL       = "https://api.notion.com/v1/oauth/authorize"
	DefaultTokenURL      = "https://api.notion.com/v1/oauth/token"
	DefaultNotionAPIURL  = "https://api.notion.com"
	DefaultNotionVersion = "2022-06-28"
)

// Config holds the relay server settings, all read from the environment.
type Config struct {
	Addr string `env:"NOTION_CLIP_ADDR" envDefault:":8080"`

	ClientID     string `env:"NOTION_CLIENT_ID"`
	ClientSecret string `env:"NOTION_CLIENT_SECRET"`
	// RedirectURL overrides the https://<host>/api/callback redirect derived per request.
	RedirectURL string `env:"NOTION_CLIP_REDIRECT_URL"`

	AuthURL       string `env:"NOTION_AUTH_URL"  envDefault:"https://api.notion.com/v1/oauth/authorize"`
	TokenURL      string `env:"NOTION_TOKEN_URL" envDefault:"https://api.notion.com/v1/oauth/token"`
	NotionAPIURL  string `env:"NOTION_API_URL"   envDefault:"https://api.notion.com"`
	NotionVersion string `env:"NOTION_VERSION"   envDefault:"2022-06-28"`

	TokenTTL      time.Duration `env:"NOTION_CLIP_TOKEN_TTL"      envDefault:"5m"`
	HTTPTimeout   time.Duration `env:"NOTION_CLIP_HTTP_TIMEOUT"   envDefault:"30s"`
	AllowedOrigin string        `env:"NOTION_CLIP_ALLOWED_ORIGIN" envDefault:"*"`

	Quiet    bool   `env:"NOTION_CLIP_QUIET"`
	LogLevel string `env:"NOTION_CLIP_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.ClientID == "" {
		result = multierror.Append(result, errors.New("NOTION_CLIENT_ID is required"))
	}
	if c.ClientSecret == "" {
		result = multierror.Append(result, errors.New("NOTION_CLIENT_SECRET is required"))
	}
	for name, raw := range map[string]string{
		"NOTION_AUTH_URL":  c.AuthURL,
		"NOTION_TOKEN_URL": c.TokenURL,
		"NOTION_API_URL":   c.NotionAPIURL,
	} {
		if err := checkURL(raw); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.RedirectURL != "" {
		if err := checkURL(c.RedirectURL); err != nil {
			result = multierror.Append(result, fmt.Errorf("NOTION_CLIP_REDIRECT_URL: %w", err))
		}
	}
	if c.TokenTTL <= 0 {
		result = multierror.Append(result, fmt.Errorf("NOTION_CLIP_TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.HTTPTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("NOTION_CLIP_HTTP_TIMEOUT must not be negative, got %s", c.HTTPTimeout))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
