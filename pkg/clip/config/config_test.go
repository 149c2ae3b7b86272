package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NOTION_CLIENT_ID", "client")
	t.Setenv("NOTION_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DefaultAuthURL, cfg.AuthURL)
	assert.Equal(t, DefaultTokenURL, cfg.TokenURL)
	assert.Equal(t, DefaultNotionAPIURL, cfg.NotionAPIURL)
	assert.Equal(t, DefaultNotionVersion, cfg.NotionVersion)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "*", cfg.AllowedOrigin)
	assert.Empty(t, cfg.RedirectURL)
	assert.False(t, cfg.Quiet)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NOTION_CLIENT_ID", "client")
	t.Setenv("NOTION_CLIENT_SECRET", "secret")
	t.Setenv("NOTION_CLIP_ADDR", "127.0.0.1:9000")
	t.Setenv("NOTION_CLIP_TOKEN_TTL", "90s")
	t.Setenv("NOTION_CLIP_REDIRECT_URL", "http://localhost:9000/api/callback")
	t.Setenv("NOTION_CLIP_QUIET", "true")
	t.Setenv("NOTION_CLIP_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 90*time.Second, cfg.TokenTTL)
	assert.Equal(t, "http://localhost:9000/api/callback", cfg.RedirectURL)
	assert.True(t, cfg.Quiet)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("NOTION_CLIENT_ID", "")
	t.Setenv("NOTION_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTION_CLIENT_ID is required")
	assert.Contains(t, err.Error(), "NOTION_CLIENT_SECRET is required")
}

func TestLoadBadDuration(t *testing.T) {
	t.Setenv("NOTION_CLIENT_ID", "client")
	t.Setenv("NOTION_CLIENT_SECRET", "secret")
	t.Setenv("NOTION_CLIP_TOKEN_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := &Config{
		ClientID:     "client",
		ClientSecret: "secret",
		AuthURL:      "not a url",
		TokenURL:     DefaultTokenURL,
		NotionAPIURL: DefaultNotionAPIURL,
		RedirectURL:  "/relative",
		TokenTTL:     0,
		LogLevel:     "loud",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTION_AUTH_URL")
	assert.Contains(t, err.Error(), "NOTION_CLIP_REDIRECT_URL")
	assert.Contains(t, err.Error(), "NOTION_CLIP_TOKEN_TTL")
	assert.Contains(t, err.Error(), `unknown log level "loud"`)
	assert.NotContains(t, err.Error(), "NOTION_TOKEN_URL")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
}
