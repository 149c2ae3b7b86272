package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jr0d/notion-clip/pkg/clip/config"
)

func TestRouter_TokenEndpointCORS(t *testing.T) {
	s, store := newTestServer(t, "http://127.0.0.1:1/token", "")
	require.NoError(t, store.Put("k", "tok"))
	h := s.Router("chrome-extension://abcdef")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "https://example.com/api/token?key=k", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"tok"}`, w.Body.String())
	assert.Equal(t, "chrome-extension://abcdef", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestRouter_SavePreflight(t *testing.T) {
	s, _ := newTestServer(t, "http://127.0.0.1:1/token", "")
	h := s.Router("")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("OPTIONS", "https://example.com/api/save", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestRouter_CallbackHasNoCORS(t *testing.T) {
	s, _ := newTestServer(t, "http://127.0.0.1:1/token", "")
	h := s.Router("*")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "https://example.com/api/callback?error=access_denied", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_NotFound(t *testing.T) {
	s, _ := newTestServer(t, "http://127.0.0.1:1/token", "")
	h := s.Router("*")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "https://example.com/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNew(t *testing.T) {
	cfg := &config.Config{
		ClientID:      "client",
		ClientSecret:  "secret",
		AuthURL:       config.DefaultAuthURL,
		TokenURL:      config.DefaultTokenURL,
		NotionAPIURL:  config.DefaultNotionAPIURL,
		NotionVersion: config.DefaultNotionVersion,
		Quiet:         true,
	}
	s := New(cfg, nil, nil)

	assert.True(t, s.Quiet)
	assert.Equal(t, "client", s.OAuth2Config.ClientID)
	assert.Equal(t, config.DefaultTokenURL, s.OAuth2Config.Endpoint.TokenURL)
	assert.Equal(t, config.DefaultNotionAPIURL, s.Pages.BaseURL)
	assert.Same(t, s.HTTPClient, s.Pages.HTTPClient)
	assert.NotNil(t, s.logger())
}
