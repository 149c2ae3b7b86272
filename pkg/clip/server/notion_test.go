package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capturePages(t *testing.T, body *[]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		*body = data
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `{"object":"page","id":"p1","url":"https://www.notion.so/p1"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPagesClient_CreatePagePayload(t *testing.T) {
	var body []byte
	srv := capturePages(t, &body)
	c := &PagesClient{BaseURL: srv.URL + "/"}

	page, err := c.CreatePage(context.Background(), "tok", NewPage{
		DatabaseID: "db1",
		Title:      "Effective Go",
		URL:        "https://go.dev/doc/effective_go",
	})
	require.NoError(t, err)
	assert.Equal(t, &Page{ID: "p1", URL: "https://www.notion.so/p1"}, page)

	assert.JSONEq(t, `{
  "parent": {"database_id": "db1"},
  "properties": {
    "Name": {"title": [{"text": {"content": "Effective Go"}}]},
    "URL": {"url": "https://go.dev/doc/effective_go"}
  }
}`, string(body))
}

func TestPagesClient_CreatePageWithoutURL(t *testing.T) {
	var body []byte
	srv := capturePages(t, &body)
	c := &PagesClient{BaseURL: srv.URL}

	_, err := c.CreatePage(context.Background(), "tok", NewPage{DatabaseID: "db1", Title: "No link"})
	require.NoError(t, err)
	assert.JSONEq(t, `{
  "parent": {"database_id": "db1"},
  "properties": {
    "Name": {"title": [{"text": {"content": "No link"}}]},
    "URL": {"url": null}
  }
}`, string(body))
}

func TestPagesClient_CreatePageDefaultsVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id":"p1","url":"u"}`)
	}))
	defer srv.Close()

	c := &PagesClient{BaseURL: srv.URL}
	_, err := c.CreatePage(context.Background(), "tok", NewPage{DatabaseID: "db1", Title: "t"})
	require.NoError(t, err)
}

func TestPagesClient_CreatePageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"object":"error","status":404,"code":"object_not_found","message":"Could not find database"}`)
	}))
	defer srv.Close()

	c := &PagesClient{BaseURL: srv.URL}
	_, err := c.CreatePage(context.Background(), "tok", NewPage{DatabaseID: "missing", Title: "t"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "object_not_found", apiErr.Code)
	assert.Equal(t, "Could not find database", apiErr.Message)
	assert.Equal(t, "notion api: 404 object_not_found: Could not find database", apiErr.Error())
}

func TestPagesClient_CreatePageRequiresToken(t *testing.T) {
	c := &PagesClient{BaseURL: "http://127.0.0.1:1"}
	_, err := c.CreatePage(context.Background(), "", NewPage{DatabaseID: "db1", Title: "t"})
	assert.EqualError(t, err, "access token is required")
}
