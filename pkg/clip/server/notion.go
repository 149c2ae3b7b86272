package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/jr0d/notion-clip/pkg/clip/config"
)

// pageResponseMaxLen is the most bytes read from the pages API.
const pageResponseMaxLen = 1 << 20

// PagesClient creates database rows through the Notion pages API.
//
// The target database must have a title property called "Name" and a URL
// property called "URL".
type PagesClient struct {
	BaseURL    string
	Version    string
	HTTPClient *http.Client
}

type NewPage struct {
	DatabaseID string
	Title      string
	URL        string
}

type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// APIError is a non-2xx answer from the pages API. Body holds the raw error
// document so it can be handed back to the caller.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion api: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("notion api: %d: %s", e.StatusCode, e.Message)
}

type pageRequest struct {
	Parent     pageParent     `json:"parent"`
	Properties pageProperties `json:"properties"`
}

type pageParent struct {
	DatabaseID string `json:"database_id"`
}

type pageProperties struct {
	Name titleProperty `json:"Name"`
	URL  urlProperty   `json:"URL"`
}

type titleProperty struct {
	Title []richText `json:"title"`
}

type richText struct {
	Text textContent `json:"text"`
}

type textContent struct {
	Content string `json:"content"`
}

// urlProperty marshals an empty URL as null, which clears the property.
type urlProperty struct {
	URL *string `json:"url"`
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newPageRequest(p NewPage) *pageRequest {
	pr := &pageRequest{
		Parent: pageParent{DatabaseID: p.DatabaseID},
		Properties: pageProperties{
			Name: titleProperty{Title: []richText{{Text: textContent{Content: p.Title}}}},
		},
	}
	if p.URL != "" {
		u := p.URL
		pr.Properties.URL.URL = &u
	}
	return pr
}

// CreatePage adds a row to the database using the caller's access token.
// A rejection by the API is returned as an *APIError.
func (c *PagesClient) CreatePage(ctx context.Context, accessToken string, p NewPage) (*Page, error) {
	if accessToken == "" {
		return nil, errors.New("access token is required")
	}

	body, err := json.Marshal(newPageRequest(p))
	if err != nil {
		return nil, fmt.Errorf("could not marshal page request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/v1/pages"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not build page request: %w", err)
	}
	req.Header.Set("Notion-Version", c.version())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.bearerClient(ctx, accessToken).Do(req)
	if err != nil {
		return nil, fmt.Errorf("page request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, pageResponseMaxLen))
	if err != nil {
		return nil, fmt.Errorf("error reading page response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		eb := &apiErrorBody{}
		if err := json.Unmarshal(data, eb); err != nil {
			return nil, fmt.Errorf("error parsing page error response (status %d): %w", resp.StatusCode, err)
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Code:       eb.Code,
			Message:    eb.Message,
			Body:       json.RawMessage(data),
		}
	}

	page := &Page{}
	if err := json.Unmarshal(data, page); err != nil {
		return nil, fmt.Errorf("error parsing page response: %w", err)
	}
	return page, nil
}

// bearerClient wraps the configured client so every request carries the
// caller's token as a Bearer Authorization header.
func (c *PagesClient) bearerClient(ctx context.Context, accessToken string) *http.Client {
	base := c.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
}

func (c *PagesClient) endpoint(path string) string {
	base := c.BaseURL
	if base == "" {
		base = config.DefaultNotionAPIURL
	}
	return strings.TrimSuffix(base, "/") + path
}

func (c *PagesClient) version() string {
	if c.Version == "" {
		return config.DefaultNotionVersion
	}
	return c.Version
}
