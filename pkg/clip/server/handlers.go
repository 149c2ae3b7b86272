package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/jr0d/notion-clip/pkg/clip"
	"github.com/jr0d/notion-clip/pkg/clip/config"
	"github.com/jr0d/notion-clip/pkg/clip/server/storage"
)

// saveRequestMaxLen bounds the JSON body accepted by the save endpoint.
const saveRequestMaxLen = 64 << 10

const (
	internalErrorText  = "Internal server error. Please try again."
	internalErrorJSON  = "Internal server error"
	missingFieldsError = "Missing required fields: databaseId, title, token"
	defaultSaveError   = "Failed to create Notion page"
	unknownOAuthError  = "Unknown error"
)

type ClipRelayServer struct {
	// Quiet when true, request logging will be suppressed. Errors are always logged.
	Quiet bool

	OAuth2Config *oauth2.Config
	// RedirectURL, when set, replaces the redirect URI derived from the request host
	RedirectURL string

	Storage    storage.RelayStore
	Pages      *PagesClient
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// New builds a relay server from configuration.
func New(cfg *config.Config, store storage.RelayStore, logger *slog.Logger) *ClipRelayServer {
	httpClient := NewHTTPClient(cfg.HTTPTimeout)
	return &ClipRelayServer{
		Quiet: cfg.Quiet,
		OAuth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		RedirectURL: cfg.RedirectURL,
		Storage:     store,
		Pages: &PagesClient{
			BaseURL:    cfg.NotionAPIURL,
			Version:    cfg.NotionVersion,
			HTTPClient: httpClient,
		},
		HTTPClient: httpClient,
		Logger:     logger,
	}
}

func (k *ClipRelayServer) logger() *slog.Logger {
	if k.Logger != nil {
		return k.Logger
	}
	return slog.Default()
}

// logRequest records the path only, query strings carry codes and keys.
func (k *ClipRelayServer) logRequest(req *http.Request, code, n int) {
	if k.Quiet {
		return
	}
	k.logger().Info("request",
		"remote", req.RemoteAddr,
		"method", req.Method,
		"uri", req.URL.Path,
		"status", code,
		"bytes", n)
}

func (k *ClipRelayServer) logError(err error, req *http.Request, msg string) {
	k.logger().Error(msg,
		"remote", req.RemoteAddr,
		"method", req.Method,
		"uri", req.URL.Path,
		"error", err)
}

func (k *ClipRelayServer) handleError(err error, req *http.Request, w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	n, _ := fmt.Fprintln(w, msg)
	k.logRequest(req, code, n)
	if err != nil {
		k.logError(err, req, msg)
	}
}

func (k *ClipRelayServer) writeJSON(w http.ResponseWriter, req *http.Request, code int, v interface{}) {
	entity, err := json.Marshal(v)
	if err != nil {
		k.handleError(fmt.Errorf("could not marshal response: %w", err),
			req, w, internalErrorJSON, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)

	n, err := w.Write(entity)
	if err != nil {
		k.logError(fmt.Errorf("error writing output stream: %w", err), req, "write failed")
		return
	}
	k.logRequest(req, code, n)
}

func (k *ClipRelayServer) redirectURI(req *http.Request) string {
	if k.RedirectURL != "" {
		return k.RedirectURL
	}
	return "https://" + req.Host + clip.CallbackEndpoint
}

// Authorize sends the browser to the provider's consent page, threading the
// caller's relay key through as the OAuth state.
func (k *ClipRelayServer) Authorize(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		k.handleError(nil, req, w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	state := req.URL.Query().Get("state")
	if state == "" {
		k.handleError(errors.New("state missing from request"),
			req, w, "Missing state", http.StatusBadRequest)
		return
	}

	cfg := *k.OAuth2Config
	cfg.RedirectURL = k.redirectURI(req)
	location := cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("owner", "user"))

	http.Redirect(w, req, location, http.StatusFound)
	k.logRequest(req, http.StatusFound, 0)
}

// Callback is the OAuth redirect target. It exchanges the code and parks the
// access token in the relay store under the state value.
func (k *ClipRelayServer) Callback(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		k.handleError(nil, req, w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	q := req.URL.Query()
	if reason := q.Get("error"); reason != "" {
		if !k.Quiet {
			k.logger().Info("authorization declined", "reason", reason)
		}
		k.renderPage(w, req, http.StatusOK, cancelledPage, pageData{})
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" || state == "" {
		k.handleError(errors.New("code or state missing from request"),
			req, w, "Missing code or state", http.StatusBadRequest)
		return
	}

	token, err := k.exchangeCode(req.Context(), code, k.redirectURI(req))
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			k.logError(err, req, "token exchange failed")
			reason := rErr.ErrorCode
			if reason == "" {
				reason = unknownOAuthError
			}
			k.renderPage(w, req, http.StatusInternalServerError, failedPage, pageData{Error: reason})
			return
		}
		k.handleError(fmt.Errorf("error exchanging code for token: %w", err),
			req, w, internalErrorText, http.StatusInternalServerError)
		return
	}

	if err := k.Storage.Put(state, token.AccessToken); err != nil {
		k.handleError(fmt.Errorf("error saving token: %w", err),
			req, w, internalErrorText, http.StatusInternalServerError)
		return
	}

	if !k.Quiet {
		k.logger().Info("token stored", "workspace", token.Extra("workspace_name"))
	}
	k.renderPage(w, req, http.StatusOK, successPage, pageData{})
}

// Poll hands a stored token to the client exactly once. It never blocks; the
// client is expected to call again while the response is pending.
func (k *ClipRelayServer) Poll(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		k.writeJSON(w, req, http.StatusMethodNotAllowed, &clip.ErrorResponse{Error: "Method not allowed"})
		return
	}

	key := req.URL.Query().Get("key")
	if key == "" {
		k.writeJSON(w, req, http.StatusBadRequest, &clip.ErrorResponse{Error: "Missing key parameter"})
		return
	}

	res, err := k.Storage.Take(key)
	if err != nil {
		k.logError(fmt.Errorf("error reading token storage: %w", err), req, "poll failed")
		k.writeJSON(w, req, http.StatusInternalServerError, &clip.ErrorResponse{Error: internalErrorJSON})
		return
	}

	response := &clip.PollResponse{}
	switch res.Status {
	case storage.Found:
		if !k.Quiet {
			k.logger().Info("token retrieved, storage deleted")
		}
		response.Token = res.Token
	case storage.Expired:
		response.Error = clip.ExpiredError
	default:
		response.Pending = true
	}
	k.writeJSON(w, req, http.StatusOK, response)
}

// Save creates a database row from the posted title and URL. It uses the
// token from the request body and holds no state of its own.
func (k *ClipRelayServer) Save(w http.ResponseWriter, req *http.Request) {
	if req.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		k.logRequest(req, http.StatusOK, 0)
		return
	}
	if req.Method != http.MethodPost {
		k.writeJSON(w, req, http.StatusMethodNotAllowed, &clip.ErrorResponse{Error: "Method not allowed"})
		return
	}

	saveReq := &clip.SaveRequest{}
	if err := json.NewDecoder(io.LimitReader(req.Body, saveRequestMaxLen)).Decode(saveReq); err != nil {
		k.logError(fmt.Errorf("error parsing request json: %w", err), req, "bad save request")
		k.writeJSON(w, req, http.StatusBadRequest, &clip.ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	if saveReq.DatabaseID == "" || saveReq.Title == "" || saveReq.Token == "" {
		k.writeJSON(w, req, http.StatusBadRequest, &clip.ErrorResponse{Error: missingFieldsError})
		return
	}

	page, err := k.Pages.CreatePage(req.Context(), saveReq.Token, NewPage{
		DatabaseID: saveReq.DatabaseID,
		Title:      saveReq.Title,
		URL:        saveReq.URL,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			k.logError(err, req, "page creation rejected")
			msg := apiErr.Message
			if msg == "" {
				msg = defaultSaveError
			}
			k.writeJSON(w, req, http.StatusInternalServerError, &clip.ErrorResponse{Error: msg, Details: apiErr.Body})
			return
		}
		k.logError(fmt.Errorf("error creating page: %w", err), req, "save failed")
		k.writeJSON(w, req, http.StatusInternalServerError, &clip.ErrorResponse{Error: internalErrorJSON})
		return
	}

	k.writeJSON(w, req, http.StatusOK, &clip.SaveResponse{
		Success: true,
		PageID:  page.ID,
		PageURL: page.URL,
	})
}
