package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

// tokenResponseMaxLen is the most bytes read from the provider's token endpoint.
const tokenResponseMaxLen = 1 << 20

type tokenRequest struct {
	GrantType   string `json:"grant_type"`
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	BotID            string `json:"bot_id"`
	WorkspaceID      string `json:"workspace_id"`
	WorkspaceName    string `json:"workspace_name"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// NewHTTPClient returns the client used for outbound provider calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}

// exchangeCode trades an authorization code for an access token. The provider
// expects a JSON body and client credentials as HTTP Basic auth.
//
// A rejected exchange (non-2xx status or no access_token) is returned as an
// *oauth2.RetrieveError; anything else is a transport or parse failure.
func (k *ClipRelayServer) exchangeCode(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	body, err := json.Marshal(&tokenRequest{
		GrantType:   "authorization_code",
		Code:        code,
		RedirectURI: redirectURI,
	})
	if err != nil {
		return nil, fmt.Errorf("could not marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.OAuth2Config.Endpoint.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not build token request: %w", err)
	}
	req.SetBasicAuth(k.OAuth2Config.ClientID, k.OAuth2Config.ClientSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := k.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, tokenResponseMaxLen))
	if err != nil {
		return nil, fmt.Errorf("error reading token response: %w", err)
	}

	tr := &tokenResponse{}
	if err := json.Unmarshal(data, tr); err != nil {
		return nil, fmt.Errorf("error parsing token response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || tr.AccessToken == "" {
		return nil, &oauth2.RetrieveError{
			Response:         resp,
			Body:             data,
			ErrorCode:        tr.Error,
			ErrorDescription: tr.ErrorDescription,
		}
	}

	token := &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   tr.TokenType,
	}
	return token.WithExtra(map[string]interface{}{
		"bot_id":         tr.BotID,
		"workspace_id":   tr.WorkspaceID,
		"workspace_name": tr.WorkspaceName,
	}), nil
}

func (k *ClipRelayServer) httpClient() *http.Client {
	if k.HTTPClient != nil {
		return k.HTTPClient
	}
	return http.DefaultClient
}
