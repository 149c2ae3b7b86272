package clip

import "encoding/json"

const (
	AuthEndpoint     = "/api/auth"
	CallbackEndpoint = "/api/callback"
	TokenEndpoint    = "/api/token"
	SaveEndpoint     = "/api/save"
)

// ExpiredError is the error value the poll endpoint reports when a relay entry
// outlived its TTL. Clients should restart the OAuth flow when they see it.
const ExpiredError = "expired"

// PollResponse is returned by the token endpoint. Exactly one of the fields is set.
type PollResponse struct {
	Pending bool   `json:"pending,omitempty"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

type SaveRequest struct {
	DatabaseID string `json:"databaseId"`
	Title      string `json:"title"`
	// URL is optional, an empty value clears the database's URL property
	URL   string `json:"url,omitempty"`
	Token string `json:"token"`
}

type SaveResponse struct {
	Success bool   `json:"success"`
	PageID  string `json:"pageId"`
	PageURL string `json:"pageUrl"`
}

// ErrorResponse is the JSON error payload of the token and save endpoints.
// Details carries the upstream error document verbatim when there is one.
type ErrorResponse struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}
