package storage

import "time"

// RelayStore holds access tokens between the OAuth callback and the client's poll.
// Implementations must make Take an atomic read-and-delete.
type RelayStore interface {
	Put(key, token string) error
	Take(key string) (TakeResult, error)
	Len() int
}

type TakeStatus int

const (
	// Pending means no token has been stored for the key (yet).
	Pending TakeStatus = iota
	Expired
	Found
)

func (s TakeStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Expired:
		return "expired"
	case Found:
		return "found"
	}
	return "unknown"
}

type TakeResult struct {
	Status TakeStatus
	// Token is only set when Status is Found
	Token string
}

type TokenEntry struct {
	Token     string
	CreatedAt time.Time
}

// DefaultTTL is how long an unread token may wait for its poll.
const DefaultTTL = 5 * time.Minute
