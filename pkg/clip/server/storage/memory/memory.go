package memory

import (
	"sync"
	"time"

	"github.com/jr0d/notion-clip/pkg/clip/server/storage"
)

type MemRelayStorage struct {
	storage map[string]storage.TokenEntry
	mutex   sync.Mutex
	ttl     time.Duration

	// Now is the clock used for entry timestamps and expiry checks.
	Now func() time.Time
}

var _ storage.RelayStore = &MemRelayStorage{}

func New(ttl time.Duration) *MemRelayStorage {
	if ttl <= 0 {
		ttl = storage.DefaultTTL
	}
	return &MemRelayStorage{
		storage: make(map[string]storage.TokenEntry),
		ttl:     ttl,
		Now:     time.Now,
	}
}

func (ts *MemRelayStorage) Put(key, token string) error {
	et := storage.TokenEntry{
		Token:     token,
		CreatedAt: ts.Now(),
	}
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	ts.storage[key] = et
	return nil
}

func (ts *MemRelayStorage) Take(key string) (storage.TakeResult, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	et, ok := ts.storage[key]
	if !ok {
		return storage.TakeResult{Status: storage.Pending}, nil
	}
	delete(ts.storage, key)

	if ts.Now().Sub(et.CreatedAt) > ts.ttl {
		return storage.TakeResult{Status: storage.Expired}, nil
	}
	return storage.TakeResult{Status: storage.Found, Token: et.Token}, nil
}

func (ts *MemRelayStorage) Len() int {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	return len(ts.storage)
}
