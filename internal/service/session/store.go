package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/audiolens/backend/internal/model/audio"
)

var ErrNoUpload = errors.New("no file uploaded yet")

// DefaultKey is used when the client does not identify itself.
const DefaultKey = "latest"

// Store maps a client key to its most recently uploaded audio reference.
// Writes are last-write-wins per key: concurrent uploads under the same key
// race and only the newest reference is visible to later stream triggers.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	ref       audio.Reference
	updatedAt time.Time
}

// NewStore bootstraps the in-memory upload registry.
func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Put records the latest upload for a client key.
func (s *Store) Put(_ context.Context, key string, ref audio.Reference) {
	key = normalizeKey(key)

	s.mu.Lock()
	s.entries[key] = entry{ref: ref, updatedAt: time.Now().UTC()}
	s.mu.Unlock()
}

// Latest returns the current upload for a client key.
func (s *Store) Latest(_ context.Context, key string) (audio.Reference, error) {
	key = normalizeKey(key)

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.entries[key]
	if !ok {
		return audio.Reference{}, ErrNoUpload
	}
	return item.ref, nil
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return DefaultKey
	}
	return key
}
