package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrViewStateNotFound = errors.New("view state not found")

// ViewStateRepository persists per-session screen state between requests.
// Values are stored as JSON and expire after the repository's TTL.
type ViewStateRepository interface {
	Load(ctx context.Context, key string, dst interface{}) error
	Save(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// SelectorKey names the purchase panel state of a session for a product
func SelectorKey(subject string, productID int64) string {
	return fmt.Sprintf("selector:%s:%d", subject, productID)
}

// QnaKey names the Q&A detail state of a session for a question
func QnaKey(subject string, qnaID int64) string {
	return fmt.Sprintf("qna:%s:%d", subject, qnaID)
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

type memoryViewStateRepository struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryViewStateRepository creates an in-process ViewStateRepository
func NewMemoryViewStateRepository(ttl time.Duration) ViewStateRepository {
	return &memoryViewStateRepository{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Load decodes the state stored under key into dst
func (r *memoryViewStateRepository) Load(ctx context.Context, key string, dst interface{}) error {
	r.mu.RLock()
	entry, ok := r.entries[key]
	r.mu.RUnlock()

	if !ok || r.expired(entry) {
		return ErrViewStateNotFound
	}
	if err := json.Unmarshal(entry.payload, dst); err != nil {
		return fmt.Errorf("failed to decode view state: %w", err)
	}
	return nil
}

// Save stores value under key, replacing any previous state
func (r *memoryViewStateRepository) Save(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode view state: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[key] = memoryEntry{payload: payload, expiresAt: r.now().Add(r.ttl)}
	r.sweepLocked()
	return nil
}

// Delete removes the state stored under key
func (r *memoryViewStateRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, key)
	return nil
}

func (r *memoryViewStateRepository) expired(e memoryEntry) bool {
	return r.ttl > 0 && !r.now().Before(e.expiresAt)
}

func (r *memoryViewStateRepository) sweepLocked() {
	for key, entry := range r.entries {
		if r.expired(entry) {
			delete(r.entries, key)
		}
	}
}
