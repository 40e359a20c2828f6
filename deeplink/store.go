package deeplink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// StorageKey is the fixed key the pending invite payload lives under.
const StorageKey = "drynks.pendingInvite"

// ErrMalformedPayload is returned by LoadPending when the stored value cannot be used.
var ErrMalformedPayload = errors.New("malformed pending invite payload")

// KeyValueStore is durable local storage that survives the authentication flow.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SavePending overwrites the stored payload with p.
func SavePending(ctx context.Context, store KeyValueStore, p Payload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending invite: %w", err)
	}
	return store.Set(ctx, StorageKey, string(b))
}

// LoadPending returns the stored payload. It reports false when nothing is stored.
func LoadPending(ctx context.Context, store KeyValueStore) (Payload, bool, error) {
	raw, ok, err := store.Get(ctx, StorageKey)
	if err != nil {
		return Payload{}, false, err
	}
	if !ok {
		return Payload{}, false, nil
	}
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, false, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	p.Code = strings.TrimSpace(p.Code)
	if p.Code == "" {
		return Payload{}, false, ErrMalformedPayload
	}
	return p, true, nil
}

// ClearPending removes the stored payload.
func ClearPending(ctx context.Context, store KeyValueStore) error {
	return store.Delete(ctx, StorageKey)
}

// MemoryStore is a KeyValueStore that lives as long as the process.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
