// Package flash keeps one-shot notices between a form POST and the page the
// browser is redirected to.
package flash

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultTTL      = 10 * time.Minute
	defaultCapacity = 10000
)

// Messages is what one request leaves for the next one.
type Messages struct {
	Errors   []string `json:"errors,omitempty"`
	Messages []string `json:"messages,omitempty"`
}

func (m Messages) Empty() bool {
	return len(m.Errors) == 0 && len(m.Messages) == 0
}

// Merge appends other after m.
func (m Messages) Merge(other Messages) Messages {
	return Messages{
		Errors:   append(append([]string(nil), m.Errors...), other.Errors...),
		Messages: append(append([]string(nil), m.Messages...), other.Messages...),
	}
}

// Store holds messages per browser until they are read once.
type Store interface {
	Put(ctx context.Context, key string, msgs Messages) error
	// Take returns and forgets the messages stored under key.
	Take(ctx context.Context, key string) (Messages, error)
}

type memoryStore struct {
	mu    sync.Mutex
	items *expirable.LRU[string, Messages]
}

// NewMemoryStore keeps messages in process. Entries expire after ttl and the
// least recently used ones are evicted beyond capacity.
func NewMemoryStore(capacity int, ttl time.Duration) Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &memoryStore{items: expirable.NewLRU[string, Messages](capacity, nil, ttl)}
}

func (s *memoryStore) Put(_ context.Context, key string, msgs Messages) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items.Get(key); ok {
		msgs = existing.Merge(msgs)
	}
	s.items.Add(key, msgs)
	return nil
}

func (s *memoryStore) Take(_ context.Context, key string) (Messages, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, ok := s.items.Get(key)
	if !ok {
		return Messages{}, nil
	}
	s.items.Remove(key)
	return msgs, nil
}
