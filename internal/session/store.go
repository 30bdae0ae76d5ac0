package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Store хранит сессии. Реализации возвращают копии: изменения вне Save не видны другим.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MemoryStore - Store в памяти процесса на go-cache. Сессии истекают через ttl после последнего Save.
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemoryStore создаёт хранилище. cleanupInterval <= 0 отключает фоновую очистку
// (просроченные записи всё равно не возвращаются из Get).
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s == nil || s.ID == uuid.Nil {
		return fmt.Errorf("cannot save session without id")
	}
	m.cache.Set(s.ID.String(), s.Clone(), m.ttl)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	v, ok := m.cache.Get(id.String())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return v.(*Session).Clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.cache.Delete(id.String())
	return nil
}

// Count - число сессий в кэше, включая просроченные, но ещё не очищенные.
func (m *MemoryStore) Count() int {
	return m.cache.ItemCount()
}
