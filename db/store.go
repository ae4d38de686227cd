package db

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"setsplit-server-go/models"
)

// ErrResultNotFound is returned when no result exists for an ID.
var ErrResultNotFound = errors.New("result not found")

// Store persists processed uploads so they can be downloaded later.
type Store interface {
	Save(ctx context.Context, result *models.Result) error
	Get(ctx context.Context, id string) (*models.Result, error)
	Ping(ctx context.Context) error
}

// NewResultID returns an opaque handle for a new result: a random UUID in
// hex without dashes.
func NewResultID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// MemoryStore keeps results in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]models.Result
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]models.Result)}
}

// Save stores a copy of result under result.ID
func (s *MemoryStore) Save(_ context.Context, result *models.Result) error {
	if result == nil || result.ID == "" {
		return errors.New("result ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ID] = *result
	return nil
}

// Get returns the result stored under id
func (s *MemoryStore) Get(_ context.Context, id string) (*models.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, ErrResultNotFound
	}
	return &r, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error { return nil }
