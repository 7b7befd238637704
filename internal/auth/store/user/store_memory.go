// Package user provides user persistence for the reference app.
//
// Error Contract: all Find methods return sentinel.ErrNotFound when no user
// matches; Save returns sentinel.ErrConflict on a duplicate email.
package user

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"riskgate/internal/auth/models"
	"riskgate/internal/sentinel"
)

// MemoryStore is an in-memory user store guarded by a RWMutex. The risk
// middleware itself keeps no cross-request state; this store exists so the
// reference app has somewhere to put accounts.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
}

// NewMemoryStore creates an empty user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

// Save inserts or updates a user. Emails are unique, case-insensitive.
func (s *MemoryStore) Save(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalize(u.Email)
	if existingID, ok := s.byEmail[key]; ok && existingID != u.ID {
		return sentinel.ErrConflict
	}

	// drop a stale email index entry on email change
	if old, ok := s.byID[u.ID]; ok && normalize(old.Email) != key {
		delete(s.byEmail, normalize(old.Email))
	}

	cp := *u
	s.byID[u.ID] = &cp
	s.byEmail[key] = u.ID
	return nil
}

// FindByID returns the user with the given ID.
func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// FindByEmail returns the user with the given email, case-insensitively.
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalize(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

// Delete removes a user. Deleting an unknown user is a no-op.
func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.byID[id]; ok {
		delete(s.byEmail, normalize(u.Email))
		delete(s.byID, id)
	}
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
