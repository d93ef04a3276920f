// Package auth registers accounts and checks their passwords.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// ErrAccountExists is returned when a name is already registered.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound is returned by stores for an unknown name.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials hides whether the name or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidUsername and ErrWeakPassword reject a registration form.
	ErrInvalidUsername = errors.New("invalid username")
	ErrWeakPassword    = errors.New("password too weak")
)

// Account is a registered player.
type Account struct {
	ID           int64
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Store persists accounts.
type Store interface {
	CreateAccount(ctx context.Context, name string, passwordHash []byte) (int64, error)
	AccountByName(ctx context.Context, name string) (Account, error)
}

// MemoryStore keeps accounts in process memory. Ids start at 1.
type MemoryStore struct {
	mu     sync.RWMutex
	byName map[string]Account
	nextID int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byName: make(map[string]Account), nextID: 1}
}

func (s *MemoryStore) CreateAccount(_ context.Context, name string, passwordHash []byte) (int64, error) {
	key := strings.ToLower(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[key]; ok {
		return 0, ErrAccountExists
	}
	id := s.nextID
	s.nextID++
	s.byName[key] = Account{ID: id, Name: name, PasswordHash: passwordHash, CreatedAt: time.Now()}
	return id, nil
}

func (s *MemoryStore) AccountByName(_ context.Context, name string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}
