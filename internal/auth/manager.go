package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minNameLength     = 3
	maxNameLength     = 32
	minPasswordLength = 6
)

// Manager registers and authenticates accounts.
type Manager struct {
	store  Store
	cost   int
	logger *zap.Logger
}

// NewManager creates a manager. A cost outside bcrypt's range falls back to the default.
func NewManager(store Store, cost int, logger *zap.Logger) *Manager {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Manager{store: store, cost: cost, logger: logger}
}

// Register creates an account and returns its id.
func (m *Manager) Register(ctx context.Context, name, password string) (int64, error) {
	name = strings.TrimSpace(name)
	if len(name) < minNameLength || len(name) > maxNameLength {
		return 0, fmt.Errorf("%w: must be %d-%d characters", ErrInvalidUsername, minNameLength, maxNameLength)
	}
	if len(password) < minPasswordLength {
		return 0, fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := m.store.CreateAccount(ctx, name, hash)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}

	m.logger.Info("account registered", zap.String("username", name), zap.Int64("account_id", id))
	return id, nil
}

// Authenticate checks a name and password.
func (m *Manager) Authenticate(ctx context.Context, name, password string) (Account, error) {
	acct, err := m.store.AccountByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, ErrAccountNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, fmt.Errorf("load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		m.logger.Debug("password mismatch", zap.String("username", acct.Name))
		return Account{}, ErrInvalidCredentials
	}
	return acct, nil
}
