package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cardbattle/battle-server-go/internal/auth"
)

const uniqueViolation = "23505"

// AccountRepository implements auth.Store.
type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) CreateAccount(ctx context.Context, name string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO accounts (name, password_hash) VALUES ($1, $2) RETURNING id`,
		name, passwordHash,
	).Scan(&id)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return 0, auth.ErrAccountExists
	}
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return id, nil
}

func (r *AccountRepository) AccountByName(ctx context.Context, name string) (auth.Account, error) {
	var acct auth.Account
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name, password_hash, created_at FROM accounts WHERE lower(name) = lower($1)`,
		name,
	).Scan(&acct.ID, &acct.Name, &acct.PasswordHash, &acct.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Account{}, auth.ErrAccountNotFound
	}
	if err != nil {
		return auth.Account{}, fmt.Errorf("select account: %w", err)
	}
	return acct, nil
}
