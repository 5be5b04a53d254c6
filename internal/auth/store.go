package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserNotFound is returned by stores when no user matches the lookup.
var ErrUserNotFound = errors.New("auth: user not found")

// UserRecord is a persisted user including its password hash.
type UserRecord struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store persists user accounts.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, id string) (UserRecord, error)
}

const userColumns = `id::text, name, email, password_hash, created_at, updated_at`

// PGStore is the Postgres implementation of Store.
type PGStore struct {
	Pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

func (s *PGStore) CreateUser(ctx context.Context, name, email, passwordHash string) (UserRecord, error) {
	row := s.Pool.QueryRow(ctx, `INSERT INTO users (name, email, password_hash)
VALUES ($1, $2, $3)
RETURNING `+userColumns, name, email, passwordHash)
	return scanUser(row)
}

func (s *PGStore) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (s *PGStore) GetUserByID(ctx context.Context, id string) (UserRecord, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (UserRecord, error) {
	var u UserRecord
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, err
	}
	return u, nil
}
