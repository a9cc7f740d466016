package identity

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"workshop/internal/api"
)

type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Role         api.Role `json:"role"`
	PasswordHash string   `json:"-"`
	Active       bool     `json:"active"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
SELECT id, email, name, role, password_hash, active
FROM users
WHERE email = $1
`
	u := &User{}
	if err := r.db.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.Active,
	); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	const q = `
SELECT id, email, name, role, password_hash, active
FROM users
WHERE id = $1
`
	u := &User{}
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.Active,
	); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) CreateSession(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	const q = `
INSERT INTO sessions (jti, user_id, expires_at)
VALUES ($1, $2, $3)
`
	_, err := r.db.Exec(ctx, q, jti, userID, expiresAt)
	return err
}

// SessionLive reports whether the session exists, is unrevoked, and is
// unexpired at now.
func (r *Repository) SessionLive(ctx context.Context, jti string, now time.Time) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM sessions
  WHERE jti = $1 AND revoked_at IS NULL AND expires_at > $2
)
`
	var live bool
	if err := r.db.QueryRow(ctx, q, jti, now).Scan(&live); err != nil {
		return false, err
	}
	return live, nil
}

func (r *Repository) RevokeSession(ctx context.Context, jti string) error {
	const q = `
UPDATE sessions
SET revoked_at = NOW()
WHERE jti = $1 AND revoked_at IS NULL
`
	_, err := r.db.Exec(ctx, q, jti)
	return err
}
