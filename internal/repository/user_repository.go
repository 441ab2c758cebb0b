package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nade-api/internal/models"
)

const userColumns = `id, email, password_hash, name, role, reset_password_token, reset_password_expires, created_at, updated_at`

// UserRepository stores staff accounts in Postgres.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// List returns every user, newest first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, "find user by id", `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id)
}

// FindByEmail returns a user by (already normalised) email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, "find user by email", `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email)
}

// FindByResetToken returns the user owning an unexpired reset token hash.
func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return r.get(ctx, "find user by reset token",
		`SELECT `+userColumns+` FROM users WHERE reset_password_token = $1 AND reset_password_expires > $2 LIMIT 1`, tokenHash, now)
}

func (r *UserRepository) get(ctx context.Context, op, q string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// CountByRole counts users holding role.
func (r *UserRepository) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = $1`, role); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return n, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	const q = `INSERT INTO users (id, email, password_hash, name, role, created_at, updated_at) VALUES (:id, :email, :password_hash, :name, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, user); err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

// Update writes name, email and role.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const q = `UPDATE users SET name = :name, email = :email, role = :role, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, q, user)
	if err != nil {
		return fmt.Errorf("update user: %w", translate(err))
	}
	return requireAffected(res, "update user")
}

// UpdatePassword replaces the hash and clears any pending reset token.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const q = `UPDATE users SET password_hash = $2, reset_password_token = NULL, reset_password_expires = NULL, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res, "update password")
}

// SetResetToken stores the hash of a reset token and its expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	const q = `UPDATE users SET reset_password_token = $2, reset_password_expires = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, tokenHash, expires, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return requireAffected(res, "set reset token")
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res, "delete user")
}
