// internal/adapters/db/user_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

const userColumns = `id, email, password_hash, name, role, permissions, token, created_at, updated_at`

// userRepository implements ports.UserRepository
type userRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *Database, logger *slog.Logger) ports.UserRepository {
	return &userRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "user")),
	}
}

func scanUser(row scanner) (*domain.User, error) {
	u := &domain.User{}
	var role string
	var perms []string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &perms, &u.Token,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Permissions = domain.PermissionSetFromStrings(perms)
	return u, nil
}

// Save inserts a new user
func (r *userRepository) Save(ctx context.Context, u *domain.User) error {
	u.PrepareForStorage()

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.PasswordHash, u.Name, string(u.Role), u.Permissions.Strings(), u.Token,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", translateError(err))
	}

	r.logger.DebugContext(ctx, "user saved",
		slog.String("user_id", u.ID.String()),
		slog.String("role", string(u.Role)))
	return nil
}

// Update rewrites every mutable column
func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now()

	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			email = $2, password_hash = $3, name = $4, role = $5, permissions = $6, token = $7, updated_at = $8
		WHERE id = $1`,
		u.ID, u.Email, u.PasswordHash, u.Name, string(u.Role), u.Permissions.Strings(), u.Token, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "User", ID: u.ID.String()}
	}
	return nil
}

// FindByID returns (nil, nil) when no user matches
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

// FindByEmail matches case-insensitively and returns (nil, nil) when absent
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return u, nil
}

// List returns users, optionally restricted to one role
func (r *userRepository) List(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	qb := psql.Select(userColumns).From("users").OrderBy("created_at DESC", "id")
	if role != "" {
		qb = qb.Where("role = ?", string(role))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	users, err := ScanMany(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, nil
}

// Delete reports whether a row was removed
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	r.logger.InfoContext(ctx, "user deleted", slog.String("user_id", id.String()))
	return true, nil
}
