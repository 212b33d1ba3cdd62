// internal/adapters/db/errors.go
package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

const pgUniqueViolation = "23505"

// conflictMessages maps unique indexes onto caller-facing messages
var conflictMessages = map[string]string{
	"products_ean_code_key": "Product with this EAN code already exists",
	"users_email_key":       "User already exists",
	"users_pkey":            "User already exists",
	"products_pkey":         "Product already exists",
}

// translateError turns a unique violation into a ConflictError and leaves
// everything else untouched.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	if msg, ok := conflictMessages[pgErr.ConstraintName]; ok {
		return &domain.ConflictError{Message: msg}
	}
	return &domain.ConflictError{Message: "Record already exists"}
}
