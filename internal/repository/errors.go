// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrConstraintViolation reports that a write was rejected by a uniqueness constraint.
// Callers that race on the same key recover from it by re-reading.
var ErrConstraintViolation = errors.New("unique constraint violation")

// ErrUnknownCategory is returned when a game references a category that does not exist.
var ErrUnknownCategory = errors.New("unknown category")

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err came from a UNIQUE or primary key constraint,
// whether or not the driver error was translated by GORM.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConstraintViolation) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// classifyWriteError maps uniqueness failures to ErrConstraintViolation and
// passes every other error through unchanged.
func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return errors.Join(ErrConstraintViolation, err)
	}
	return err
}
