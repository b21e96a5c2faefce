// Package models contains data structures for the application's domain models.
package models

import (
	"github.com/google/uuid"
)

func newID(current string) string {
	if current != "" {
		return current
	}
	return uuid.NewString()
}
