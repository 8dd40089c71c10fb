package domain

import (
	"github.com/google/uuid"
)

// NewID generates a UUIDv7 string. Used for session tokens and request IDs.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
