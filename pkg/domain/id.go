package domain

import "github.com/google/uuid"

// NewID returns a fresh random (version 4) UUID string.
func NewID() string {
	return uuid.NewString()
}
