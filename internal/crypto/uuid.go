package crypto

import (
	"github.com/google/uuid"
)

// NewMessageID generates a random (v4) UUID in canonical hyphenated form.
func NewMessageID() string {
	return uuid.New().String()
}
