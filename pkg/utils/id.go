package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random UUIDv4 string.
func NewID() string { return uuid.NewString() }

// FirstWord returns the first whitespace separated token of s, or fallback.
func FirstWord(s, fallback string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return fallback
}
