package domain

import (
	"errors"
	"strings"
)

var (
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrEmptyMessage    = errors.New("empty message")
	ErrHandleGone      = errors.New("connection handle gone")
)

// Identity is the canonical key for a user, independent of how a client
// spelled it on the wire.
type Identity string

// NormalizeIdentity trims surrounding whitespace and folds the raw identity
// to lowercase so every spelling of the same user resolves to one key.
func NormalizeIdentity(raw string) (Identity, error) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", ErrInvalidIdentity
	}
	return Identity(cleaned), nil
}

func (i Identity) String() string {
	return string(i)
}
