package gate

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// TokenLength is the length (in hex characters) of a verification token.
// Tokens are short enough to fit inside a callback payload while still
// being unguessable within a challenge window. They are an
// anti-automation speed bump, not a security boundary.
const TokenLength = 16

// ErrInvalidOptionSet is returned when a challenge is issued with fewer
// than two options, or with a correct option that is not one of them.
var ErrInvalidOptionSet = errors.New("invalid challenge option set")

// Issue derives verification tokens for one challenge.
// It generates a fresh random salt, never reused across challenges, and
// maps every candidate option to a token derived from (option, salt).
// The second return value is the token for the correct option; it always
// equals exactly one entry of the map.
// The token reveals nothing about which option is correct without already
// knowing the option.
func Issue(options []string, correct string) (map[string]string, string, error) {
	if len(options) < 2 {
		return nil, "", ErrInvalidOptionSet
	}

	saltBytes := make([]byte, 16)
	_, _ = rand.Read(saltBytes)
	salt := hex.EncodeToString(saltBytes)

	tokens := make(map[string]string, len(options))
	expected := ""
	for _, opt := range options {
		tokens[opt] = deriveToken(opt, salt)
		if opt == correct {
			expected = tokens[opt]
		}
	}

	if expected == "" {
		return nil, "", ErrInvalidOptionSet
	}

	return tokens, expected, nil
}

// deriveToken computes the token for a single option under a salt.
func deriveToken(option, salt string) string {
	hasher := sha256.New()
	hasher.Write([]byte(option))
	hasher.Write([]byte(salt))
	return hex.EncodeToString(hasher.Sum(nil))[:TokenLength]
}
