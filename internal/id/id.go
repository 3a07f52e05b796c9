// Package id generates the prefixed identifiers used for every entity:
// "recipe-", "tag-", "ingredient-", "user-", "session-". The prefix makes
// an ID self-describing in logs and API payloads; the random part is a
// 21-character URL-safe NanoID.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate returns a new ID of the form "<prefix>-<nanoid>",
// e.g. "recipe-V1StGXR8_Z5jdHi6B-myT".
// It fails only when the system cannot supply secure randomness.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is Generate for call sites that cannot return an error,
// such as test fixtures. It panics if randomness is unavailable.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
