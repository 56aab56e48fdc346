package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// opaqueBytes is the entropy of every generated credential. 32 bytes keeps a
// comfortable margin above the 128-bit minimum for unguessable tokens.
const opaqueBytes = 32

// Generator produces opaque credentials for codes, access tokens and refresh
// tokens from a cryptographically secure random source
type Generator struct{}

// NewGenerator creates a new Generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Opaque returns a URL-safe random credential
func (g *Generator) Opaque() (string, error) {
	buf := make([]byte, opaqueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
