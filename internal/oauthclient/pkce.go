// Package oauthclient implements the authorization-code-with-PKCE,
// device-code, and refresh OAuth 2.0 flows providers drive to acquire
// access tokens. Token exchange follows the RFC 6749 wire format;
// github.com/pkg/browser opens the user's default browser.
package oauthclient

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// GenerateVerifier returns a PKCE code_verifier per RFC 7636: 43-128
// URL-safe characters. We generate 64 random bytes and base64url-encode
// them (no padding), which yields 86 characters, comfortably within
// bounds.
func GenerateVerifier() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating PKCE verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Challenge computes code_challenge = BASE64URL(SHA-256(verifier)), with
// no padding, per RFC 7636's S256 method.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateNonce returns cryptographically random, URL-safe nonce/state
// material with at least 128 bits of entropy: 32
// random bytes base64url-encoded.
func GenerateNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
