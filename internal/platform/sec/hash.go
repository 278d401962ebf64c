// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// # Password Security (Salted SHA-256)
//
// The user/token store backing this service is a plain JSON file (see
// internal/auth), not a database with its own at-rest encryption, so the
// hashing scheme matches what that store's format already commits to:
// a random hex salt stored alongside a hex SHA-256 digest of "salt:password".

// GenerateSalt returns a new random 8-byte hex salt, matching the width used
// by the on-disk user store.
func GenerateSalt() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("sec: failed to generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword hashes a plain-text password with the given salt, returning
// the hex-encoded SHA-256 digest of "salt:password".
func HashPassword(plainTextPassword, salt string) string {
	payload := salt + ":" + plainTextPassword
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// CheckPasswordHash compares a plain-text password against a previously
// stored salt/hash pair.
func CheckPasswordHash(plainTextPassword, salt, existingHash string) bool {
	return HashPassword(plainTextPassword, salt) == existingHash
}

// # Token Security (CSPRNG)

// GenerateSecureToken creates a cryptographically secure random hex token of
// the given byte length (the on-disk auth store uses 24 bytes / 48 hex chars).
func GenerateSecureToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("sec: failed to generate random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
