// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the JSON-file backed user and bearer-token store:
a single configured admin account plus an on-disk list of additional users,
authenticated with salted SHA-256 password hashes and opaque, server-held
tokens pruned by TTL. There is no JWT, no session cookie, and no database
table backing any of this — the whole store is two small JSON files guarded
by a mutex, matching what the reference implementation already persists.
*/
package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hermes-search/hermes/internal/platform/apperr"
	"github.com/hermes-search/hermes/internal/platform/sec"
)

// User is one entry in the on-disk user list. The configured admin account
// never appears here; it is checked against AdminUser/AdminPassword first.
type User struct {
	Username     string       `json:"username"`
	Role         sec.UserRole `json:"role"`
	Salt         string       `json:"salt"`
	PasswordHash string       `json:"password_hash"`
}

// Public is the user shape safe to hand back to callers: no salt, no hash.
type Public struct {
	Username string       `json:"username"`
	Role     sec.UserRole `json:"role"`
}

type userFile struct {
	Users []User `json:"users"`
}

// tokenEntry is one issued bearer token's metadata.
type tokenEntry struct {
	Username string       `json:"username"`
	Role     sec.UserRole `json:"role"`
	IssuedAt int64        `json:"issued_at"`
}

type tokenFile struct {
	Tokens map[string]tokenEntry `json:"tokens"`
}

// Store is the JSON-file user/token store. Every method is safe for
// concurrent use; each read-modify-write of either file holds the same
// mutex for its full duration, mirroring the reference store's single
// process-wide lock rather than locking per file.
type Store struct {
	mu sync.Mutex

	userStorePath  string
	tokenStorePath string
	adminUser      string
	adminPassword  string
	tokenTTL       time.Duration
}

// NewStore constructs a Store and ensures both backing files exist.
func NewStore(userStorePath, tokenStorePath, adminUser, adminPassword string, tokenTTLSeconds int) (*Store, error) {
	if tokenTTLSeconds <= 0 {
		tokenTTLSeconds = 86400
	}
	s := &Store{
		userStorePath:  userStorePath,
		tokenStorePath: tokenStorePath,
		adminUser:      adminUser,
		adminPassword:  adminPassword,
		tokenTTL:       time.Duration(tokenTTLSeconds) * time.Second,
	}
	if err := s.ensureFile(userStorePath, userFile{Users: []User{}}); err != nil {
		return nil, err
	}
	if err := s.ensureFile(tokenStorePath, tokenFile{Tokens: map[string]tokenEntry{}}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureFile(path string, empty any) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return writeJSON(path, empty)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (s *Store) loadUsers() (userFile, error) {
	var uf userFile
	data, err := os.ReadFile(s.userStorePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return userFile{Users: []User{}}, nil
		}
		return uf, err
	}
	if err := json.Unmarshal(data, &uf); err != nil {
		return uf, err
	}
	return uf, nil
}

func (s *Store) loadTokens() (tokenFile, error) {
	var tf tokenFile
	data, err := os.ReadFile(s.tokenStorePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tokenFile{Tokens: map[string]tokenEntry{}}, nil
		}
		return tf, err
	}
	if err := json.Unmarshal(data, &tf); err != nil {
		return tf, err
	}
	if tf.Tokens == nil {
		tf.Tokens = map[string]tokenEntry{}
	}
	return tf, nil
}

// pruneExpired drops every token older than the configured TTL, mutating tf
// in place. Called under s.mu with a freshly loaded token file.
func (s *Store) pruneExpired(tf *tokenFile, now time.Time) {
	cutoff := now.Add(-s.tokenTTL).Unix()
	for token, entry := range tf.Tokens {
		if entry.IssuedAt < cutoff {
			delete(tf.Tokens, token)
		}
	}
}

// Login checks username/password against the configured admin account first,
// then the on-disk user list, returning the authenticated identity or nil if
// no match is found.
func (s *Store) Login(username, password string) (*Public, error) {
	if username == s.adminUser && s.adminUser != "" && password == s.adminPassword {
		return &Public{Username: username, Role: sec.RoleAdmin}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uf, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range uf.Users {
		if u.Username != username {
			continue
		}
		if sec.CheckPasswordHash(password, u.Salt, u.PasswordHash) {
			return &Public{Username: u.Username, Role: u.Role}, nil
		}
		return nil, nil
	}
	return nil, nil
}

// IssueToken mints a new opaque bearer token for an already-authenticated
// identity and persists it, pruning expired tokens in the same pass.
func (s *Store) IssueToken(username string, role sec.UserRole) (string, error) {
	token, err := sec.GenerateSecureToken(24)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tf, err := s.loadTokens()
	if err != nil {
		return "", err
	}
	s.pruneExpired(&tf, time.Now())
	tf.Tokens[token] = tokenEntry{Username: username, Role: role, IssuedAt: time.Now().Unix()}
	if err := writeJSON(s.tokenStorePath, tf); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyToken resolves a bearer token to its claims, satisfying
// internal/platform/middleware.TokenVerifier. An expired or unknown token
// reports an error rather than nil claims, matching the interface's
// (claims, error) contract.
func (s *Store) VerifyToken(token string) (*sec.AuthClaims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tf, err := s.loadTokens()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s.pruneExpired(&tf, now)

	entry, ok := tf.Tokens[token]
	if !ok {
		return nil, apperr.Unauthorized("invalid or expired token")
	}

	// Persist the pruned set so expired tokens don't accumulate forever.
	if err := writeJSON(s.tokenStorePath, tf); err != nil {
		return nil, err
	}

	return &sec.AuthClaims{UserID: entry.Username, Username: entry.Username, Role: entry.Role}, nil
}

// ListUsers returns every on-disk user (never the configured admin account,
// which has no file entry of its own).
func (s *Store) ListUsers() ([]Public, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uf, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	out := make([]Public, len(uf.Users))
	for i, u := range uf.Users {
		out[i] = Public{Username: u.Username, Role: u.Role}
	}
	return out, nil
}

// AddUser creates a new on-disk user with a freshly generated salt, failing
// with apperr.Conflict if the username is already taken (by a file user or
// by the configured admin account).
func (s *Store) AddUser(username, password string, role sec.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if username == s.adminUser {
		return apperr.Conflict("user already exists")
	}

	uf, err := s.loadUsers()
	if err != nil {
		return err
	}
	for _, u := range uf.Users {
		if u.Username == username {
			return apperr.Conflict("user already exists")
		}
	}

	salt, err := sec.GenerateSalt()
	if err != nil {
		return err
	}
	uf.Users = append(uf.Users, User{
		Username:     username,
		Role:         role,
		Salt:         salt,
		PasswordHash: sec.HashPassword(password, salt),
	})
	return writeJSON(s.userStorePath, uf)
}

// DeleteUser removes a user from the on-disk list. Deleting an unknown
// username is a no-op, matching the reference store.
func (s *Store) DeleteUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uf, err := s.loadUsers()
	if err != nil {
		return err
	}
	kept := uf.Users[:0]
	for _, u := range uf.Users {
		if u.Username != username {
			kept = append(kept, u)
		}
	}
	uf.Users = kept
	return writeJSON(s.userStorePath, uf)
}

// ChangePassword rewrites a user's salt and password hash in place. Returns
// apperr.NotFound if the username has no on-disk entry (the admin account's
// password is configuration, not a store mutation).
func (s *Store) ChangePassword(username, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uf, err := s.loadUsers()
	if err != nil {
		return err
	}
	for i, u := range uf.Users {
		if u.Username != username {
			continue
		}
		salt, err := sec.GenerateSalt()
		if err != nil {
			return err
		}
		uf.Users[i].Salt = salt
		uf.Users[i].PasswordHash = sec.HashPassword(newPassword, salt)
		return writeJSON(s.userStorePath, uf)
	}
	return apperr.NotFound("User")
}
