// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hermes-search/hermes/internal/platform/sec"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(
		filepath.Join(dir, "users.json"),
		filepath.Join(dir, "tokens.json"),
		"admin", "hunter2",
		3600,
	)
	require.NoError(t, err)
	return store
}

func TestLoginAdminAccount(t *testing.T) {
	store := newTestStore(t)

	identity, err := store.Login("admin", "hunter2")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, sec.RoleAdmin, identity.Role)
}

func TestLoginWrongAdminPasswordFallsThroughToUserStore(t *testing.T) {
	store := newTestStore(t)

	identity, err := store.Login("admin", "wrong")
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestAddUserThenLogin(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddUser("alice", "correct-horse", sec.RoleUser))

	identity, err := store.Login("alice", "correct-horse")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, sec.RoleUser, identity.Role)

	identity, err = store.Login("alice", "wrong-password")
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestAddUserDuplicateConflicts(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddUser("alice", "correct-horse", sec.RoleUser))

	err := store.AddUser("alice", "another-pass", sec.RoleUser)
	assert.Error(t, err)
}

func TestAddUserCannotShadowAdmin(t *testing.T) {
	store := newTestStore(t)
	err := store.AddUser("admin", "whatever", sec.RoleUser)
	assert.Error(t, err)
}

func TestIssueAndVerifyToken(t *testing.T) {
	store := newTestStore(t)

	token, err := store.IssueToken("alice", sec.RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := store.VerifyToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, sec.RoleUser, claims.Role)
}

func TestVerifyUnknownTokenFails(t *testing.T) {
	store := newTestStore(t)
	_, err := store.VerifyToken("does-not-exist")
	assert.Error(t, err)
}

func TestDeleteUserRemovesAccess(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddUser("alice", "correct-horse", sec.RoleUser))
	require.NoError(t, store.DeleteUser("alice"))

	identity, err := store.Login("alice", "correct-horse")
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestDeleteUnknownUserIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.DeleteUser("ghost"))
}

func TestListUsersExcludesAdmin(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddUser("alice", "correct-horse", sec.RoleUser))

	users, err := store.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestChangePasswordUpdatesHash(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddUser("alice", "correct-horse", sec.RoleUser))
	require.NoError(t, store.ChangePassword("alice", "new-password"))

	identity, err := store.Login("alice", "correct-horse")
	require.NoError(t, err)
	assert.Nil(t, identity)

	identity, err = store.Login("alice", "new-password")
	require.NoError(t, err)
	require.NotNil(t, identity)
}

func TestChangePasswordUnknownUserFails(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.ChangePassword("ghost", "whatever123"))
}
