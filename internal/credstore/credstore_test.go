package credstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	m.Run()
}

func TestCanonicalizeURL(t *testing.T) {
	assert.Equal(t, "git:https://github.com", CanonicalizeURL("", "https", "GitHub.com", "", false))
	assert.Equal(t, "git:https://github.com/foo/bar", CanonicalizeURL("", "https", "github.com", "/foo/bar", true))
	assert.Equal(t, "custom:https://github.com", CanonicalizeURL("custom", "https", "github.com", "", false))
}

func TestKeychainBackend_AddGetRemove(t *testing.T) {
	dir := t.TempDir()
	b := NewKeychainBackend(filepath.Join(dir, "index.tsv"))

	require.NoError(t, b.AddOrUpdate(Entry{Service: "git:https://github.com", Account: "alice", Secret: "s3cret"}))

	e, err := b.Get("git:https://github.com", "alice")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", e.Secret)

	entries, err := b.List("git:https://github.com")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, b.Remove("git:https://github.com", "alice"))
	_, err = b.Get("git:https://github.com", "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeychainBackend_SecondStoreReplacesSecret(t *testing.T) {
	dir := t.TempDir()
	b := NewKeychainBackend(filepath.Join(dir, "index.tsv"))

	require.NoError(t, b.AddOrUpdate(Entry{Service: "git:https://github.com", Account: "alice", Secret: "first"}))
	require.NoError(t, b.AddOrUpdate(Entry{Service: "git:https://github.com", Account: "alice", Secret: "second"}))

	e, err := b.Get("git:https://github.com", "alice")
	require.NoError(t, err)
	assert.Equal(t, "second", e.Secret)
}

func TestPlaintextBackend_RequiresOptIn(t *testing.T) {
	_, err := Select(SelectOptions{Kind: BackendPlaintextFile, PlaintextOptIn: false, DataDir: t.TempDir()})
	require.Error(t, err)
}

func TestPlaintextBackend_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	b := NewPlaintextBackend(dir)

	require.NoError(t, b.AddOrUpdate(Entry{Service: "git:https://github.com", Account: "alice", Secret: "s3cret"}))
	e, err := b.Get("git:https://github.com", "alice")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", e.Secret)

	entries, err := b.List("git:")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, b.Remove("git:https://github.com", "alice"))
	_, err = b.Get("git:https://github.com", "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSelect_DefaultsToKeychain(t *testing.T) {
	backend, err := Select(SelectOptions{DataDir: t.TempDir()})
	require.NoError(t, err)
	_, ok := backend.(*KeychainBackend)
	assert.True(t, ok)
}

func TestSelect_UnknownBackendIsFatal(t *testing.T) {
	_, err := Select(SelectOptions{Kind: "gpg", DataDir: t.TempDir()})
	assert.Error(t, err)
}
