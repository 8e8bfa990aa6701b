// Package credstore implements the credential store facade bridging
// an in-memory Credential to one of several backends: the OS keychain
// via zalando/go-keyring (with timeouts, so a hung keychain daemon can't
// hang the helper), and an opt-in plaintext file. Entries are keyed by
// "<namespace>:<canonical-url>" service strings.
package credstore

import (
	"fmt"
	"net/url"
	"strings"
)

// Entry is one (service, account) -> secret row.
type Entry struct {
	Service string
	Account string
	Secret  string
}

// Backend is the operation set every concrete store implements.
// go-keyring multiplexes the platform keychains (Secret Service, macOS
// Keychain, Windows Credential Manager) behind one API, so this package
// carries exactly two implementations: KeychainBackend and the opt-in
// PlaintextBackend.
type Backend interface {
	Get(service, account string) (Entry, error)
	List(servicePrefix string) ([]Entry, error)
	AddOrUpdate(e Entry) error
	Remove(service, account string) error
}

// ErrNotFound is returned by Get when no entry matches.
var ErrNotFound = fmt.Errorf("credential not found")

// CanonicalizeURL builds the "service" key: strips fragment and
// query, lowercases the host, and retains the path only when
// useHTTPPath requests path-scoped credentials.
func CanonicalizeURL(namespace, protocol, host, path string, useHTTPPath bool) string {
	if namespace == "" {
		namespace = "git"
	}
	u := url.URL{Scheme: strings.ToLower(protocol), Host: strings.ToLower(host)}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if useHTTPPath && path != "" {
		u.Path = "/" + strings.TrimPrefix(path, "/")
	}
	return namespace + ":" + u.String()
}

// Store is the facade providers and dispatch call; it owns no storage
// itself, only delegates to Backend.
type Store struct {
	backend Backend
}

// New wraps a Backend in the facade.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) Get(service, account string) (Entry, error) {
	return s.backend.Get(service, account)
}

func (s *Store) List(servicePrefix string) ([]Entry, error) {
	return s.backend.List(servicePrefix)
}

func (s *Store) AddOrUpdate(e Entry) error {
	return s.backend.AddOrUpdate(e)
}

func (s *Store) Remove(service, account string) error {
	return s.backend.Remove(service, account)
}
