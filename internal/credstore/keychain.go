package credstore

import (
	"errors"
	"time"

	"github.com/zalando/go-keyring"
)

// keychainTimeout bounds each OS keychain call: a hung Secret Service /
// keychain daemon must not hang the helper forever.
const keychainTimeout = 3 * time.Second

// KeychainBackend stores one secret string per (service, account) in the
// platform OS keychain via zalando/go-keyring. List is best-effort: the
// underlying library exposes no native prefix-scan, so this backend tracks
// its own account index alongside each service's secrets (see index.go).
type KeychainBackend struct {
	index *accountIndex
}

// NewKeychainBackend returns a Backend over the OS keychain, tracking an
// account index at indexPath (typically alongside the plaintext/encrypted
// store directory) so List can enumerate entries zalando/go-keyring itself
// cannot.
func NewKeychainBackend(indexPath string) *KeychainBackend {
	return &KeychainBackend{index: newAccountIndex(indexPath)}
}

func (b *KeychainBackend) Get(service, account string) (Entry, error) {
	secret, err := withTimeout(func() (string, error) {
		return keyring.Get(service, account)
	})
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return Entry{Service: service, Account: account, Secret: secret}, nil
}

func (b *KeychainBackend) List(servicePrefix string) ([]Entry, error) {
	var out []Entry
	for _, k := range b.index.entriesWithPrefix(servicePrefix) {
		e, err := b.Get(k.Service, k.Account)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (b *KeychainBackend) AddOrUpdate(e Entry) error {
	if _, err := withTimeout(func() (string, error) {
		return "", keyring.Set(e.Service, e.Account, e.Secret)
	}); err != nil {
		return err
	}
	return b.index.add(e.Service, e.Account)
}

func (b *KeychainBackend) Remove(service, account string) error {
	_, err := withTimeout(func() (string, error) {
		return "", keyring.Delete(service, account)
	})
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return b.index.remove(service, account)
}

// withTimeout bounds a keyring call: a goroutine races a timer, and a
// hung backend surfaces as a timeout error rather than blocking forever.
func withTimeout(fn func() (string, error)) (string, error) {
	type result struct {
		val string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.val, r.err
	case <-time.After(keychainTimeout):
		return "", errors.New("timeout while accessing OS keychain")
	}
}
