package credstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// accountKey identifies one keychain row without its secret.
type accountKey struct {
	Service string
	Account string
}

// accountIndex is a small newline-delimited "service\taccount" file that
// lets KeychainBackend.List enumerate entries, since neither
// zalando/go-keyring nor the underlying platform APIs expose a prefix scan
// across all three of its backends uniformly. Writes go through the same
// temp-file-then-rename pattern as internal/inistore, under an advisory
// flock, so a concurrent `get` and `store` never corrupt the index.
type accountIndex struct {
	path string
}

func newAccountIndex(path string) *accountIndex {
	return &accountIndex{path: path}
}

func (idx *accountIndex) load() ([]accountKey, error) {
	data, err := os.ReadFile(idx.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var keys []accountKey
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		keys = append(keys, accountKey{Service: parts[0], Account: parts[1]})
	}
	return keys, nil
}

func (idx *accountIndex) save(keys []accountKey) error {
	dir := filepath.Dir(idx.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s\t%s\n", k.Service, k.Account)
	}

	tmp, err := os.CreateTemp(dir, ".gitcredcore-idx-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	tmp.Close()
	return os.Rename(tmpName, idx.path)
}

func (idx *accountIndex) withLock(fn func() error) error {
	fl := flock.New(idx.path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquiring account index lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("timed out acquiring account index lock for %s", idx.path)
	}
	defer fl.Unlock()
	return fn()
}

func (idx *accountIndex) add(service, account string) error {
	return idx.withLock(func() error {
		keys, err := idx.load()
		if err != nil {
			return err
		}
		for _, k := range keys {
			if k.Service == service && k.Account == account {
				return nil
			}
		}
		keys = append(keys, accountKey{Service: service, Account: account})
		return idx.save(keys)
	})
}

func (idx *accountIndex) remove(service, account string) error {
	return idx.withLock(func() error {
		keys, err := idx.load()
		if err != nil {
			return err
		}
		out := keys[:0]
		for _, k := range keys {
			if k.Service == service && k.Account == account {
				continue
			}
			out = append(out, k)
		}
		return idx.save(out)
	})
}

func (idx *accountIndex) entriesWithPrefix(prefix string) []accountKey {
	keys, err := idx.load()
	if err != nil {
		return nil
	}
	var out []accountKey
	for _, k := range keys {
		if strings.HasPrefix(k.Service, prefix) {
			out = append(out, k)
		}
	}
	return out
}
