// Package inistore implements a transactional INI store backing the
// Azure Repos authority/user cache. Every mutation is reload, mutate,
// commit; commit serializes to a sibling temp file, fsyncs it, then renames
// over the target, so a crash never leaves a partially-written file.
// Commit's write and rename run under a gofrs/flock advisory lock; Reload
// and the in-memory mutation are not locked, so overlapping processes can
// lose an update but never leave a torn file. The file is a single
// implicit section of dotted keys, parsed with gopkg.in/ini.v1.
package inistore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/ini.v1"
)

// Store is a reload/mutate/commit transactional key/value store over a
// single implicit INI section with dotted keys.
type Store struct {
	path string

	// working is the in-memory copy mutated by Set/Remove between a
	// reload and a commit.
	working map[string]string
}

// New returns a Store bound to path. Call Reload before first use.
func New(path string) *Store {
	return &Store{path: path, working: map[string]string{}}
}

// ErrCorrupt wraps a parse failure from Reload; the caller should treat the
// store as empty and log.
type ErrCorrupt struct{ Err error }

func (e *ErrCorrupt) Error() string { return fmt.Sprintf("corrupt store: %v", e.Err) }
func (e *ErrCorrupt) Unwrap() error { return e.Err }

// Reload atomically reads the file into the working copy. A missing file
// is treated as an empty store, not an error. An unparseable file returns
// *ErrCorrupt and resets the working copy to empty.
func (s *Store) Reload() error {
	s.working = map[string]string{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	// go-ini's default key/value delimiters are "=:", which would split a
	// remote key like "remote.https://host/path.user" at the colon in
	// "https:". Keys here are delimited by "=" only. Inline comments are
	// disabled for the same reason: a "#" or ";" in a value must survive.
	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:    true,
		KeyValueDelimiters:  "=",
		IgnoreInlineComment: true,
	}, data)
	if err != nil {
		return &ErrCorrupt{Err: err}
	}

	sec := cfg.Section("")
	for _, key := range sec.Keys() {
		s.working[key.Name()] = key.Value()
	}
	return nil
}

// Get returns the working copy's value for key.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.working[key]
	return v, ok
}

// Set writes key=value into the working copy.
func (s *Store) Set(key, value string) {
	s.working[key] = value
}

// Remove deletes key from the working copy, if present.
func (s *Store) Remove(key string) {
	delete(s.working, key)
}

// Keys returns every key currently in the working copy.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.working))
	for k := range s.working {
		keys = append(keys, k)
	}
	return keys
}

// SectionScopes returns the set of x for which a key "<prefix>.<x>.<rest>"
// exists in the working copy, e.g. SectionScopes("org") over
// "org.contoso.authority" yields {"contoso"}.
func (s *Store) SectionScopes(prefix string) map[string]bool {
	scopes := map[string]bool{}
	want := prefix + "."
	for k := range s.working {
		if !strings.HasPrefix(k, want) {
			continue
		}
		rest := k[len(want):]
		if i := strings.IndexByte(rest, '.'); i >= 0 {
			scopes[rest[:i]] = true
		}
	}
	return scopes
}

// Commit serializes the working copy to a sibling temp file in the same
// directory, fsyncs it, then renames over the target under an advisory
// cross-process file lock. On any failure the on-disk state is unchanged.
func (s *Store) Commit() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	fl := flock.New(s.path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquiring store lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("timed out acquiring store lock for %s", s.path)
	}
	defer func() { _ = fl.Unlock() }()

	tmp, err := os.CreateTemp(dir, ".gitcredcore-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(s.serialize()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", s.path, err)
	}

	success = true
	return nil
}

func (s *Store) serialize() string {
	keys := s.Keys()
	// Deterministic output makes commits diffable and tests reproducible.
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s = %s\n", k, escapeValue(s.working[k]))
	}
	return b.String()
}

func escapeValue(v string) string {
	// ini.v1 quotes values containing leading/trailing space or '#'/';'
	// automatically on Save; we serialize by hand to keep full control
	// over the empty-string-vs-absent-key distinction.
	if v == "" {
		return `""`
	}
	return v
}
