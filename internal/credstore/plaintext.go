package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// PlaintextBackend stores credentials as one JSON file per service under a
// directory, using the same temp-file-then-fsync-then-rename commit
// pattern as internal/inistore. It must never be selected unless the user
// has opted in; that gate lives in Select, not here.
type PlaintextBackend struct {
	dir string
}

func NewPlaintextBackend(dir string) *PlaintextBackend {
	return &PlaintextBackend{dir: dir}
}

type fileRecord struct {
	Service  string            `json:"service"`
	Accounts map[string]string `json:"accounts"` // account -> secret
}

func (b *PlaintextBackend) servicePath(service string) string {
	return filepath.Join(b.dir, sanitizeFilename(service)+".json")
}

func sanitizeFilename(s string) string {
	r := strings.NewReplacer("/", "_", ":", "_", "\\", "_")
	return r.Replace(s)
}

func (b *PlaintextBackend) readRecord(service string) (fileRecord, error) {
	data, err := os.ReadFile(b.servicePath(service))
	if err != nil {
		if os.IsNotExist(err) {
			return fileRecord{Accounts: map[string]string{}}, nil
		}
		return fileRecord{}, err
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fileRecord{}, err
	}
	if rec.Accounts == nil {
		rec.Accounts = map[string]string{}
	}
	return rec, nil
}

func (b *PlaintextBackend) writeRecord(service string, rec fileRecord) error {
	rec.Service = service
	if err := os.MkdirAll(b.dir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	path := b.servicePath(service)

	fl := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquiring plaintext store lock for %s: %w", service, err)
	}
	if !locked {
		return fmt.Errorf("timed out acquiring plaintext store lock for %s", service)
	}
	defer fl.Unlock()

	tmp, err := os.CreateTemp(b.dir, ".gitcredcore-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
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
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (b *PlaintextBackend) Get(service, account string) (Entry, error) {
	rec, err := b.readRecord(service)
	if err != nil {
		return Entry{}, err
	}
	secret, ok := rec.Accounts[account]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{Service: service, Account: account, Secret: secret}, nil
}

func (b *PlaintextBackend) List(servicePrefix string) ([]Entry, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Entry
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(b.dir, de.Name()))
		if err != nil {
			continue
		}
		var rec fileRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if !strings.HasPrefix(rec.Service, servicePrefix) {
			continue
		}
		for account, secret := range rec.Accounts {
			out = append(out, Entry{Service: rec.Service, Account: account, Secret: secret})
		}
	}
	return out, nil
}

func (b *PlaintextBackend) AddOrUpdate(e Entry) error {
	rec, err := b.readRecord(e.Service)
	if err != nil {
		return err
	}
	rec.Accounts[e.Account] = e.Secret
	return b.writeRecord(e.Service, rec)
}

func (b *PlaintextBackend) Remove(service, account string) error {
	rec, err := b.readRecord(service)
	if err != nil {
		return err
	}
	delete(rec.Accounts, account)
	return b.writeRecord(service, rec)
}
