package credstore

import (
	"fmt"
	"path/filepath"
)

// BackendKind is the closed set of backend selectors
// (GCM_CREDENTIAL_STORE / credential.credentialStore).
type BackendKind string

const (
	BackendSecretService            BackendKind = "secretservice"
	BackendKeyChain                 BackendKind = "keychain"
	BackendWindowsCredentialManager BackendKind = "wincredman"
	BackendGpgPass                  BackendKind = "gpg"
	BackendPlaintextFile            BackendKind = "plaintext"
)

// SelectOptions configures backend construction.
type SelectOptions struct {
	Kind BackendKind

	// PlaintextOptIn gates the plaintext backend: "Plaintext is
	// rejected unless the user has explicitly opted in."
	PlaintextOptIn bool

	// DataDir is the directory backing the keychain account index and the
	// plaintext/encrypted file backends (GCM_PLAINTEXT_STORE_PATH for
	// plaintext specifically overrides this for that one backend).
	DataDir            string
	PlaintextStorePath string
}

// Select constructs a Backend for the given options. SecretService,
// KeyChain, and WindowsCredentialManager are all served by
// zalando/go-keyring, which multiplexes onto the right platform API
// itself. GpgPass is not implemented; selecting it is a fatal
// configuration error, matching the "unknown provider id" fatal pattern
// used elsewhere for unresolvable selectors.
func Select(opts SelectOptions) (Backend, error) {
	switch opts.Kind {
	case BackendSecretService, BackendKeyChain, BackendWindowsCredentialManager, "":
		return NewKeychainBackend(filepath.Join(opts.DataDir, "index.tsv")), nil
	case BackendPlaintextFile:
		if !opts.PlaintextOptIn {
			return nil, fmt.Errorf("plaintext credential store requires explicit opt-in")
		}
		dir := opts.PlaintextStorePath
		if dir == "" {
			dir = filepath.Join(opts.DataDir, "plaintext")
		}
		return NewPlaintextBackend(dir), nil
	default:
		return nil, fmt.Errorf("unsupported credential store backend: %s", opts.Kind)
	}
}
