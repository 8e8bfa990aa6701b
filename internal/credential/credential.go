// Package credential defines the in-memory types exchanged between the
// protocol adapter, the provider registry, and the credential store: the
// request fingerprint Git hands to the helper, and the credential a
// provider hands back.
package credential

import "strings"

// Request is the immutable fingerprint Git presents when invoking the
// helper. It is built once by the protocol adapter and never mutated.
type Request struct {
	Protocol string   // "http" or "https", required
	Host     string   // may include ":port", required
	Path     string   // optional
	Username string   // optional
	Password string   // only present for store/erase
	WWWAuth  []string // repeated "wwwauth[]" challenge values

	// Extra holds every key the adapter does not map to a field above
	// (lower-cased, first value only), so a provider can inspect
	// forward-compatible Git extensions without the adapter needing to
	// know about them.
	Extra map[string]string
}

// Host label without an explicit ":port" suffix, lower-cased. Host matching
// throughout the registry and settings resolver is case-insensitive.
func (r Request) HostOnly() string {
	h := r.Host
	if i := strings.LastIndexByte(h, ':'); i >= 0 {
		// Only strip if what follows looks like a port (all digits).
		if isAllDigits(h[i+1:]) {
			h = h[:i]
		}
	}
	return strings.ToLower(h)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Credential is a username/secret pair. The storage key it is (or will be)
// filed under is computed separately by credstore.CanonicalizeURL from the
// request, not carried on this type; providers recompute it identically
// on get/store/erase, so there is nothing here for them to stash.
type Credential struct {
	Username string
	Password string // the secret; never logged unless secret-tracing is on

	// service carries the Windows-Integrated-Auth sentinel marker only; it
	// is never set to a real storage key. See WindowsIntegratedAuth.
	service string
}

// IsZero reports whether no credential was produced at all. A provider
// returning a zero Credential from Get (with a nil error) is declining the
// request rather than answering it.
func (c Credential) IsZero() bool {
	return c == Credential{}
}

// IsWindowsIntegratedAuth reports whether this is the Generic provider's
// sentinel credential telling Git to fall back to the OS transport's
// native Negotiate/NTLM authentication instead of a username/password.
func (c Credential) IsWindowsIntegratedAuth() bool {
	return c.Username == "" && c.Password == "" && c.service == windowsAuthSentinel
}

const windowsAuthSentinel = "\x00windows-integrated-auth\x00"

// WindowsIntegratedAuth returns the sentinel credential recognized by
// IsWindowsIntegratedAuth.
func WindowsIntegratedAuth() Credential {
	return Credential{service: windowsAuthSentinel}
}
