// Package azrepos implements the Azure Repos authority/user cache, built
// on internal/inistore. It owns the remote-over-org user precedence rule
// and the distinction between an absent remote entry and an explicit
// empty-string signed-out marker.
package azrepos

import (
	"errors"
	"net/url"
	"strings"

	"github.com/git-credential-core/git-credential-core/internal/inistore"
	"github.com/git-credential-core/git-credential-core/internal/logger"
)

// Cache is the durable per-organization authority and per-remote/per-org
// user store. Every method reloads the backing store, applies its
// mutation, and commits, so the cache is always internally consistent with
// the last successful commit even under concurrent helper invocations.
type Cache struct {
	store *inistore.Store
}

// Open returns a Cache bound to path. The file is created lazily on first
// commit; it does not need to exist yet.
func Open(path string) *Cache {
	return &Cache{store: inistore.New(path)}
}

func orgAuthorityKey(org string) string  { return "org." + org + ".authority" }
func orgUserKey(org string) string       { return "org." + org + ".user" }
func remoteUserKey(remote string) string { return "remote." + remote + ".user" }

// GetAuthority returns the cached authority for org, or ("", false) on a
// miss or an I/O error (an I/O error is logged and treated as a miss; the
// worst case is a redundant authority probe).
func (c *Cache) GetAuthority(org string) (string, bool) {
	if err := c.store.Reload(); err != nil {
		logger.Warn().Err(err).Str("org", org).Msg("azrepos: reload failed, treating authority as absent")
		return "", false
	}
	return c.store.Get(orgAuthorityKey(org))
}

// UpdateAuthority overwrites or inserts the cached authority for org.
func (c *Cache) UpdateAuthority(org, authority string) error {
	return c.mutate(func() {
		c.store.Set(orgAuthorityKey(org), authority)
	})
}

// EraseAuthority removes the cached authority for org, if present.
func (c *Cache) EraseAuthority(org string) error {
	return c.mutate(func() {
		c.store.Remove(orgAuthorityKey(org))
	})
}

// Clear removes every org.*.authority entry.
func (c *Cache) Clear() error {
	return c.mutate(func() {
		for org := range c.store.SectionScopes("org") {
			c.store.Remove(orgAuthorityKey(org))
		}
	})
}

// GetOrgUser returns the org-level signed-in user, if any.
func (c *Cache) GetOrgUser(org string) (string, bool) {
	if err := c.store.Reload(); err != nil {
		logger.Warn().Err(err).Str("org", org).Msg("azrepos: reload failed")
		return "", false
	}
	return c.store.Get(orgUserKey(org))
}

// GetRemoteUser returns the remote-level entry verbatim, which may be the
// empty string (explicit sign-out). Callers must distinguish (v, false)
// "no entry" from (v, true) "entry present, possibly empty" explicitly;
// use EffectiveUser for the resolved precedence rule instead of this in
// provider code.
func (c *Cache) GetRemoteUser(remote string) (string, bool) {
	if err := c.store.Reload(); err != nil {
		logger.Warn().Err(err).Str("remote", remote).Msg("azrepos: reload failed")
		return "", false
	}
	return c.store.Get(remoteUserKey(remote))
}

// SignInOrg sets org.<org>.user = user.
func (c *Cache) SignInOrg(org, user string) error {
	return c.mutate(func() {
		c.store.Set(orgUserKey(org), user)
	})
}

// SignInRemote sets remote.<uri>.user = user.
func (c *Cache) SignInRemote(remote, user string) error {
	return c.mutate(func() {
		c.store.Set(remoteUserKey(remote), user)
	})
}

// SignOutOrg removes org.<org>.user.
func (c *Cache) SignOutOrg(org string) error {
	return c.mutate(func() {
		c.store.Remove(orgUserKey(org))
	})
}

// SignOutRemote removes the remote-level entry, or, if explicit is true,
// sets it to the empty string, suppressing inheritance of the org-level
// user. These two paths stay distinct: a non-explicit sign-out (e.g. the
// remote never had its own entry) must not fabricate a signed-out marker
// where none existed.
func (c *Cache) SignOutRemote(remote string, explicit bool) error {
	return c.mutate(func() {
		if explicit {
			c.store.Set(remoteUserKey(remote), "")
		} else {
			c.store.Remove(remoteUserKey(remote))
		}
	})
}

// GetOrgUsers returns every org-level user, keyed by organization name.
func (c *Cache) GetOrgUsers() map[string]string {
	if err := c.store.Reload(); err != nil {
		logger.Warn().Err(err).Msg("azrepos: reload failed")
		return map[string]string{}
	}
	out := map[string]string{}
	for org := range c.store.SectionScopes("org") {
		if v, ok := c.store.Get(orgUserKey(org)); ok {
			out[org] = v
		}
	}
	return out
}

// GetRemoteUsers returns every remote-level user, keyed by the remote URI.
// Keys that don't parse as a URI are skipped.
func (c *Cache) GetRemoteUsers() map[string]string {
	if err := c.store.Reload(); err != nil {
		logger.Warn().Err(err).Msg("azrepos: reload failed")
		return map[string]string{}
	}
	out := map[string]string{}
	for _, key := range c.store.Keys() {
		if !strings.HasPrefix(key, "remote.") || !strings.HasSuffix(key, ".user") {
			continue
		}
		remote := strings.TrimSuffix(strings.TrimPrefix(key, "remote."), ".user")
		if _, err := url.Parse(remote); err != nil {
			continue
		}
		if v, ok := c.store.Get(key); ok {
			out[remote] = v
		}
	}
	return out
}

// EffectiveUser resolves the user for remote under org:
//  1. remote entry present and non-empty -> that value.
//  2. remote entry present and empty -> none (explicit sign-out).
//  3. remote entry absent -> org-level user, or none.
func (c *Cache) EffectiveUser(org, remote string) (string, bool) {
	if err := c.store.Reload(); err != nil {
		logger.Warn().Err(err).Str("org", org).Str("remote", remote).Msg("azrepos: reload failed")
		return "", false
	}
	if rv, ok := c.store.Get(remoteUserKey(remote)); ok {
		if rv != "" {
			return rv, true
		}
		return "", false
	}
	if ov, ok := c.store.Get(orgUserKey(org)); ok {
		return ov, true
	}
	return "", false
}

// Store records a successful credential validation: if org has no
// signed-in user, sign them in at org scope and clear any remote entry; if
// the org user differs from the incoming username, record a remote-level
// sign-in; if they match, remove any remote entry to prefer inheritance.
func (c *Cache) Store(org, remote, username string) error {
	return c.mutate(func() {
		orgUser, hasOrgUser := c.store.Get(orgUserKey(org))
		switch {
		case !hasOrgUser:
			c.store.Set(orgUserKey(org), username)
			c.store.Remove(remoteUserKey(remote))
		case orgUser != username:
			c.store.Set(remoteUserKey(remote), username)
		default:
			c.store.Remove(remoteUserKey(remote))
		}
	})
}

// Erase records a failed credential: if org has a signed-in user, mark the
// remote explicitly signed-out so the next attempt re-prompts; otherwise
// just remove any remote entry. Always erases the cached authority too, in
// case it is stale.
func (c *Cache) Erase(org, remote string) error {
	return c.mutate(func() {
		if _, hasOrgUser := c.store.Get(orgUserKey(org)); hasOrgUser {
			c.store.Set(remoteUserKey(remote), "")
		} else {
			c.store.Remove(remoteUserKey(remote))
		}
		c.store.Remove(orgAuthorityKey(org))
	})
}

// mutate reloads the backing file, applies fn to the working copy, and
// commits. A corrupt file is treated as empty so the mutation can still
// proceed; any other reload error aborts before fn runs.
func (c *Cache) mutate(fn func()) error {
	if err := c.store.Reload(); err != nil {
		var corrupt *inistore.ErrCorrupt
		if !errors.As(err, &corrupt) {
			return err
		}
		logger.Warn().Err(err).Msg("azrepos: reload failed, starting mutation from empty store")
	}
	fn()
	return c.store.Commit()
}
