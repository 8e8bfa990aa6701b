// Package provider implements the host-provider registry: deterministic
// predicate-based dispatch from an incoming credential request to the
// component that knows how to authenticate against that host. Providers
// form a flat, ordered list matched top to bottom, first match wins, with
// an explicit credential.provider override and a generic fallback.
package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/git-credential-core/git-credential-core/internal/cmdutil"
	"github.com/git-credential-core/git-credential-core/internal/credential"
	"github.com/git-credential-core/git-credential-core/internal/oauthclient"
	"github.com/git-credential-core/git-credential-core/internal/settings"
)

// Provider authenticates a credential.Request and returns a filled-in
// Credential, or an error from the internal/cmdutil taxonomy.
type Provider interface {
	// ID is the stable identifier used by credential.<scope>.provider
	// overrides (e.g. "azure-repos", "github", "generic").
	ID() string

	// Matches reports whether this provider claims the given request.
	// Matches must be a pure function of req; providers must not depend
	// on hidden state to decide whether they apply.
	Matches(req credential.Request) bool

	// Get resolves a credential for req, authenticating interactively if
	// permitted and necessary. Returning a zero Credential with a nil
	// error is a benign decline: the helper exits 0 with no output and
	// Git falls through to its next helper or its own prompt.
	Get(ctx context.Context, req credential.Request) (credential.Credential, error)

	// Store persists a credential that git reported as working.
	Store(ctx context.Context, req credential.Request, cred credential.Credential) error

	// Erase discards a cached credential that git reported as rejected.
	Erase(ctx context.Context, req credential.Request) error
}

// interactiveMode is the normalized credential.interactive policy.
type interactiveMode int

const (
	interactiveAuto interactiveMode = iota
	interactiveAlways
	interactiveDisabled
)

// resolveInteractive normalizes credential.interactive (and its
// GCM_INTERACTIVE alias, whose documented disabling values are the
// boolean-false forms): "never" and 0|false|no|off disable prompting,
// "always" and the boolean-true forms force it, anything else is "auto"
// (prompt only when a terminal is attached).
func resolveInteractive(r *settings.Resolver, scope settings.Scope) interactiveMode {
	switch strings.ToLower(strings.TrimSpace(r.GetString("credential", "interactive", scope, "auto"))) {
	case "never", "0", "false", "no", "off":
		return interactiveDisabled
	case "always", "force", "1", "true", "yes", "on":
		return interactiveAlways
	}
	return interactiveAuto
}

// wrapAuthErr maps an OAuth flow failure onto the error taxonomy. An error
// already carrying a taxonomy kind passes through untouched, and a
// canceled or timed-out flow keeps its cancellation semantics (exit 130)
// instead of being reported as an authentication failure.
func wrapAuthErr(err error, format string, args ...any) error {
	if _, ok := cmdutil.AsError(err); ok {
		return err
	}
	if errors.Is(err, oauthclient.ErrCanceled) || errors.Is(err, oauthclient.ErrTimeout) {
		return cmdutil.Wrap(cmdutil.KindCanceled, err, format, args...)
	}
	return cmdutil.Wrap(cmdutil.KindAuthFailed, err, format, args...)
}
