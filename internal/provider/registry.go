package provider

import (
	"github.com/git-credential-core/git-credential-core/internal/cmdutil"
	"github.com/git-credential-core/git-credential-core/internal/credential"
	"github.com/git-credential-core/git-credential-core/internal/settings"
)

// Registry holds providers in a fixed order and dispatches to the first
// match, honoring a credential.<scope>.provider override ahead of the
// predicate scan.
type Registry struct {
	providers []Provider
	fallback  Provider
	resolver  *settings.Resolver
}

// NewRegistry builds a registry from specific providers plus a required
// generic fallback that matches everything.
func NewRegistry(resolver *settings.Resolver, fallback Provider, specific ...Provider) *Registry {
	return &Registry{providers: specific, fallback: fallback, resolver: resolver}
}

// Resolve picks the provider for req: an explicit credential.provider
// override wins outright (and is fatal if it names an unknown ID),
// otherwise the first predicate match wins, falling back to the generic
// provider if none match.
func (r *Registry) Resolve(req credential.Request) (Provider, error) {
	scope := settings.Scope{Protocol: req.Protocol, Host: req.Host, Path: req.Path}
	if id, ok := r.resolver.Get("credential", "provider", scope); ok && id != "" {
		if id == "auto" {
			return r.resolveByMatch(req), nil
		}
		for _, p := range r.allProviders() {
			if p.ID() == id {
				return p, nil
			}
		}
		return nil, cmdutil.New(cmdutil.KindNoProvider, "unknown provider override %q", id)
	}
	return r.resolveByMatch(req), nil
}

func (r *Registry) resolveByMatch(req credential.Request) Provider {
	for _, p := range r.providers {
		if p.Matches(req) {
			return p
		}
	}
	return r.fallback
}

func (r *Registry) allProviders() []Provider {
	all := make([]Provider, 0, len(r.providers)+1)
	all = append(all, r.providers...)
	if r.fallback != nil {
		all = append(all, r.fallback)
	}
	return all
}
