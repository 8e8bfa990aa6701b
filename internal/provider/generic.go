package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/git-credential-core/git-credential-core/internal/cmdutil"
	"github.com/git-credential-core/git-credential-core/internal/credential"
	"github.com/git-credential-core/git-credential-core/internal/credstore"
	"github.com/git-credential-core/git-credential-core/internal/settings"
)

// hasWindowsAuthChallenge reports whether any echoed WWW-Authenticate
// challenge names Negotiate or NTLM.
func hasWindowsAuthChallenge(challenges []string) bool {
	for _, c := range challenges {
		lower := strings.ToLower(c)
		if strings.Contains(lower, "negotiate") || strings.Contains(lower, "ntlm") {
			return true
		}
	}
	return false
}

// Prompter asks the user for a username/password pair on a real TTY. The
// generic provider treats a nil Prompter (non-interactive process) as
// "cannot authenticate" rather than hanging on stdin.
type Prompter interface {
	PromptBasic(host string) (username, password string, err error)
}

// Generic is the terminal fallback provider: it checks the credential
// store, offers Windows Integrated Auth when a WWW-Authenticate challenge
// names Negotiate or NTLM and the user has enabled it, and otherwise
// prompts for basic credentials when a terminal is attached (declining
// the request when there is none to prompt on).
type Generic struct {
	CredStore *credstore.Store
	Resolver  *settings.Resolver
	Prompt    Prompter

	// TTY reports whether an interactive terminal is attached; wired to
	// IOStreams.IsStdinTTY in main. nil is treated as "no terminal", so
	// credential.interactive=auto declines rather than prompting into the
	// pipe Git fed the request through.
	TTY func() bool
}

func (g *Generic) isTTY() bool { return g.TTY != nil && g.TTY() }

func (g *Generic) ID() string { return "generic" }

// Matches everything; this is the terminal fallback in the registry.
func (g *Generic) Matches(req credential.Request) bool { return true }

// service computes this request's storage key, honoring credential.namespace
// (default "git") and credential.useHttpPath so store/erase
// reconstruct exactly the key get used.
func (g *Generic) service(req credential.Request, scope settings.Scope) string {
	namespace := g.Resolver.GetString("credential", "namespace", scope, "git")
	useHTTPPath := g.Resolver.GetBool("credential", "useHttpPath", scope, false)
	return credstore.CanonicalizeURL(namespace, req.Protocol, req.Host, req.Path, useHTTPPath)
}

func (g *Generic) Get(ctx context.Context, req credential.Request) (credential.Credential, error) {
	scope := settings.Scope{Protocol: req.Protocol, Host: req.Host, Path: req.Path}
	svc := g.service(req, scope)

	if req.Username != "" {
		if entries, err := g.CredStore.List(svc); err == nil {
			for _, e := range entries {
				if e.Account == req.Username {
					return credential.Credential{Username: e.Account, Password: e.Secret}, nil
				}
			}
		}
	} else if entries, err := g.CredStore.List(svc); err == nil && len(entries) > 0 {
		e := entries[0]
		return credential.Credential{Username: e.Account, Password: e.Secret}, nil
	}

	if g.Resolver.GetBool("credential", "allowWindowsAuth", scope, true) && hasWindowsAuthChallenge(req.WWWAuth) {
		return credential.WindowsIntegratedAuth(), nil
	}

	switch resolveInteractive(g.Resolver, scope) {
	case interactiveDisabled:
		return credential.Credential{}, cmdutil.New(cmdutil.KindInteractionDisabled, "no stored credential for %s and interactive prompts are disabled", req.Host)
	case interactiveAuto:
		if !g.isTTY() {
			// No terminal to prompt on: decline so Git can fall through
			// to its next helper or prompt itself.
			return credential.Credential{}, nil
		}
	}
	if g.Prompt == nil {
		return credential.Credential{}, cmdutil.New(cmdutil.KindInteractionDisabled, "no stored credential for %s and no interactive terminal is available", req.Host)
	}

	username, password, err := g.Prompt.PromptBasic(req.Host)
	if err != nil {
		return credential.Credential{}, cmdutil.Wrap(cmdutil.KindCanceled, err, "credential prompt canceled")
	}
	return credential.Credential{Username: username, Password: password}, nil
}

func (g *Generic) Store(ctx context.Context, req credential.Request, cred credential.Credential) error {
	if cred.IsWindowsIntegratedAuth() {
		return nil
	}
	scope := settings.Scope{Protocol: req.Protocol, Host: req.Host, Path: req.Path}
	svc := g.service(req, scope)
	return g.CredStore.AddOrUpdate(credstore.Entry{Service: svc, Account: cred.Username, Secret: cred.Password})
}

func (g *Generic) Erase(ctx context.Context, req credential.Request) error {
	scope := settings.Scope{Protocol: req.Protocol, Host: req.Host, Path: req.Path}
	svc := g.service(req, scope)
	entries, err := g.CredStore.List(svc)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if req.Username == "" || e.Account == req.Username {
			if err := g.CredStore.Remove(svc, e.Account); err != nil {
				return fmt.Errorf("erasing credential: %w", err)
			}
		}
	}
	return nil
}
