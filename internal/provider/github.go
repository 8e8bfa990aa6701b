// GitHub support: basic, oauth (browser auth-code), devcode (device code),
// and pat auth modes, with gist.<host> normalized onto <host>'s credential
// namespace (both accept the same tokens). The OAuth exchanges are driven
// against GitHub's endpoints directly, but fetchLogin uses go-github's
// REST client (Users.Get) to resolve the authenticated user's real login
// once a token is in hand.
package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/go-github/v82/github"
	"golang.org/x/oauth2"

	"github.com/git-credential-core/git-credential-core/internal/cmdutil"
	"github.com/git-credential-core/git-credential-core/internal/credential"
	"github.com/git-credential-core/git-credential-core/internal/credstore"
	"github.com/git-credential-core/git-credential-core/internal/oauthclient"
	"github.com/git-credential-core/git-credential-core/internal/settings"
)

// AuthMode is one of the modes named in credential.gitHubAuthModes.
type AuthMode string

const (
	AuthModeBasic  AuthMode = "basic"
	AuthModeOAuth  AuthMode = "oauth"
	AuthModePAT    AuthMode = "pat"
	AuthModeDevice AuthMode = "devcode"
)

const githubClientID = "0120e057bd645470c1ed" // public device-flow client ID, matches git-credential-manager's registered app

// GitHub implements Provider for github.com and gist.github.com.
type GitHub struct {
	CredStore  *credstore.Store
	Resolver   *settings.Resolver
	HTTP       *http.Client // honors credential.httpProxy; nil means http.DefaultClient
	Browser    oauthclient.BrowserOpener
	Exchanger  oauthclient.Exchanger
	Devices    oauthclient.DeviceCodePoster
	OnUserCode func(verificationURI, userCode string)
	Prompt     Prompter
}

func (g *GitHub) ID() string { return "github" }

func (g *GitHub) Matches(req credential.Request) bool {
	host := strings.ToLower(req.HostOnly())
	if host == "github.com" || host == "gist.github.com" {
		return true
	}
	// GitHub Enterprise convention: a first label of "github" or
	// "gist.github" followed by at least one further label.
	for _, prefix := range []string{"github.", "gist.github."} {
		if strings.HasPrefix(host, prefix) && len(host) > len(prefix) {
			return true
		}
	}
	return false
}

// service normalizes gist.<host> onto <host>'s credential namespace, since
// both accept the same PAT, honoring credential.namespace (default "git").
// GitHub credentials are host-wide rather than per-repository, so
// credential.useHttpPath never applies here: a PAT scoped by path would
// defeat the gist/main-host sharing this normalization exists for.
func (g *GitHub) service(req credential.Request) string {
	scope := settings.Scope{Protocol: req.Protocol, Host: req.Host, Path: req.Path}
	ns := g.Resolver.GetString("credential", "namespace", scope, "git")
	host := strings.TrimPrefix(strings.ToLower(req.Host), "gist.")
	return credstore.CanonicalizeURL(ns, req.Protocol, host, "", false)
}

func (g *GitHub) allowedModes(req credential.Request) []AuthMode {
	scope := settings.Scope{Protocol: req.Protocol, Host: req.Host, Path: req.Path}
	raw := g.Resolver.GetString("credential", "gitHubAuthModes", scope, "oauth basic")
	var modes []AuthMode
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' }) {
		modes = append(modes, AuthMode(strings.ToLower(part)))
	}
	return modes
}

func (g *GitHub) Get(ctx context.Context, req credential.Request) (credential.Credential, error) {
	svc := g.service(req)

	account := req.Username
	if entries, err := g.CredStore.List(svc); err == nil {
		for _, e := range entries {
			if account == "" || e.Account == account {
				return credential.Credential{Username: e.Account, Password: e.Secret}, nil
			}
		}
	}

	scope := settings.Scope{Protocol: req.Protocol, Host: req.Host, Path: req.Path}
	if resolveInteractive(g.Resolver, scope) == interactiveDisabled {
		return credential.Credential{}, cmdutil.New(cmdutil.KindInteractionDisabled, "github: no stored credential and interactive prompts are disabled")
	}

	modes := g.allowedModes(req)
	for _, mode := range modes {
		switch mode {
		case AuthModeOAuth:
			// Browser auth-code on a desktop session, device code when no
			// browser is launchable.
			var token oauthclient.TokenResult
			var err error
			switch {
			case g.Browser != nil:
				flow := &oauthclient.AuthCodeFlow{Client: g.oauthConfig(true), Browser: g.Browser, Exchanger: g.Exchanger}
				token, err = flow.Run(ctx)
			case g.Devices != nil:
				flow := &oauthclient.DeviceCodeFlow{Client: g.oauthConfig(false), Poster: g.Devices, OnUserCode: g.OnUserCode}
				token, err = flow.Run(ctx)
			default:
				continue
			}
			if err != nil {
				return credential.Credential{}, wrapAuthErr(err, "github: oauth authentication failed")
			}
			return g.tokenCredential(ctx, token), nil
		case AuthModeDevice:
			if g.Devices == nil {
				continue
			}
			flow := &oauthclient.DeviceCodeFlow{Client: g.oauthConfig(false), Poster: g.Devices, OnUserCode: g.OnUserCode}
			token, err := flow.Run(ctx)
			if err != nil {
				return credential.Credential{}, wrapAuthErr(err, "github: device code authentication failed")
			}
			return g.tokenCredential(ctx, token), nil
		case AuthModeBasic:
			if g.Prompt == nil {
				continue
			}
			username, password, err := g.Prompt.PromptBasic(req.Host)
			if err != nil {
				return credential.Credential{}, cmdutil.Wrap(cmdutil.KindCanceled, err, "github: credential prompt canceled")
			}
			return credential.Credential{Username: username, Password: password}, nil
		case AuthModePAT:
			if g.Prompt == nil {
				continue
			}
			_, pat, err := g.Prompt.PromptBasic(req.Host)
			if err != nil {
				return credential.Credential{}, cmdutil.Wrap(cmdutil.KindCanceled, err, "github: PAT prompt canceled")
			}
			return credential.Credential{Username: "x-access-token", Password: pat}, nil
		}
	}

	return credential.Credential{}, cmdutil.New(cmdutil.KindInteractionDisabled, "github: no usable auth mode available among %v", modes)
}

func (g *GitHub) oauthConfig(browser bool) oauthclient.ClientConfig {
	cfg := oauthclient.ClientConfig{
		ClientID: githubClientID,
		Scopes:   []string{"repo", "gist"},
		Endpoint: oauthclient.Endpoint{
			DeviceCodeURL: "https://github.com/login/device/code",
			TokenURL:      "https://github.com/login/oauth/access_token",
		},
	}
	if browser {
		cfg.Endpoint.AuthorizationURL = "https://github.com/login/oauth/authorize"
	}
	return cfg
}

// tokenCredential pairs an access token with the account it authenticated
// as, falling back to the generic "oauth2" username most Git hosts accept
// alongside a token.
func (g *GitHub) tokenCredential(ctx context.Context, token oauthclient.TokenResult) credential.Credential {
	username := "oauth2"
	if login := g.fetchLogin(ctx, token.AccessToken); login != "" {
		username = login
	}
	return credential.Credential{Username: username, Password: token.AccessToken}
}

// fetchLogin resolves the authenticated user's GitHub login so the stored
// credential carries a real account name instead of the generic "oauth2"
// placeholder most Git hosts accept as a username alongside a token.
func (g *GitHub) fetchLogin(ctx context.Context, accessToken string) string {
	if g.HTTP != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.HTTP)
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	client := github.NewClient(httpClient)
	user, _, err := client.Users.Get(ctx, "")
	if err != nil || user == nil || user.Login == nil {
		return ""
	}
	return *user.Login
}

func (g *GitHub) Store(ctx context.Context, req credential.Request, cred credential.Credential) error {
	svc := g.service(req)
	return g.CredStore.AddOrUpdate(credstore.Entry{Service: svc, Account: cred.Username, Secret: cred.Password})
}

func (g *GitHub) Erase(ctx context.Context, req credential.Request) error {
	svc := g.service(req)
	entries, err := g.CredStore.List(svc)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if req.Username == "" || e.Account == req.Username {
			if err := g.CredStore.Remove(svc, e.Account); err != nil {
				return err
			}
		}
	}
	return nil
}
