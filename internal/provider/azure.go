// Azure Repos support: protocol restriction, organization derivation,
// authority discovery, cached-user resolution, PAT-mode exchange, and the
// OAuth device/auth-code fallback. The authority is learned by probing an
// unauthenticated endpoint and reading its challenge headers; the cache
// lives in internal/azrepos and the token flows in internal/oauthclient.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/git-credential-core/git-credential-core/internal/azrepos"
	"github.com/git-credential-core/git-credential-core/internal/cmdutil"
	"github.com/git-credential-core/git-credential-core/internal/credential"
	"github.com/git-credential-core/git-credential-core/internal/credstore"
	"github.com/git-credential-core/git-credential-core/internal/oauthclient"
	"github.com/git-credential-core/git-credential-core/internal/settings"
)

const (
	azureDefaultAuthority = "https://login.microsoftonline.com/organizations"
	azureResourceID       = "499b84ac-1321-427f-aa17-267ca6975798" // Azure DevOps resource ID
	azureClientID         = "872cd9fa-d31f-45e0-9eab-6e460a02d1f1" // Visual Studio IDE well-known public client

	// azurePATUsername is the constant username paired with a PAT
	// password when an organization requires PAT authentication.
	azurePATUsername = "PersonalAccessToken"
)

var azureHostSuffixes = []string{"dev.azure.com", "visualstudio.com"}

// AzureRepos implements Provider for dev.azure.com / *.visualstudio.com.
type AzureRepos struct {
	Cache        *azrepos.Cache
	CredStore    *credstore.Store
	Resolver     *settings.Resolver
	HTTP         *http.Client
	Exchanger    oauthclient.Exchanger
	Browser      oauthclient.BrowserOpener
	Devices      oauthclient.DeviceCodePoster
	OnDeviceCode func(verificationURI, userCode string)
}

func (a *AzureRepos) ID() string { return "azure-repos" }

func (a *AzureRepos) Matches(req credential.Request) bool {
	host := strings.ToLower(req.HostOnly())
	for _, suffix := range azureHostSuffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

func (a *AzureRepos) httpClient() *http.Client {
	if a.HTTP != nil {
		return a.HTTP
	}
	return http.DefaultClient
}

// organization derives the Azure DevOps organization name from the host
// and path: dev.azure.com/<org>/... or <org>.visualstudio.com.
func organization(req credential.Request) (string, error) {
	host := strings.ToLower(req.HostOnly())
	if host == "dev.azure.com" {
		path := strings.TrimPrefix(req.Path, "/")
		parts := strings.SplitN(path, "/", 2)
		if parts[0] == "" {
			return "", cmdutil.New(cmdutil.KindMalformedInput, "azure repos: cannot derive organization from %s%s", req.Host, req.Path)
		}
		return parts[0], nil
	}
	if idx := strings.Index(host, ".visualstudio.com"); idx > 0 {
		return host[:idx], nil
	}
	return "", cmdutil.New(cmdutil.KindMalformedInput, "azure repos: unrecognized host %s", req.Host)
}

func (a *AzureRepos) Get(ctx context.Context, req credential.Request) (credential.Credential, error) {
	if strings.EqualFold(req.Protocol, "http") {
		return credential.Credential{}, cmdutil.New(cmdutil.KindUnsupportedProtocol, "azure repos requires https, got http")
	}

	org, err := organization(req)
	if err != nil {
		return credential.Credential{}, err
	}

	authority, ok := a.Cache.GetAuthority(org)
	if !ok {
		authority, err = a.discoverAuthority(ctx, org)
		if err != nil {
			return credential.Credential{}, err
		}
		_ = a.Cache.UpdateAuthority(org, authority)
	}

	remote := req.Protocol + "://" + req.Host + "/" + strings.TrimPrefix(req.Path, "/")
	username, _ := a.Cache.EffectiveUser(org, remote)

	scope := settings.Scope{Protocol: req.Protocol, Host: req.Host, Path: req.Path}
	svc := a.service(req, scope)
	account := username
	if account == "" {
		account = org
	}
	if entries, err := a.CredStore.List(svc); err == nil {
		for _, e := range entries {
			if e.Account == account {
				return credential.Credential{Username: account, Password: e.Secret}, nil
			}
		}
	}

	if resolveInteractive(a.Resolver, scope) == interactiveDisabled {
		return credential.Credential{}, cmdutil.New(cmdutil.KindInteractionDisabled, "azure repos: no cached credential for %s and interactive prompts are disabled", org)
	}

	token, err := a.acquireToken(ctx, authority, scope)
	if err != nil {
		return credential.Credential{}, wrapAuthErr(err, "azure repos: authentication failed")
	}

	effectiveUser := token.AccountIdentifier
	if effectiveUser == "" {
		effectiveUser = account
	}
	if err := a.Cache.Store(org, remote, effectiveUser); err != nil {
		return credential.Credential{}, err
	}

	// The default credential is the bearer token itself; only
	// organizations that require PAT authentication (credential.azureDevOpsPatMode)
	// take the PAT-exchange path and its constant username.
	if a.Resolver.GetBool("credential", "azureDevOpsPatMode", scope, false) {
		pat, err := a.exchangeForPAT(ctx, org, token.AccessToken)
		if err != nil {
			return credential.Credential{}, cmdutil.Wrap(cmdutil.KindAuthFailed, err, "azure repos: PAT exchange failed")
		}
		return credential.Credential{Username: azurePATUsername, Password: pat}, nil
	}

	return credential.Credential{Username: effectiveUser, Password: token.AccessToken}, nil
}

// service computes this request's storage key, honoring credential.namespace
// (default "git"); Azure Repos credentials are organization-wide so
// the path component is always dropped, independent of credential.useHttpPath.
func (a *AzureRepos) service(req credential.Request, scope settings.Scope) string {
	namespace := a.Resolver.GetString("credential", "namespace", scope, "git")
	return credstore.CanonicalizeURL(namespace, req.Protocol, req.Host, "", false)
}

func (a *AzureRepos) Store(ctx context.Context, req credential.Request, cred credential.Credential) error {
	if cred.IsWindowsIntegratedAuth() {
		return nil
	}
	scope := settings.Scope{Protocol: req.Protocol, Host: req.Host, Path: req.Path}
	svc := a.service(req, scope)
	return a.CredStore.AddOrUpdate(credstore.Entry{Service: svc, Account: cred.Username, Secret: cred.Password})
}

func (a *AzureRepos) Erase(ctx context.Context, req credential.Request) error {
	org, err := organization(req)
	if err != nil {
		return err
	}
	remote := req.Protocol + "://" + req.Host + "/" + strings.TrimPrefix(req.Path, "/")
	if err := a.Cache.Erase(org, remote); err != nil {
		return err
	}
	scope := settings.Scope{Protocol: req.Protocol, Host: req.Host, Path: req.Path}
	svc := a.service(req, scope)
	if entries, err := a.CredStore.List(svc); err == nil {
		for _, e := range entries {
			_ = a.CredStore.Remove(svc, e.Account)
		}
	}
	return nil
}

// discoverAuthority probes the organization's Azure DevOps endpoint with
// an unauthenticated request and reads the WWW-Authenticate Bearer
// authorization_uri parameter, falling back to the X-VSS-ResourceTenant
// response header. When WWW-Authenticate carries multiple Bearer
// parameters, the first authorization_uri wins.
func (a *AzureRepos) discoverAuthority(ctx context.Context, org string) (string, error) {
	probeURL := fmt.Sprintf("https://dev.azure.com/%s/_apis/connectionData", org)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := a.httpClient().Do(req)
	if err != nil {
		return azureDefaultAuthority, nil
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if auth := resp.Header.Get("WWW-Authenticate"); auth != "" {
		if uri := extractAuthorizationURI(auth); uri != "" {
			return uri, nil
		}
	}
	if tenant := resp.Header.Get("X-VSS-ResourceTenant"); tenant != "" {
		if _, err := uuid.Parse(tenant); err == nil {
			return "https://login.microsoftonline.com/" + tenant, nil
		}
	}
	return azureDefaultAuthority, nil
}

func extractAuthorizationURI(header string) string {
	const key = "authorization_uri=\""
	idx := strings.Index(header, key)
	if idx < 0 {
		return ""
	}
	rest := header[idx+len(key):]
	end := strings.Index(rest, "\"")
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// acquireToken runs the interactive OAuth flow selected by
// credential.msauthFlow/GCM_MSAUTH_FLOW (auto|embedded|system|devicecode).
// There is no embedded web-view here, so "embedded" is treated the same as
// "system": the loopback-redirect browser flow. "auto" prefers the browser
// flow when one is wired, falling back to device code.
func (a *AzureRepos) acquireToken(ctx context.Context, authority string, scope settings.Scope) (oauthclient.TokenResult, error) {
	client := oauthclient.ClientConfig{
		ClientID: azureClientID,
		Scopes:   []string{azureResourceID + "/.default", "offline_access"},
		Endpoint: oauthclient.Endpoint{
			AuthorizationURL: authority + "/oauth2/v2.0/authorize",
			TokenURL:         authority + "/oauth2/v2.0/token",
			DeviceCodeURL:    authority + "/oauth2/v2.0/devicecode",
		},
	}

	mode := strings.ToLower(a.Resolver.GetString("credential", "msauthFlow", scope, "auto"))
	switch mode {
	case "devicecode":
		if a.Devices != nil {
			flow := &oauthclient.DeviceCodeFlow{Client: client, Poster: a.Devices, OnUserCode: a.OnDeviceCode}
			return flow.Run(ctx)
		}
	case "system", "embedded":
		if a.Browser != nil {
			flow := &oauthclient.AuthCodeFlow{Client: client, Browser: a.Browser, Exchanger: a.Exchanger}
			return flow.Run(ctx)
		}
	case "auto", "":
		if a.Browser != nil {
			flow := &oauthclient.AuthCodeFlow{Client: client, Browser: a.Browser, Exchanger: a.Exchanger}
			return flow.Run(ctx)
		}
		if a.Devices != nil {
			flow := &oauthclient.DeviceCodeFlow{Client: client, Poster: a.Devices, OnUserCode: a.OnDeviceCode}
			return flow.Run(ctx)
		}
	}
	return oauthclient.TokenResult{}, cmdutil.New(cmdutil.KindInteractionDisabled, "no interactive OAuth flow is available for credential.msauthFlow=%q", mode)
}

// exchangeForPAT trades the AAD access token for an Azure DevOps session
// token (a scoped, git-usable PAT): POST
// https://vssps.dev.azure.com/<org>/_apis/Token/SessionTokens with the
// vso.code_write and vso.packaging scopes.
func (a *AzureRepos) exchangeForPAT(ctx context.Context, org, accessToken string) (string, error) {
	body := strings.NewReader(fmt.Sprintf(`{"displayName":%q,"scope":"vso.code_write vso.packaging"}`, "git-credential-core: "+org))
	url := fmt.Sprintf("https://vssps.dev.azure.com/%s/_apis/Token/SessionTokens?api-version=6.0", org)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("session token request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("session token request failed: %s: %s", resp.Status, data)
	}

	var parsed struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parsing session token response: %w", err)
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("session token response had no token field")
	}
	return parsed.Token, nil
}
