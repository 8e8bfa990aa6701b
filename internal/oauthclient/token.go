package oauthclient

import "time"

// TokenResult is an opaque bearer access token plus
// optional refresh/id tokens and an absolute expiry.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	IDToken      string

	// AccountIdentifier is derived from IDToken's claims (upn, then
	// preferred_username, then email) when HTTPExchanger parses the token
	// response; it is empty when there is no usable id_token.
	AccountIdentifier string
}

// Expired reports whether the token is past its expiry, with a small
// leeway to account for clock skew and request latency.
func (t TokenResult) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt.Add(-30 * time.Second))
}

// Endpoint describes the OAuth 2.0 authorization/token endpoints for a
// single authority, e.g. an Azure AD tenant or GitHub.com.
type Endpoint struct {
	AuthorizationURL string
	TokenURL         string
	DeviceCodeURL    string // empty if the authority doesn't support device-code
}

// ClientConfig is the static client registration a provider supplies.
type ClientConfig struct {
	ClientID string
	Scopes   []string
	Endpoint Endpoint
}
