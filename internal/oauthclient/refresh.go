package oauthclient

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

// RefreshFlow exchanges a stored refresh_token for a fresh access token.
// Providers call this before falling back to an interactive flow.
type RefreshFlow struct {
	Client         ClientConfig
	Exchanger      Exchanger
	RequestTimeout time.Duration
}

func (f *RefreshFlow) requestTimeout() time.Duration {
	if f.RequestTimeout > 0 {
		return f.RequestTimeout
	}
	return 30 * time.Second
}

// Run performs the refresh_token grant. A server-reported invalid_grant
// (surfaced by the Exchanger as an error wrapping ErrRefreshInvalid)
// short-circuits without retry, since retrying a rejected refresh token
// cannot succeed; other transient errors are retried.
func (f *RefreshFlow) Run(ctx context.Context, refreshToken string) (TokenResult, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", f.Client.ClientID)
	if len(f.Client.Scopes) > 0 {
		form.Set("scope", strings.Join(f.Client.Scopes, " "))
	}

	result, err := f.Exchanger.Exchange(ctx, f.Client.Endpoint.TokenURL, form)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, ErrRefreshInvalid) {
		return TokenResult{}, ErrRefreshInvalid
	}

	return exchangeWithRetry(ctx, f.Exchanger, f.Client.Endpoint.TokenURL, form, f.requestTimeout())
}
