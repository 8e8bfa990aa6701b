package oauthclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DeviceCodeStart is the result of the device-code POST: the code to poll
// with, and the code+URL to show the user.
type DeviceCodeStart struct {
	DeviceCode      string
	UserCode        string
	VerificationURI string
	ExpiresAt       time.Time
	Interval        time.Duration
}

// DeviceCodePoster performs the device-code start and poll POSTs. The
// production implementation talks to ClientConfig.Endpoint.DeviceCodeURL
// and Endpoint.TokenURL; tests supply a fake.
type DeviceCodePoster interface {
	StartDeviceCode(ctx context.Context, deviceCodeURL string, form url.Values) (DeviceCodeStart, error)
	PollDeviceCode(ctx context.Context, tokenURL string, form url.Values) (TokenResult, error)
}

// deviceCodePollError carries the well-known OAuth device-flow error codes
// (RFC 8628 §3.5) so Run can distinguish "keep waiting" from
// terminal failure.
type deviceCodePollError struct {
	code string
}

func (e *deviceCodePollError) Error() string { return "oauth: device poll error: " + e.code }

// ErrDeviceCodePollError is a *deviceCodePollError with an empty code. The
// code field is unexported, so code outside this package cannot read the
// raw RFC 8628 code; Run turns expired_token and access_denied into the
// ErrExpiredToken and ErrAccessDenied sentinels declared in errors.go.
var ErrDeviceCodePollError = &deviceCodePollError{}

// DeviceCodeFlow drives the RFC 8628 device-code flow: start, display
// the user code, then poll the token endpoint at the server-specified
// interval until success, denial, or expiry.
type DeviceCodeFlow struct {
	Client ClientConfig
	Poster DeviceCodePoster

	// OnUserCode is invoked once with the verification URI and user code
	// so the caller can render it; required.
	OnUserCode func(verificationURI, userCode string)

	RequestTimeout time.Duration
}

func (f *DeviceCodeFlow) requestTimeout() time.Duration {
	if f.RequestTimeout > 0 {
		return f.RequestTimeout
	}
	return 30 * time.Second
}

// Run executes the full start+poll sequence and returns the acquired
// token, or ErrExpiredToken/ErrAccessDenied/ErrCanceled/ErrTimeout.
func (f *DeviceCodeFlow) Run(ctx context.Context) (TokenResult, error) {
	startForm := url.Values{}
	startForm.Set("client_id", f.Client.ClientID)
	startForm.Set("scope", strings.Join(f.Client.Scopes, " "))

	startCtx, cancel := context.WithTimeout(ctx, f.requestTimeout())
	start, err := f.Poster.StartDeviceCode(startCtx, f.Client.Endpoint.DeviceCodeURL, startForm)
	cancel()
	if err != nil {
		return TokenResult{}, fmt.Errorf("starting device code flow: %w", err)
	}

	if f.OnUserCode != nil {
		f.OnUserCode(start.VerificationURI, start.UserCode)
	}

	interval := start.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	pollForm := url.Values{}
	pollForm.Set("grant_type", "urn:ietf:params:oauth:grant-type:device_code")
	pollForm.Set("device_code", start.DeviceCode)
	pollForm.Set("client_id", f.Client.ClientID)

	for {
		if !start.ExpiresAt.IsZero() && timeNow().After(start.ExpiresAt) {
			return TokenResult{}, ErrExpiredToken
		}

		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return TokenResult{}, ErrTimeout
			}
			return TokenResult{}, ErrCanceled
		case <-time.After(interval):
		}

		pollCtx, cancel := context.WithTimeout(ctx, f.requestTimeout())
		result, err := f.Poster.PollDeviceCode(pollCtx, f.Client.Endpoint.TokenURL, pollForm)
		cancel()
		if err == nil {
			return result, nil
		}

		var pollErr *deviceCodePollError
		if !errors.As(err, &pollErr) {
			return TokenResult{}, fmt.Errorf("polling device code: %w", err)
		}
		switch pollErr.code {
		case "authorization_pending":
			continue
		case "slow_down":
			interval += 5 * time.Second
			continue
		case "expired_token":
			return TokenResult{}, ErrExpiredToken
		case "access_denied":
			return TokenResult{}, ErrAccessDenied
		default:
			return TokenResult{}, fmt.Errorf("oauth: device poll rejected: %s", pollErr.code)
		}
	}
}

// NewDeviceCodePollError constructs the sentinel-compatible poll error for
// Poster implementations outside this package (the production HTTP
// Exchanger maps the provider's JSON "error" field onto this).
func NewDeviceCodePollError(code string) error {
	return &deviceCodePollError{code: code}
}

// timeNow is a var so tests can freeze expiry checks without sleeping.
var timeNow = time.Now
