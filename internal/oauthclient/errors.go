package oauthclient

import "errors"

// Sentinel errors surfaced by the flows in this package; the provider
// layer maps ErrCanceled and ErrTimeout onto the cmdutil Canceled kind and
// every other flow error onto AuthFailed.
var (
	ErrStateMismatch  = errors.New("oauth: state mismatch in redirect")
	ErrCanceled       = errors.New("oauth: flow canceled")
	ErrTimeout        = errors.New("oauth: flow timed out")
	ErrExpiredToken   = errors.New("oauth: device code expired")
	ErrAccessDenied   = errors.New("oauth: access denied")
	ErrRefreshInvalid = errors.New("oauth: refresh token is no longer valid")
)
