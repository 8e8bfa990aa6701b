package oauthclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPExchanger is the production Exchanger/DeviceCodePoster: it POSTs
// application/x-www-form-urlencoded bodies to the token endpoint and
// parses the standard OAuth 2.0 JSON token response (RFC 6749 §5.1),
// the same shape golang.org/x/oauth2 itself parses.
type HTTPExchanger struct {
	HTTPClient *http.Client
}

func (e *HTTPExchanger) client() *http.Client {
	if e.HTTPClient != nil {
		return e.HTTPClient
	}
	return http.DefaultClient
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// Exchange implements Exchanger.
func (e *HTTPExchanger) Exchange(ctx context.Context, tokenURL string, form url.Values) (TokenResult, error) {
	tr, err := e.post(ctx, tokenURL, form)
	if err != nil {
		return TokenResult{}, err
	}
	if tr.Error != "" {
		if tr.Error == "invalid_grant" {
			return TokenResult{}, ErrRefreshInvalid
		}
		return TokenResult{}, fmt.Errorf("oauth: token endpoint returned %s: %s", tr.Error, tr.ErrorDesc)
	}
	return tr.toResult(), nil
}

// StartDeviceCode implements DeviceCodePoster.
func (e *HTTPExchanger) StartDeviceCode(ctx context.Context, deviceCodeURL string, form url.Values) (DeviceCodeStart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deviceCodeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return DeviceCodeStart{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client().Do(req)
	if err != nil {
		return DeviceCodeStart{}, fmt.Errorf("device code request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return DeviceCodeStart{}, fmt.Errorf("reading device code response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return DeviceCodeStart{}, fmt.Errorf("device code request failed: %s: %s", resp.Status, body)
	}

	var raw struct {
		DeviceCode      string `json:"device_code"`
		UserCode        string `json:"user_code"`
		VerificationURI string `json:"verification_uri"`
		ExpiresIn       int64  `json:"expires_in"`
		Interval        int64  `json:"interval"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return DeviceCodeStart{}, fmt.Errorf("parsing device code response: %w", err)
	}

	start := DeviceCodeStart{
		DeviceCode:      raw.DeviceCode,
		UserCode:        raw.UserCode,
		VerificationURI: raw.VerificationURI,
		Interval:        time.Duration(raw.Interval) * time.Second,
	}
	if raw.ExpiresIn > 0 {
		start.ExpiresAt = time.Now().Add(time.Duration(raw.ExpiresIn) * time.Second)
	}
	return start, nil
}

// PollDeviceCode implements DeviceCodePoster.
func (e *HTTPExchanger) PollDeviceCode(ctx context.Context, tokenURL string, form url.Values) (TokenResult, error) {
	tr, err := e.post(ctx, tokenURL, form)
	if err != nil {
		return TokenResult{}, err
	}
	if tr.Error != "" {
		return TokenResult{}, NewDeviceCodePollError(tr.Error)
	}
	return tr.toResult(), nil
}

func (e *HTTPExchanger) post(ctx context.Context, tokenURL string, form url.Values) (tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client().Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("reading token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return tokenResponse{}, fmt.Errorf("parsing token response (status %s): %w", resp.Status, err)
	}
	if resp.StatusCode/100 != 2 && tr.Error == "" {
		tr.Error = "http_" + strconv.Itoa(resp.StatusCode)
		tr.ErrorDesc = resp.Status
	}
	return tr, nil
}

func (tr tokenResponse) toResult() TokenResult {
	result := TokenResult{
		AccessToken:       tr.AccessToken,
		RefreshToken:      tr.RefreshToken,
		IDToken:           tr.IDToken,
		AccountIdentifier: accountFromIDToken(tr.IDToken),
	}
	if tr.ExpiresIn > 0 {
		result.ExpiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return result
}
