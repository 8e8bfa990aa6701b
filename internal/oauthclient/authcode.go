package oauthclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// BrowserOpener abstracts launching the user's default browser, so tests
// never actually spawn one. The production implementation is a thin call
// to github.com/pkg/browser.OpenURL.
type BrowserOpener interface {
	Open(url string) error
}

// Exchanger performs the token-endpoint POST. Implemented over net/http in
// production; swapped for a fake in tests.
type Exchanger interface {
	Exchange(ctx context.Context, tokenURL string, form url.Values) (TokenResult, error)
}

// AuthCodeFlow drives the authorization-code-with-PKCE flow through the
// user's system browser.
type AuthCodeFlow struct {
	Client    ClientConfig
	Browser   BrowserOpener
	Exchanger Exchanger

	// RedirectPathPrefix lets callers pin a deterministic path in tests;
	// production leaves this empty and a random path segment is generated.
	RedirectPathPrefix string

	// OuterTimeout bounds the whole interactive flow (default 10
	// minutes). RequestTimeout bounds each individual HTTP call (default
	// 30 seconds).
	OuterTimeout   time.Duration
	RequestTimeout time.Duration
}

func (f *AuthCodeFlow) outerTimeout() time.Duration {
	if f.OuterTimeout > 0 {
		return f.OuterTimeout
	}
	return 10 * time.Minute
}

func (f *AuthCodeFlow) requestTimeout() time.Duration {
	if f.RequestTimeout > 0 {
		return f.RequestTimeout
	}
	return 30 * time.Second
}

// redirectResult carries the single accepted callback (or its absence on
// cancellation/timeout) from the loopback handler to Run.
type redirectResult struct {
	query url.Values
	err   error
}

// Run binds a loopback listener, generates PKCE material
// and state, opens the browser, accepts exactly one redirect, validates
// state, exchanges the code, and returns the token.
func (f *AuthCodeFlow) Run(ctx context.Context) (TokenResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.outerTimeout())
	defer cancel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return TokenResult{}, fmt.Errorf("binding loopback listener: %w", err)
	}
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port
	path := f.RedirectPathPrefix
	if path == "" {
		nonce, err := GenerateNonce()
		if err != nil {
			return TokenResult{}, err
		}
		path = "/" + nonce[:8]
	}
	redirectURI := fmt.Sprintf("http://127.0.0.1:%d%s", port, path)

	verifier, err := GenerateVerifier()
	if err != nil {
		return TokenResult{}, err
	}
	challenge := Challenge(verifier)

	state, err := GenerateNonce()
	if err != nil {
		return TokenResult{}, err
	}

	resultCh := make(chan redirectResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, successPage)
		select {
		case resultCh <- redirectResult{query: r.URL.Query()}:
		default:
			// A request after the first is ignored.
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == path {
			return
		}
		http.NotFound(w, r)
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(listener)
	defer srv.Close()

	authURL := buildAuthURL(f.Client, redirectURI, state, challenge)
	if err := f.Browser.Open(authURL); err != nil {
		return TokenResult{}, fmt.Errorf("opening browser: %w", err)
	}

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return TokenResult{}, ErrTimeout
		}
		return TokenResult{}, ErrCanceled
	case res := <-resultCh:
		if res.query.Get("state") != state {
			return TokenResult{}, ErrStateMismatch
		}
		if errMsg := res.query.Get("error"); errMsg != "" {
			return TokenResult{}, fmt.Errorf("authorization server returned error: %s", errMsg)
		}
		code := res.query.Get("code")
		return f.exchangeCode(ctx, code, verifier, redirectURI)
	}
}

func buildAuthURL(c ClientConfig, redirectURI, state, challenge string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", strings.Join(c.Scopes, " "))
	q.Set("state", state)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	return c.Endpoint.AuthorizationURL + "?" + q.Encode()
}

func (f *AuthCodeFlow) exchangeCode(ctx context.Context, code, verifier, redirectURI string) (TokenResult, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", f.Client.ClientID)
	form.Set("code_verifier", verifier)

	return exchangeWithRetry(ctx, f.Exchanger, f.Client.Endpoint.TokenURL, form, f.requestTimeout())
}

// exchangeWithRetry retries a transient failure up to three times with
// exponential backoff.
func exchangeWithRetry(ctx context.Context, ex Exchanger, tokenURL string, form url.Values, perRequestTimeout time.Duration) (TokenResult, error) {
	var lastErr error
	backoff := 250 * time.Millisecond
	for attempt := 0; attempt < 4; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, perRequestTimeout)
		result, err := ex.Exchange(reqCtx, tokenURL, form)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < 3 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			backoff *= 2
		}
	}
	return TokenResult{}, fmt.Errorf("oauth: token exchange failed after retries: %w", lastErr)
}

const successPage = `<!DOCTYPE html><html><head><title>Authentication complete</title></head>
<body><p>You may close this window and return to the command line.</p></body></html>`

// browserOpenerFunc adapts a func to BrowserOpener.
type browserOpenerFunc func(string) error

func (f browserOpenerFunc) Open(u string) error { return f(u) }

// NewBrowserOpener wraps a func(string) error as a BrowserOpener, for
// wiring github.com/pkg/browser.OpenURL without an adapter type at every
// call site.
func NewBrowserOpener(open func(string) error) BrowserOpener {
	return browserOpenerFunc(open)
}
