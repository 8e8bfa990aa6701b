// Command git-credential-core is the universal Git credential helper
// entry point: it dispatches on argv[1] ("get"/"store"/"erase"/...) per
// the git-credential-helper contract and maps the error taxonomy onto
// process exit codes.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pkg/browser"

	"github.com/git-credential-core/git-credential-core/internal/azrepos"
	appcmd "github.com/git-credential-core/git-credential-core/internal/cmd"
	"github.com/git-credential-core/git-credential-core/internal/cmdutil"
	"github.com/git-credential-core/git-credential-core/internal/credstore"
	"github.com/git-credential-core/git-credential-core/internal/iostreams"
	"github.com/git-credential-core/git-credential-core/internal/logger"
	"github.com/git-credential-core/git-credential-core/internal/oauthclient"
	"github.com/git-credential-core/git-credential-core/internal/provider"
	"github.com/git-credential-core/git-credential-core/internal/settings"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := logger.Init(os.Getenv("GCM_TRACE"), os.Getenv("GCM_TRACE_SECRETS")); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: initializing logger: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	streams := iostreams.System()

	dataDir, err := dataDirectory()
	if err != nil {
		fmt.Fprintf(streams.ErrOut, "fatal: %v\n", err)
		return 1
	}

	resolver := settings.New(settings.ExecGitConfig{}, settings.KnownEnvVars, settings.OSEnv)

	factory := &appcmd.Factory{
		IOStreams: streams,
		Resolver:  resolver,
		Registry: func() (*provider.Registry, error) {
			return buildRegistry(streams, resolver, dataDir)
		},
	}

	root := appcmd.NewRootCmd(ctx, factory)
	root.SetArgs(os.Args[1:])
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.ErrOut)

	if err := root.Execute(); err != nil {
		if !errors.Is(err, cmdutil.SilentError) {
			fmt.Fprintf(streams.ErrOut, "fatal: %v\n", err)
		}
		return appcmd.ExitCodeFor(err)
	}
	return 0
}

func dataDirectory() (string, error) {
	if dir := os.Getenv("GCM_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".git-credential-core"), nil
}

func buildRegistry(streams *iostreams.IOStreams, resolver *settings.Resolver, dataDir string) (*provider.Registry, error) {
	backendKind := credstore.BackendKind(resolver.GetString("credential", "credentialStore", settings.Scope{}, ""))
	plaintextPath := resolver.GetString("credential", "plaintextStorePath", settings.Scope{}, filepath.Join(dataDir, "store"))

	backend, err := credstore.Select(credstore.SelectOptions{
		Kind:               backendKind,
		PlaintextOptIn:     backendKind == credstore.BackendPlaintextFile,
		DataDir:            dataDir,
		PlaintextStorePath: plaintextPath,
	})
	if err != nil {
		return nil, err
	}
	store := credstore.New(backend)

	httpClient, err := proxyClient(resolver.GetString("credential", "httpProxy", settings.Scope{}, ""))
	if err != nil {
		return nil, fmt.Errorf("credential.httpProxy: %w", err)
	}

	cache := azrepos.Open(filepath.Join(dataDir, "azure-repos.ini"))
	exchanger := &oauthclient.HTTPExchanger{HTTPClient: httpClient}
	prompter := &appcmd.TTYPrompter{Streams: streams}

	azure := &provider.AzureRepos{
		Cache:     cache,
		CredStore: store,
		Resolver:  resolver,
		HTTP:      httpClient,
		Exchanger: exchanger,
		Browser:   oauthclient.NewBrowserOpener(browser.OpenURL),
		Devices:   exchanger,
		OnDeviceCode: func(verificationURI, userCode string) {
			fmt.Fprintf(streams.ErrOut, "To authenticate, visit %s and enter code %s\n", verificationURI, userCode)
		},
	}

	gh := &provider.GitHub{
		CredStore: store,
		Resolver:  resolver,
		HTTP:      httpClient,
		Browser:   oauthclient.NewBrowserOpener(browser.OpenURL),
		Exchanger: exchanger,
		Devices:   exchanger,
		OnUserCode: func(verificationURI, userCode string) {
			fmt.Fprintf(streams.ErrOut, "To authenticate, visit %s and enter code %s\n", verificationURI, userCode)
		},
		Prompt: prompter,
	}

	generic := &provider.Generic{CredStore: store, Resolver: resolver, Prompt: prompter, TTY: streams.IsStdinTTY}

	return provider.NewRegistry(resolver, generic, azure, gh), nil
}

// proxyClient builds the *http.Client every provider's outbound requests
// share, so credential.httpProxy/GCM_HTTP_PROXY applies uniformly to
// Azure authority discovery, PAT exchange, OAuth token requests, and
// GitHub's REST lookup alike. An empty rawProxyURL returns http.DefaultClient
// unmodified (the environment's own HTTP_PROXY/HTTPS_PROXY still apply via
// http.ProxyFromEnvironment).
func proxyClient(rawProxyURL string) (*http.Client, error) {
	if rawProxyURL == "" {
		return http.DefaultClient, nil
	}
	proxyURL, err := url.Parse(rawProxyURL)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy URL: %w", err)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(proxyURL)
	return &http.Client{Transport: transport}, nil
}
