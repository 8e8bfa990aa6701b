package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git-credential-core/git-credential-core/internal/credential"
	"github.com/git-credential-core/git-credential-core/internal/iostreams"
	"github.com/git-credential-core/git-credential-core/internal/provider"
	"github.com/git-credential-core/git-credential-core/internal/settings"
)

type stubProvider struct{ username, password string }

func (s *stubProvider) ID() string                          { return "stub" }
func (s *stubProvider) Matches(req credential.Request) bool { return true }
func (s *stubProvider) Get(ctx context.Context, req credential.Request) (credential.Credential, error) {
	return credential.Credential{Username: s.username, Password: s.password}, nil
}
func (s *stubProvider) Store(ctx context.Context, req credential.Request, cred credential.Credential) error {
	return nil
}
func (s *stubProvider) Erase(ctx context.Context, req credential.Request) error { return nil }

func testFactory(t *testing.T, in string, p provider.Provider) (*Factory, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	streams := iostreams.Test(strings.NewReader(in), &out, &out)
	resolver := settings.New(settings.MapGitConfig{}, nil, func(string) (string, bool) { return "", false })
	reg := provider.NewRegistry(resolver, p)
	return &Factory{
		IOStreams: streams,
		Resolver:  resolver,
		Registry:  func() (*provider.Registry, error) { return reg, nil },
	}, &out
}

func TestGetCmd_WritesCredential(t *testing.T) {
	input := "protocol=https\nhost=example.com\n\n"
	f, out := testFactory(t, input, &stubProvider{username: "alice", password: "s3cret"})

	cmd := newGetCmd(context.Background(), f)
	require.NoError(t, cmd.RunE(cmd, nil))

	assert.Contains(t, out.String(), "username=alice")
	assert.Contains(t, out.String(), "password=s3cret")
}

func TestGetCmd_DeclineWritesNothing(t *testing.T) {
	input := "protocol=https\nhost=example.com\n\n"
	f, out := testFactory(t, input, &stubProvider{})

	cmd := newGetCmd(context.Background(), f)
	require.NoError(t, cmd.RunE(cmd, nil))
	assert.Empty(t, out.String(), "a declining provider produces no output and exit 0")
}

func TestStoreCmd_NoOutput(t *testing.T) {
	input := "protocol=https\nhost=example.com\nusername=alice\npassword=s3cret\n\n"
	f, out := testFactory(t, input, &stubProvider{})

	cmd := newStoreCmd(context.Background(), f)
	require.NoError(t, cmd.RunE(cmd, nil))
	assert.Empty(t, out.String())
}

func TestEraseCmd_NoOutput(t *testing.T) {
	input := "protocol=https\nhost=example.com\n\n"
	f, out := testFactory(t, input, &stubProvider{})

	cmd := newEraseCmd(context.Background(), f)
	require.NoError(t, cmd.RunE(cmd, nil))
	assert.Empty(t, out.String())
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	f, out := testFactory(t, "", &stubProvider{})
	cmd := newVersionCmd(f)
	require.NoError(t, cmd.RunE(cmd, nil))
	assert.NotEmpty(t, out.String())
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, 0, ExitCodeFor(nil))
}
