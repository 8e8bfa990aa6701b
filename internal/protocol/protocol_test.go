package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git-credential-core/git-credential-core/internal/cmdutil"
	"github.com/git-credential-core/git-credential-core/internal/credential"
)

func TestReadRequest_Basic(t *testing.T) {
	in := "protocol=https\nhost=github.com\npath=foo/bar\n\n"
	req, err := ReadRequest(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "https", req.Protocol)
	assert.Equal(t, "github.com", req.Host)
	assert.Equal(t, "foo/bar", req.Path)
}

func TestReadRequest_CRLF(t *testing.T) {
	in := "protocol=https\r\nhost=github.com\r\n\r\n"
	req, err := ReadRequest(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "https", req.Protocol)
	assert.Equal(t, "github.com", req.Host)
}

func TestReadRequest_MalformedLineDropped(t *testing.T) {
	in := "protocol=https\nhost=github.com\nnotakeyvalue\n\n"
	req, err := ReadRequest(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "https", req.Protocol)
}

func TestReadRequest_NullByteFatal(t *testing.T) {
	in := "protocol=https\x00\nhost=github.com\n\n"
	_, err := ReadRequest(strings.NewReader(in))
	require.Error(t, err)
	kindErr, ok := isMalformed(err)
	require.True(t, ok)
	assert.NotEmpty(t, kindErr)
}

func TestReadRequest_MissingRequiredFields(t *testing.T) {
	_, err := ReadRequest(strings.NewReader("path=foo\n\n"))
	require.Error(t, err)
}

func TestReadRequest_CROnlyLineIsNotTerminator(t *testing.T) {
	// A lone CR (no following LF) is not a blank-line terminator: the LF
	// protocol only treats "\n" alone (or "\r\n") as a line end, so the CR
	// here starts an ordinary line and host is still read after it.
	in := "protocol=https\n\rx=1\nhost=github.com\n\n"
	req, err := ReadRequest(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "github.com", req.Host)
}

func TestReadRequest_TrailingCRWithoutLFIsUnterminated(t *testing.T) {
	// EOF arrives immediately after a dangling '\r' with no following '\n':
	// this must NOT be accepted as a blank-line terminator, unlike a genuine
	// "\r\n" blank line.
	in := "protocol=https\nhost=github.com\n\r"
	_, err := ReadRequest(strings.NewReader(in))
	require.Error(t, err)
	_, ok := isMalformed(err)
	require.True(t, ok)
}

func TestReadRequest_WWWAuthRepeated(t *testing.T) {
	in := "protocol=https\nhost=github.com\nwwwauth[]=Basic\nwwwauth[]=Negotiate\n\n"
	req, err := ReadRequest(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Basic", "Negotiate"}, req.WWWAuth)
}

func TestWriteResponse_RoundTrip(t *testing.T) {
	req := credential.Request{Protocol: "https", Host: "github.com", Path: "a/b"}
	cred := credential.Credential{Username: "alice", Password: "s3cret"}

	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, req, cred))

	got, err := ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "s3cret", got.Password)
	assert.Equal(t, "a/b", got.Path)
}

func TestWriteResponse_OmitsPathWhenAbsent(t *testing.T) {
	req := credential.Request{Protocol: "https", Host: "github.com"}
	cred := credential.Credential{Username: "alice", Password: "s3cret"}

	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, req, cred))
	assert.NotContains(t, buf.String(), "path=")
}

func isMalformed(err error) (string, bool) {
	cerr, ok := cmdutil.AsError(err)
	if !ok || cerr.Kind != cmdutil.KindMalformedInput {
		return "", false
	}
	return cerr.Message, true
}
