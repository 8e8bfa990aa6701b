package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_EmptyIsNop(t *testing.T) {
	require.NoError(t, Init("", ""))
	assert.False(t, SecretsUnmasked())
}

func TestInit_TruthyTracesToStderrWithoutError(t *testing.T) {
	require.NoError(t, Init("1", ""))
	require.NoError(t, Init("true", ""))
}

func TestInit_OtherValueIsFilePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.log")
	require.NoError(t, Init(path, ""))

	Info().Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestSecret_MaskedByDefault(t *testing.T) {
	require.NoError(t, Init("", ""))
	assert.Equal(t, "***", Secret("s3cret"))
	assert.Equal(t, "", Secret(""))
}

func TestSecret_UnmaskedWhenTraceSecretsEnabled(t *testing.T) {
	require.NoError(t, Init("", "true"))
	assert.Equal(t, "s3cret", Secret("s3cret"))
	require.NoError(t, Init("", ""))
}

func TestSetOutput_RedirectsEvents(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Warn().Msg("careful")
	assert.True(t, strings.Contains(buf.String(), "careful"))
}
