package iostreams

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTest_WiresProvidedBuffers(t *testing.T) {
	in := strings.NewReader("hello")
	var out, errOut bytes.Buffer

	streams := Test(in, &out, &errOut)

	assert.Same(t, in, streams.In)
	assert.Same(t, &out, streams.Out)
	assert.Same(t, &errOut, streams.ErrOut)
}

func TestTest_IsStdinTTYIsFalse(t *testing.T) {
	streams := Test(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	assert.False(t, streams.IsStdinTTY())
	assert.Zero(t, streams.StdinFd())
}

func TestSystem_BindsRealDescriptors(t *testing.T) {
	streams := System()
	assert.NotNil(t, streams.In)
	assert.NotNil(t, streams.Out)
	assert.NotNil(t, streams.ErrOut)
}
