// Package iostreams provides the testable stdin/stdout/stderr seam the
// protocol adapter and CLI commands read and write through, trimmed to
// what a non-interactive credential helper needs: no pager, no progress
// spinner, no alternate screen buffer.
package iostreams

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IOStreams bundles the three standard streams behind a struct so tests can
// substitute buffers for the real OS descriptors.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	stdinFd  uintptr
	hasStdin bool
}

// System returns an IOStreams bound to the process's real stdio.
func System() *IOStreams {
	return &IOStreams{
		In:       os.Stdin,
		Out:      os.Stdout,
		ErrOut:   os.Stderr,
		stdinFd:  os.Stdin.Fd(),
		hasStdin: true,
	}
}

// Test returns an IOStreams with in-memory buffers, for unit tests.
func Test(in io.Reader, out, errOut io.Writer) *IOStreams {
	return &IOStreams{In: in, Out: out, ErrOut: errOut}
}

// IsStdinTTY reports whether standard input is attached to a terminal. Used
// to decide whether interactive prompting is even possible when
// credential.interactive=auto.
func (s *IOStreams) IsStdinTTY() bool {
	if !s.hasStdin {
		return false
	}
	return term.IsTerminal(int(s.stdinFd))
}

// StdinFd returns the underlying file descriptor for standard input, for
// callers (password prompts) that need to pass it to term.ReadPassword.
func (s *IOStreams) StdinFd() uintptr {
	return s.stdinFd
}
