package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"golang.org/x/term"

	"github.com/git-credential-core/git-credential-core/internal/iostreams"
)

// TTYPrompter implements provider.Prompter over a real terminal, echoing
// the username but masking the password via golang.org/x/term.ReadPassword.
type TTYPrompter struct {
	Streams *iostreams.IOStreams
}

func (p *TTYPrompter) PromptBasic(host string) (string, string, error) {
	fmt.Fprintf(p.Streams.ErrOut, "Username for '%s': ", host)
	reader := bufio.NewReader(p.Streams.In)
	username, err := reader.ReadString('\n')
	if err != nil {
		return "", "", err
	}
	username = strings.TrimRight(username, "\r\n")

	fmt.Fprintf(p.Streams.ErrOut, "Password for '%s': ", host)
	var password string
	if p.Streams.IsStdinTTY() {
		pw, err := term.ReadPassword(int(p.Streams.StdinFd()))
		fmt.Fprintln(p.Streams.ErrOut)
		if err != nil {
			return "", "", err
		}
		password = string(pw)
	} else {
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", err
		}
		password = strings.TrimRight(line, "\r\n")
	}

	return username, password, nil
}
