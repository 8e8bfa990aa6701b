package protocol

import (
	"fmt"
	"io"

	"github.com/git-credential-core/git-credential-core/internal/credential"
)

// WriteResponse writes the keys protocol, host, path (if present in the
// request), username, password, then a blank line, then flushes. This is
// the only thing the adapter ever writes to stdout for a `get`.
func WriteResponse(w io.Writer, req credential.Request, cred credential.Credential) error {
	order := []string{"protocol", "host", "path", "username", "password"}
	values := map[string]string{
		"protocol": req.Protocol,
		"host":     req.Host,
		"username": cred.Username,
		"password": cred.Password,
	}
	if req.Path != "" {
		values["path"] = req.Path
	}
	return writeDictionary(w, order, values)
}

// WriteError writes a "fatal: <message>" line to stderr. It is independent
// of the dictionary channel; never call it against stdout.
func WriteError(w io.Writer, message string) {
	fmt.Fprintf(w, "fatal: %s\n", message)
}
