package protocol

import (
	"io"

	"github.com/git-credential-core/git-credential-core/internal/cmdutil"
	"github.com/git-credential-core/git-credential-core/internal/credential"
)

// recognizedKeys are promoted into named Request fields; everything else is
// preserved verbatim (first value only) in Request.Extra.
var recognizedKeys = map[string]bool{
	"protocol": true, "host": true, "path": true,
	"username": true, "password": true, "wwwauth[]": true,
}

// ReadRequest reads a single dictionary from r and builds the immutable
// Request fingerprint. protocol and host are required; their absence
// is MalformedInput for get/store/erase (callers that don't need a request,
// like configure/unconfigure, never call this).
func ReadRequest(r io.Reader) (credential.Request, error) {
	values, err := readDictionary(r)
	if err != nil {
		return credential.Request{}, err
	}

	req := credential.Request{Extra: map[string]string{}}
	for k, vs := range values {
		if len(vs) == 0 {
			continue
		}
		switch k {
		case "protocol":
			req.Protocol = vs[0]
		case "host":
			req.Host = vs[0]
		case "path":
			req.Path = vs[0]
		case "username":
			req.Username = vs[0]
		case "password":
			req.Password = vs[0]
		case "wwwauth[]":
			req.WWWAuth = vs
		default:
			req.Extra[k] = vs[0]
		}
	}

	if req.Protocol == "" {
		return credential.Request{}, cmdutil.New(cmdutil.KindMalformedInput, "missing required field: protocol")
	}
	if req.Host == "" {
		return credential.Request{}, cmdutil.New(cmdutil.KindMalformedInput, "missing required field: host")
	}

	return req, nil
}
