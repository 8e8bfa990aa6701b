// Package protocol implements the Git credential-helper wire format: a
// sequence of "key=value\n" lines terminated by a blank line (or EOF),
// read from the helper's stdin and written to its stdout.
package protocol

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/git-credential-core/git-credential-core/internal/cmdutil"
)

// scanLinesRequireLF is bufio.ScanLines without its EOF leniency: a token is
// only ever emitted for data terminated by a real '\n'. bufio.ScanLines
// synthesizes a final token out of whatever is left once the stream hits
// EOF, which means a stream truncated right after a dangling '\r' (no
// following '\n') gets that '\r' stripped to an empty token by its dropCR
// step, indistinguishable from a genuine blank-line terminator. Here,
// leftover bytes at EOF with no '\n' fail the scan with
// io.ErrUnexpectedEOF instead, so readDictionary reports a stream cut off
// mid-line (including after a dangling '\r') as malformed.
func scanLinesRequireLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, dropTrailingCR(data[0:i]), nil
	}
	if atEOF && len(data) > 0 {
		// Leftover bytes with no terminating '\n': EOF arrived mid-line.
		return 0, nil, io.ErrUnexpectedEOF
	}
	return 0, nil, nil
}

func dropTrailingCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[:len(data)-1]
	}
	return data
}

// readDictionary reads key/value lines until a blank line or EOF. Keys are
// lower-cased as they are read, so lookups are case-insensitive; the casing
// Git sent is not kept. A line with no '=' is dropped silently. A null byte
// in a line read before the terminator is fatal, as is EOF in the middle of
// a line.
func readDictionary(r io.Reader) (map[string][]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	scanner.Split(scanLinesRequireLF)

	values := make(map[string][]string)

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			// Blank line: dictionary terminator. Only a terminator if we've
			// already started reading a dictionary (an immediate blank line
			// on an empty stream is just an empty dictionary).
			return values, nil
		}

		if strings.IndexByte(line, 0) >= 0 {
			return nil, cmdutil.New(cmdutil.KindMalformedInput, "null byte in request stream")
		}

		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			// Malformed line: dropped silently to tolerate forward-compatible
			// Git extensions.
			continue
		}
		key := strings.ToLower(line[:idx])
		val := line[idx+1:]
		values[key] = append(values[key], val)
	}

	if err := scanner.Err(); err != nil {
		return nil, cmdutil.Wrap(cmdutil.KindMalformedInput, err, "reading request stream")
	}

	// EOF after complete lines (or on an empty stream) ends the dictionary
	// just as a blank line does.
	return values, nil
}

// writeDictionary writes entries in the given order as "key=value\n",
// followed by a terminating blank line, then flushes.
func writeDictionary(w io.Writer, order []string, values map[string]string) error {
	bw := bufio.NewWriter(w)
	for _, k := range order {
		v, ok := values[k]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%s=%s\n", k, v); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}
	return bw.Flush()
}
