// Package logger provides the helper's GCM_TRACE-driven tracer: a
// package-level zerolog.Logger with Debug/Info/Warn/Error wrapper funcs,
// nop until initialized. The process is short-lived and invoked once per
// Git operation, so there is no log rotation and no telemetry export.
package logger

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = zerolog.Nop()

	secretsUnmasked bool
)

// Init configures the global tracer from GCM_TRACE / GCM_TRACE_SECRETS.
//
// GCM_TRACE: unset or "false"/"0" disables tracing (nop logger). "true"/"1"
// traces to stderr. Any other value is treated as a file path to append to.
// GCM_TRACE_SECRETS: "true"/"1" disables secret redaction in traced fields.
func Init(traceEnv, traceSecretsEnv string) error {
	mu.Lock()
	defer mu.Unlock()

	secretsUnmasked = isTruthy(traceSecretsEnv)

	switch {
	case traceEnv == "" || isFalsy(traceEnv):
		log = zerolog.Nop()
		return nil
	case isTruthy(traceEnv):
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().Timestamp().Logger()
		return nil
	default:
		f, err := os.OpenFile(traceEnv, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		log = zerolog.New(f).With().Timestamp().Logger()
		return nil
	}
}

// SetOutput rebinds the tracer to an arbitrary writer (used by tests).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = zerolog.New(w).With().Timestamp().Logger()
}

// SecretsUnmasked reports whether GCM_TRACE_SECRETS allows a caller to log a
// secret value in the clear.
func SecretsUnmasked() bool {
	mu.RLock()
	defer mu.RUnlock()
	return secretsUnmasked
}

// Secret masks s for tracing unless secret tracing is enabled, in which
// case it returns s verbatim. Callers should wrap every secret value
// passed to a trace event with this.
func Secret(s string) string {
	if SecretsUnmasked() {
		return s
	}
	if s == "" {
		return ""
	}
	return "***"
}

func Debug() *zerolog.Event { mu.RLock(); defer mu.RUnlock(); return log.Debug() }
func Info() *zerolog.Event  { mu.RLock(); defer mu.RUnlock(); return log.Info() }
func Warn() *zerolog.Event  { mu.RLock(); defer mu.RUnlock(); return log.Warn() }
func Error() *zerolog.Event { mu.RLock(); defer mu.RUnlock(); return log.Error() }

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return false
}

func isFalsy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "off":
		return true
	}
	return false
}
