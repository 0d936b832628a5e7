// Package logging defines a minimal structured-logging interface used across
// the project, with slog and zap implementations.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "user logged in", "user_id", id)
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Backend names accepted by New.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// New builds the logger selected by backend. Development mode makes zap use
// its human-readable console encoder and lowers slog to debug level.
// The returned func flushes buffered output and should be deferred.
func New(backend string, development bool) (Logger, func(), error) {
	switch backend {
	case BackendZap:
		return newZapLogger(development)
	default:
		return newSlogLogger(os.Stdout, development), func() {}, nil
	}
}

const redacted = "[REDACTED]"

var secretKeys = map[string]struct{}{
	"password":      {},
	"passwordhash":  {},
	"oldpassword":   {},
	"newpassword":   {},
	"token":         {},
	"accesstoken":   {},
	"refreshtoken":  {},
	"authorization": {},
	"secret":        {},
}

func isSecretKey(key string) bool {
	_, ok := secretKeys[strings.ToLower(strings.ReplaceAll(key, "_", ""))]
	return ok
}

// redact returns args with the values of secret keys replaced. The input
// slice is never modified.
func redact(args []any) []any {
	var out []any
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case slog.Attr:
			if isSecretKey(v.Key) {
				out = ensureCopy(out, args)
				out[i] = slog.String(v.Key, redacted)
			}
		case string:
			if i+1 < len(args) {
				if isSecretKey(v) {
					out = ensureCopy(out, args)
					out[i+1] = redacted
				}
				i++
			}
		}
	}
	if out == nil {
		return args
	}
	return out
}

func ensureCopy(out, args []any) []any {
	if out != nil {
		return out
	}
	return append([]any(nil), args...)
}
