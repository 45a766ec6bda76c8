package logger

import (
	"bytes"
	"io"
	"log/slog"
	"os"
)

// captureStdOut redirects os.Stdout for fn so tests can assert on what
// the handlers wrote. Init must run inside fn: the zap sink binds to
// stdout at build time.
func captureStdOut(fn func()) string {
	orig := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() {
		os.Stdout = orig
	}()

	fn()

	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}

func attrsToArgs(attrs []slog.Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}
