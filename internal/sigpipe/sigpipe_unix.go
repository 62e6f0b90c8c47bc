//go:build unix

// Package sigpipe suppresses the default SIGPIPE-kills-the-process
// behavior on Unix so that writing to a gateway connection the
// remote end has already closed surfaces as an EPIPE error instead
// of terminating the process (§4.G).
package sigpipe

import (
	"os/signal"

	"golang.org/x/sys/unix"
)

// Ignore installs a process-wide SIGPIPE ignore. It is idempotent:
// calling it more than once is harmless.
func Ignore() {
	signal.Ignore(unix.SIGPIPE)
}
