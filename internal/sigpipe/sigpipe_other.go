//go:build !unix

package sigpipe

// Ignore is a no-op on platforms without SIGPIPE semantics.
func Ignore() {}
