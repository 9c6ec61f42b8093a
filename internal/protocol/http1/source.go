package http1

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// Source is a pull-style byte source allowing to return the unconsumed rest of the data
// back. Readers layered on top of the same source therefore never lose the bytes
// belonging to each other. transport.Client satisfies it.
type Source interface {
	Read() ([]byte, error)
	Pushback([]byte)
}

// IsConnectionBroken reports whether the error means the peer has gone. Such errors are
// normal during the connection lifecycle and are worth less attention than the others.
func IsConnectionBroken(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE)
}
