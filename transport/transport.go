// Package transport abstracts the serial link between the host and a
// WinKeyer device, so the I/O engine can run unmodified against a real
// port or an in-process simulator.
package transport

import "io"

// Port is the minimal surface the I/O engine needs from a serial
// connection: blocking byte-stream reads and writes, plus a Close that
// unblocks any in-flight Read.
type Port interface {
	io.Reader
	io.Writer
	io.Closer
}
