// Package winkey is a host-side driver for the K1EL WinKeyer family
// (WK2, WK3, WK3.1) of serial-attached Morse keyers.
//
// The driver is split into sub-packages: protocol (pure command/response
// codec), message (contest template compiler), transport (serial port
// abstraction), ioengine (the concurrent I/O engine and event bus) and
// keyer (the handshake and the typed operation façade). This root package
// holds only the error taxonomy shared across all of them.
package winkey

import "errors"

// Sentinel errors returned (possibly wrapped with additional context via
// fmt.Errorf's %w verb) by every package in this module. Callers should use
// errors.Is against these values rather than matching on message text.
var (
	// ErrTransport indicates an underlying I/O error while opening or
	// operating the serial transport, outside of the steady-state engine
	// read/write path (see ErrConnectionLost for that).
	ErrTransport = errors.New("winkey: transport error")

	// ErrProtocol indicates an unrecognised version byte or a structural
	// violation of the expected response framing.
	ErrProtocol = errors.New("winkey: protocol error")

	// ErrTimeout indicates a version read, command reply, or inner
	// write-and-read deadline was exceeded.
	ErrTimeout = errors.New("winkey: timeout")

	// ErrUnsupported indicates the requested operation needs WK3+ and the
	// connected keyer is a WK2.
	ErrUnsupported = errors.New("winkey: unsupported on this keyer version")

	// ErrInvalidParameter indicates an out-of-range value or an invalid CW
	// text character, rejected before anything was queued.
	ErrInvalidParameter = errors.New("winkey: invalid parameter")

	// ErrNotConnected indicates a request was made after the I/O engine
	// has already exited.
	ErrNotConnected = errors.New("winkey: not connected")

	// ErrConnectionLost indicates the engine observed EOF or a write
	// failure during steady-state operation.
	ErrConnectionLost = errors.New("winkey: connection lost")

	// ErrBufferFull indicates the XOFF gate did not clear within its
	// deadline.
	ErrBufferFull = errors.New("winkey: buffer full (xoff)")
)
