package ioengine

import "github.com/rs/xid"

// Framing selects how WriteAndRead distinguishes the solicited reply
// bytes from unsolicited Status/SpeedPot bytes interleaved on the wire.
type Framing int

const (
	// Ascii framing treats any byte with the high bit set as unsolicited
	// (dispatched to the event bus) and only low bytes (0x00-0x7F) count
	// toward the expected reply. Used by keyer's RawCommand.
	Ascii Framing = iota

	// Binary framing counts every byte positionally toward the expected
	// reply, since the echoed value itself may have its high bit set.
	// Used only by EchoTest.
	Binary
)

// writeRequest asks the engine to send data and report the outcome.
type writeRequest struct {
	id    xid.ID
	queue string
	data  []byte
	reply chan error
}

// writeAndReadRequest asks the engine to send data, then collect
// expectedReply bytes of solicited response (per framing rules) within
// the engine's inner read timeout.
type writeAndReadRequest struct {
	id            xid.ID
	data          []byte
	framing       Framing
	expectedReply int
	reply         chan writeAndReadResult
}

type writeAndReadResult struct {
	data []byte
	err  error
}

// shutdownRequest asks the engine to exit its loop voluntarily.
type shutdownRequest struct {
	reply chan struct{}
}

// newRequestID stamps every request with a correlation id surfaced in
// debug logs, so overlapping RT/BG traffic is distinguishable in a log
// stream.
func newRequestID() xid.ID { return xid.New() }
