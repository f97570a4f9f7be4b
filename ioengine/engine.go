// Package ioengine implements the concurrent I/O engine that owns a
// WinKeyer serial transport: a single goroutine multiplexes a
// real-time request queue, a background request queue, cancellation, and
// the inbound byte stream, classifying unsolicited bytes onto a
// broadcast event bus.
package ioengine

import (
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/chadsbrown/winkey"
	"github.com/chadsbrown/winkey/protocol"
	"github.com/chadsbrown/winkey/transport"
)

const (
	rtCapacity  = 32
	bgCapacity  = 64
	inboundReadTimeout  = 2 * time.Second
	defaultReplyTimeout = 5 * time.Second
)

type inboundByte struct {
	b   byte
	err error
}

// Engine owns a transport.Port for its entire lifetime. Only the engine's
// own goroutines touch it: the reader goroutine calls Read, and the main
// loop calls Write and, on Shutdown, Close.
type Engine struct {
	port    transport.Port
	bus     *Bus
	metrics *Metrics

	rt      chan any
	bg      chan any
	cancel  chan struct{}
	inbound chan inboundByte
	stopped chan struct{}

	xoff        atomic.Bool
	prevBreakin bool
	minWPM      byte
}

// New constructs an Engine around an already-opened transport. minWPM
// seeds the speed-pot decode base (IoState.min_wpm in spec.md's terms);
// the handshake passes its configured minimum WPM here, and SetMinWPM
// replaces it afterwards.
func New(port transport.Port, bus *Bus, metrics *Metrics, minWPM byte) *Engine {
	return &Engine{
		port:    port,
		bus:     bus,
		metrics: metrics,
		rt:      make(chan any, rtCapacity),
		bg:      make(chan any, bgCapacity),
		cancel:  make(chan struct{}),
		inbound: make(chan inboundByte),
		stopped: make(chan struct{}),
		minWPM:  minWPM,
	}
}

// Bus returns the engine's event bus.
func (e *Engine) Bus() *Bus { return e.bus }

// Xoff reports the current flow-control gate state.
func (e *Engine) Xoff() bool { return e.xoff.Load() }

// SetMinWPM updates the speed-pot decode base.
func (e *Engine) SetMinWPM(wpm byte) { e.minWPM = wpm }

// BGQueueLen reports the number of requests currently buffered on the
// background queue, for the BG-queue-depth gauge.
func (e *Engine) BGQueueLen() int { return len(e.bg) }

// Start spawns the reader goroutine and the engine's main loop. It
// returns immediately; the engine runs until Shutdown, Cancel, or a
// fatal transport error.
func (e *Engine) Start() {
	go e.readLoop()
	go e.mainLoop()
}

// readLoop is the single dedicated goroutine that performs blocking
// reads against the transport, since the main loop's select cannot poll
// an arbitrary io.Reader directly. It forwards one decoded-or-errored
// byte at a time over an unbuffered channel and exits after the first
// read error (the transport is assumed dead past that point).
func (e *Engine) readLoop() {
	buf := make([]byte, 1)
	for {
		n, err := e.port.Read(buf)
		if err != nil {
			select {
			case e.inbound <- inboundByte{err: err}:
			case <-e.stopped:
			}
			return
		}
		if n == 0 {
			continue
		}
		select {
		case e.inbound <- inboundByte{b: buf[0]}:
		case <-e.stopped:
			return
		}
	}
}

// Cancel raises the cancellation flag. Idempotent; safe to call more
// than once and from any goroutine. Matches spec.md's "drop semantics":
// dropping the façade raises the engine's cancellation flag and aborts
// its task without waiting.
func (e *Engine) Cancel() {
	select {
	case <-e.cancel:
	default:
		close(e.cancel)
	}
}

// Shutdown asks the engine to exit voluntarily and waits for it to do
// so, or for timeout to elapse.
func (e *Engine) Shutdown(timeout time.Duration) error {
	reply := make(chan struct{})
	req := &shutdownRequest{reply: reply}
	select {
	case e.rt <- req:
	case <-e.stopped:
		return nil
	case <-time.After(timeout):
		return winkey.ErrTimeout
	}
	select {
	case <-reply:
		return nil
	case <-e.stopped:
		return nil
	case <-time.After(timeout):
		return winkey.ErrTimeout
	}
}

// SubmitRTWrite queues a fire-and-forget write on the real-time queue.
func (e *Engine) SubmitRTWrite(data []byte) error {
	return e.submitWrite(e.rt, "rt", data)
}

// SubmitBGWrite queues a fire-and-forget write on the background queue.
// Callers are responsible for consulting the XOFF gate before calling
// this, per spec.md's façade design.
func (e *Engine) SubmitBGWrite(data []byte) error {
	return e.submitWrite(e.bg, "bg", data)
}

func (e *Engine) submitWrite(q chan any, queue string, data []byte) error {
	reply := make(chan error, 1)
	req := &writeRequest{id: newRequestID(), queue: queue, data: data, reply: reply}
	select {
	case q <- req:
	case <-e.stopped:
		return winkey.ErrNotConnected
	}
	select {
	case err := <-reply:
		return err
	case <-e.stopped:
		return winkey.ErrNotConnected
	case <-time.After(defaultReplyTimeout):
		return winkey.ErrTimeout
	}
}

// SubmitRTWriteAndRead queues a write-then-read on the real-time queue
// and waits for expectedReply bytes (or an error).
func (e *Engine) SubmitRTWriteAndRead(data []byte, framing Framing, expectedReply int) ([]byte, error) {
	reply := make(chan writeAndReadResult, 1)
	req := &writeAndReadRequest{
		id:            newRequestID(),
		data:          data,
		framing:       framing,
		expectedReply: expectedReply,
		reply:         reply,
	}
	select {
	case e.rt <- req:
	case <-e.stopped:
		return nil, winkey.ErrNotConnected
	}
	select {
	case r := <-reply:
		return r.data, r.err
	case <-e.stopped:
		return nil, winkey.ErrNotConnected
	case <-time.After(defaultReplyTimeout):
		return nil, winkey.ErrTimeout
	}
}

// mainLoop is the engine's single consumer goroutine. Priority order is
// cancellation > RT queue > BG queue > inbound transport read, realized
// as a cascade of non-blocking selects (Go's select has no biased mode)
// followed by one blocking select that still retries the cascade on its
// next iteration.
func (e *Engine) mainLoop() {
	defer close(e.stopped)
	exitState := exitVoluntary
	for {
		// Level 1: cancellation only.
		select {
		case <-e.cancel:
			goto exit
		default:
		}

		// Level 2: cancellation, then RT.
		select {
		case <-e.cancel:
			goto exit
		case req := <-e.rt:
			if st := e.handle(req); st != exitContinue {
				exitState = st
				goto exit
			}
			continue
		default:
		}

		// Level 3: cancellation, RT, then BG.
		select {
		case <-e.cancel:
			goto exit
		case req := <-e.rt:
			if st := e.handle(req); st != exitContinue {
				exitState = st
				goto exit
			}
			continue
		case req := <-e.bg:
			if st := e.handle(req); st != exitContinue {
				exitState = st
				goto exit
			}
			continue
		default:
		}

		// Level 4: block on everything, including inbound bytes.
		select {
		case <-e.cancel:
			goto exit
		case req := <-e.rt:
			if st := e.handle(req); st != exitContinue {
				exitState = st
				goto exit
			}
		case req := <-e.bg:
			if st := e.handle(req); st != exitContinue {
				exitState = st
				goto exit
			}
		case ib := <-e.inbound:
			if e.handleInbound(ib) {
				exitState = exitFatal
				goto exit
			}
		}
	}
exit:
	if exitState == exitFatal {
		e.bus.Publish(Event{Kind: EventDisconnected})
	}
}

// exitSignal reports what a handled request means for the main loop:
// keep running, stop silently (voluntary Shutdown/Cancel), or stop and
// publish Disconnected (a fatal transport error).
type exitSignal int

const (
	exitContinue exitSignal = iota
	exitVoluntary
	exitFatal
)

// handle dispatches one request and reports how the loop should proceed.
func (e *Engine) handle(req any) exitSignal {
	switch r := req.(type) {
	case *writeRequest:
		err := e.writeFull(r.data)
		log.Printf("wk: %s %s: write % X: %v", r.queue, r.id, r.data, err)
		r.reply <- err
		if err != nil {
			return exitFatal
		}
		return exitContinue
	case *writeAndReadRequest:
		data, err := e.writeAndRead(r.data, r.framing, r.expectedReply)
		log.Printf("wk: rt %s: write-and-read % X: got % X: %v", r.id, r.data, data, err)
		r.reply <- writeAndReadResult{data: data, err: err}
		if err != nil && errors.Is(err, winkey.ErrConnectionLost) {
			return exitFatal
		}
		return exitContinue
	case *shutdownRequest:
		e.port.Close()
		close(r.reply)
		return exitVoluntary
	default:
		return exitContinue
	}
}

// writeFull flushes data atomically: the underlying write is
// line-granular, so a short write is re-driven until complete or an
// error occurs.
func (e *Engine) writeFull(data []byte) error {
	for len(data) > 0 {
		n, err := e.port.Write(data)
		if e.metrics != nil {
			e.metrics.AddBytesWritten(n)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", winkey.ErrConnectionLost, err)
		}
		data = data[n:]
	}
	return nil
}

func (e *Engine) writeAndRead(data []byte, framing Framing, expected int) ([]byte, error) {
	if err := e.writeFull(data); err != nil {
		return nil, err
	}
	out := make([]byte, 0, expected)
	timer := time.NewTimer(inboundReadTimeout)
	defer timer.Stop()
	for len(out) < expected {
		select {
		case ib := <-e.inbound:
			if ib.err != nil {
				return nil, fmt.Errorf("%w: %v", winkey.ErrConnectionLost, ib.err)
			}
			if e.metrics != nil {
				e.metrics.AddBytesRead(1)
			}
			if framing == Ascii && ib.b&0x80 != 0 {
				e.dispatchUnsolicited(ib.b)
				continue
			}
			out = append(out, ib.b)
		case <-timer.C:
			return nil, winkey.ErrTimeout
		case <-e.cancel:
			return nil, winkey.ErrNotConnected
		}
	}
	return out, nil
}

// handleInbound classifies one idle-path inbound byte and dispatches it
// to the event bus, or treats a read error as connection loss.
func (e *Engine) handleInbound(ib inboundByte) (fatal bool) {
	if ib.err != nil {
		return true
	}
	if e.metrics != nil {
		e.metrics.AddBytesRead(1)
	}
	e.dispatchUnsolicited(ib.b)
	return false
}

// dispatchUnsolicited classifies a byte not claimed by an in-flight
// WriteAndRead's expected reply and publishes the matching event.
// prev_breakin is updated exactly once per inbound Status byte, before
// the status event is published, and a 0->1 transition publishes
// PaddleBreakIn first.
func (e *Engine) dispatchUnsolicited(b byte) {
	resp := protocol.ClassifyByte(b)
	switch resp.Kind {
	case protocol.KindStatus:
		e.xoff.Store(resp.Status.Xoff)
		if resp.Status.Breakin && !e.prevBreakin {
			e.bus.Publish(Event{Kind: EventPaddleBreakIn})
		}
		e.prevBreakin = resp.Status.Breakin
		if e.metrics != nil {
			e.metrics.IncStatusEvents()
			if resp.Status.Xoff {
				e.metrics.IncXoffTransitions()
			}
		}
		e.bus.Publish(Event{Kind: EventStatusChanged, Status: resp.Status})
	case protocol.KindSpeedPot:
		wpm := protocol.DecodeSpeedPot(resp.PotValue, e.minWPM)
		if e.metrics != nil {
			e.metrics.IncSpeedPotEvents()
		}
		e.bus.Publish(Event{Kind: EventSpeedPotChanged, WPM: wpm})
	case protocol.KindEcho:
		if e.metrics != nil {
			e.metrics.IncEchoEvents()
		}
		e.bus.Publish(Event{Kind: EventCharacterSent, Char: resp.Echo})
	}
}
