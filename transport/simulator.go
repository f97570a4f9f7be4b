package transport

import (
	"io"
)

// Simulator is an in-process, goroutine-owned WinKeyer stand-in used by
// tests: writes are recorded, and a scripted reply queue feeds back the
// bytes a real keyer would have sent in response. A single goroutine owns
// all simulator state, so Read/Write/Close/PushReply from arbitrary
// caller goroutines never race each other.
type Simulator struct {
	closeCh   chan struct{}
	in        chan simRequest
	out       chan simResult
	scriptCh  chan replyOp
	writesReq chan chan [][]byte
}

type simRequest struct {
	write bool
	data  []byte
}

type simResult struct {
	n   int
	err error
}

// replyOp is a scripted action queued by PushReply/PushReplyFunc.
type replyOp struct {
	bytes []byte
	fn    func(written []byte) []byte
}

// NewSimulator starts a Simulator and returns it ready for use.
func NewSimulator() *Simulator {
	s := &Simulator{
		closeCh:   make(chan struct{}),
		in:        make(chan simRequest),
		out:       make(chan simResult),
		scriptCh:  make(chan replyOp),
		writesReq: make(chan chan [][]byte),
	}
	go s.run()
	return s
}

// run is the single goroutine that owns all Simulator state: the pending
// reply bytes, the queued scripted replies, and the write log. A blocked
// Read is parked (the request is stashed) until either a script arrives
// that produces bytes for it, or Close runs.
func (s *Simulator) run() {
	var pending []byte
	var script []replyOp
	var writes [][]byte
	var blockedRead *simRequest

	satisfyRead := func() bool {
		if blockedRead == nil || len(pending) == 0 {
			return false
		}
		n := copy(blockedRead.data, pending)
		pending = pending[n:]
		s.out <- simResult{n: n}
		blockedRead = nil
		return true
	}

	for {
		select {
		case <-s.closeCh:
			if blockedRead != nil {
				s.out <- simResult{n: 0, err: io.ErrClosedPipe}
			}
			s.closeCh <- struct{}{}
			return
		case op := <-s.scriptCh:
			script = append(script, op)
		case reply := <-s.writesReq:
			reply <- append([][]byte(nil), writes...)
		case r := <-s.in:
			if r.write {
				writes = append(writes, append([]byte(nil), r.data...))
				if len(script) > 0 {
					op := script[0]
					script = script[1:]
					reply := op.bytes
					if op.fn != nil {
						reply = op.fn(r.data)
					}
					pending = append(pending, reply...)
				}
				s.out <- simResult{n: len(r.data)}
				satisfyRead()
				continue
			}
			req := r
			blockedRead = &req
			satisfyRead()
		}
	}
}

// Read implements io.Reader. It blocks until a reply has been scripted
// and queued by a prior Write, matching the behaviour of a real keyer
// that only speaks after being spoken to.
func (s *Simulator) Read(data []byte) (int, error) {
	s.in <- simRequest{write: false, data: data}
	r := <-s.out
	return r.n, r.err
}

// Write implements io.Writer.
func (s *Simulator) Write(data []byte) (int, error) {
	s.in <- simRequest{write: true, data: data}
	r := <-s.out
	return r.n, r.err
}

// Close implements io.Closer and stops the owning goroutine.
func (s *Simulator) Close() error {
	s.closeCh <- struct{}{}
	<-s.closeCh
	return nil
}

// PushReply schedules bytes to be returned from the Read that follows the
// next Write, FIFO across multiple PushReply calls.
func (s *Simulator) PushReply(bytes []byte) {
	s.scriptCh <- replyOp{bytes: bytes}
}

// PushReplyFunc schedules a reply computed from the bytes of the next
// Write, e.g. to echo a byte back or to compute a status reply from a
// command's parameter.
func (s *Simulator) PushReplyFunc(fn func(written []byte) []byte) {
	s.scriptCh <- replyOp{fn: fn}
}

// Writes returns every byte slice passed to Write, in order, for test
// assertions against what the driver actually sent.
func (s *Simulator) Writes() [][]byte {
	reply := make(chan [][]byte)
	s.writesReq <- reply
	return <-reply
}

var _ io.ReadWriteCloser = (*Simulator)(nil)
