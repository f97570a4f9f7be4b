package keyer

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chadsbrown/winkey"
	"github.com/chadsbrown/winkey/ioengine"
	"github.com/chadsbrown/winkey/message"
	"github.com/chadsbrown/winkey/protocol"
)

// xoffWaitTimeout bounds how long a buffered (BG-queue) operation waits
// for the XOFF flow-control gate to clear before failing with
// ErrBufferFull.
const xoffWaitTimeout = 10 * time.Second

// Info describes the connected keyer, mirroring what a caller would show
// in a status line or log.
type Info struct {
	Name    string
	Version string
	Port    string
}

// Capabilities reports which optional operations the connected firmware
// supports. Every field is true for WK3/WK3.1; only SpeedPot, Sidetone,
// PTT, PaddleEcho, Prosigns, BufferedSpeed, Farnsworth and ContestSpacing
// are available on plain WK2.
type Capabilities struct {
	SpeedPot        bool
	Sidetone        bool
	PTTControl      bool
	PaddleEcho      bool
	Prosigns        bool
	BufferedSpeed   bool
	Farnsworth      bool
	ContestSpacing  bool
	SidetoneVolume  bool // WK3 only
	VCCRead         bool // WK3 only
}

// WinKeyer is the typed operation façade over a running I/O engine. It
// validates parameters, compiles templates, consults the XOFF gate for
// buffered sends, and translates engine results into the package's
// sentinel error taxonomy. The zero value is not usable; construct via
// Builder.Dial or Builder.DialWithPort.
type WinKeyer struct {
	engine      *ioengine.Engine
	bus         *ioengine.Bus
	version     protocol.Version
	versionByte byte
	portPath    string

	modeRegister byte // cached for read-modify-write paddle-mode changes
	minWPM       byte
	speedWPM     uint32 // cached commanded speed; GetSpeed has no wire round trip
}

// Info reports static connection info.
func (k *WinKeyer) Info() Info {
	return Info{
		Name:    fmt.Sprintf("WinKeyer %s", k.version),
		Version: fmt.Sprintf("%d", k.versionByte),
		Port:    k.portPath,
	}
}

// Capabilities reports the operation set available on the connected
// firmware.
func (k *WinKeyer) Capabilities() Capabilities {
	wk3 := k.version.SupportsWk3()
	return Capabilities{
		SpeedPot:       true,
		Sidetone:       true,
		PTTControl:     true,
		PaddleEcho:     true,
		Prosigns:       true,
		BufferedSpeed:  true,
		Farnsworth:     true,
		ContestSpacing: true,
		SidetoneVolume: wk3,
		VCCRead:        wk3,
	}
}

// Subscribe returns a channel of engine events (status changes, break-in,
// speed-pot changes, character-sent echoes, connect/disconnect).
// Call Unsubscribe when done.
func (k *WinKeyer) Subscribe() chan ioengine.Event { return k.bus.Subscribe() }

// Unsubscribe stops delivery to a channel returned by Subscribe.
func (k *WinKeyer) Unsubscribe(ch chan ioengine.Event) { k.bus.Unsubscribe(ch) }

// Xoff reports whether the keyer currently has flow control asserted.
func (k *WinKeyer) Xoff() bool { return k.engine.Xoff() }

// Close sends Host Close on the real-time queue, then shuts down the I/O
// engine and closes the transport, waiting up to timeout for the engine
// to exit voluntarily. The Host Close write is best-effort: a failure to
// queue it does not prevent shutdown.
func (k *WinKeyer) Close(timeout time.Duration) error {
	defer k.bus.Close()
	_ = k.engine.SubmitRTWrite(protocol.AdminHostClose())
	return k.engine.Shutdown(timeout)
}

// RawWriteRT issues a fire-and-forget write on the real-time queue, for
// admin/immediate commands this façade doesn't otherwise expose.
func (k *WinKeyer) RawWriteRT(data []byte) error {
	return k.engine.SubmitRTWrite(data)
}

// RawWrite queues verbatim bytes on the background queue after waiting
// for XOFF to clear, for operator-composed buffered traffic that doesn't
// go through SendMessage or SendTemplate.
func (k *WinKeyer) RawWrite(data []byte) error {
	if err := k.waitXoff(); err != nil {
		return err
	}
	return k.engine.SubmitBGWrite(data)
}

// RawCommand writes data and waits for expectedReply bytes of Ascii-framed
// response, for admin/immediate commands this façade doesn't otherwise
// expose (e.g. AdminGetValues, AdminReadVCC).
func (k *WinKeyer) RawCommand(data []byte, expectedReply int) ([]byte, error) {
	return k.engine.SubmitRTWriteAndRead(data, ioengine.Ascii, expectedReply)
}

// SendMessage validates text against WinKeyer's CW character set,
// upper-cases it, and queues it on the background queue after waiting
// for any asserted XOFF to clear.
func (k *WinKeyer) SendMessage(text string) error {
	if err := protocol.ValidateCWText(text); err != nil {
		return err
	}
	if err := k.waitXoff(); err != nil {
		return err
	}
	return k.engine.SubmitBGWrite(protocol.EncodeText(text))
}

// SendTemplate compiles template (see package message: prosign and
// inline buffered-speed escapes) and queues the result on the background
// queue after waiting for any asserted XOFF to clear. Unlike SendMessage
// this accepts "<AR>"-style prosign and "{20}"-style speed escapes.
func (k *WinKeyer) SendTemplate(template string) error {
	if err := k.waitXoff(); err != nil {
		return err
	}
	return k.engine.SubmitBGWrite(message.Compile(template))
}

// SendProsign sends a merged two-letter prosign via the buffered
// merge-letters command, waiting for XOFF to clear first.
func (k *WinKeyer) SendProsign(c1, c2 byte) error {
	if err := k.waitXoff(); err != nil {
		return err
	}
	return k.engine.SubmitBGWrite(protocol.BufferedMerge(c1, c2))
}

// Abort immediately clears the send buffer on the real-time queue,
// bypassing any pending background traffic.
func (k *WinKeyer) Abort() error {
	return k.engine.SubmitRTWrite(protocol.ClearBuffer())
}

// SetSpeed sets CW speed, 5-99 WPM.
func (k *WinKeyer) SetSpeed(wpm byte) error {
	if wpm < 5 || wpm > 99 {
		return fmt.Errorf("%w: speed %d out of range 5-99", winkey.ErrInvalidParameter, wpm)
	}
	if err := k.engine.SubmitRTWrite(protocol.SetSpeed(wpm)); err != nil {
		return err
	}
	atomic.StoreUint32(&k.speedWPM, uint32(wpm))
	return nil
}

// GetSpeed returns the last speed set via SetSpeed or the handshake's
// initial speed. WinKeyer has no "read current commanded speed" wire
// command (0x07 queries the speed *pot*, which tracks the knob position
// rather than the commanded rate and is reported asynchronously via
// SpeedPotChanged events instead), so this is a cached value rather than
// a round trip to the keyer.
func (k *WinKeyer) GetSpeed() (byte, error) {
	return byte(atomic.LoadUint32(&k.speedWPM)), nil
}

// SetTune keys down (for antenna tuning) or releases.
func (k *WinKeyer) SetTune(down bool) error {
	return k.engine.SubmitRTWrite(protocol.KeyImmediate(down))
}

// SetPTT asserts or releases PTT. It uses the buffered-PTT wire command
// but submits it on the real-time queue, so an explicit PTT change is
// never held up behind queued text the way a SendMessage call would be.
func (k *WinKeyer) SetPTT(on bool) error {
	return k.engine.SubmitRTWrite(protocol.BufferedPTT(on))
}

// SetWeight sets keying weight, 10-90.
func (k *WinKeyer) SetWeight(weight byte) error {
	if weight < 10 || weight > 90 {
		return fmt.Errorf("%w: weight %d out of range 10-90", winkey.ErrInvalidParameter, weight)
	}
	return k.engine.SubmitRTWrite(protocol.SetWeight(weight))
}

// SetRatio sets dit/dah ratio, 33-66.
func (k *WinKeyer) SetRatio(ratio byte) error {
	if ratio < 33 || ratio > 66 {
		return fmt.Errorf("%w: ratio %d out of range 33-66", winkey.ErrInvalidParameter, ratio)
	}
	return k.engine.SubmitRTWrite(protocol.SetRatio(ratio))
}

// SetFarnsworth sets Farnsworth speed, 0 to disable.
func (k *WinKeyer) SetFarnsworth(wpm byte) error {
	return k.engine.SubmitRTWrite(protocol.SetFarnsworth(wpm))
}

// SetPaddleMode changes paddle keying mode via a read-modify-write of the
// cached mode-register byte, so other mode-register flags are untouched.
func (k *WinKeyer) SetPaddleMode(mode protocol.PaddleMode) error {
	base := protocol.ModeRegister(k.modeRegister &^ 0x30)
	newByte := base.WithPaddleMode(mode)
	if err := k.engine.SubmitRTWrite(protocol.SetModeRegister(newByte)); err != nil {
		return err
	}
	k.modeRegister = newByte
	return nil
}

// SetSidetone sets the sidetone frequency in Hz (500-4000), converted to
// WinKeyer's selector byte by protocol.SidetoneByte using the version
// detected during the handshake.
func (k *WinKeyer) SetSidetone(hz int) error {
	if hz < 500 || hz > 4000 {
		return fmt.Errorf("%w: sidetone %d Hz out of range 500-4000", winkey.ErrInvalidParameter, hz)
	}
	return k.engine.SubmitRTWrite(protocol.SidetoneControl(protocol.SidetoneByte(k.version, hz)))
}

// SetSidetoneVolume sets sidetone volume (WK3 only): 1-2 low, 3-4 normal.
func (k *WinKeyer) SetSidetoneVolume(value byte) error {
	if !k.version.SupportsWk3() {
		return winkey.ErrUnsupported
	}
	return k.engine.SubmitRTWrite(protocol.AdminSetSidetoneVolume(value))
}

// SetPinConfig sets the pin configuration register.
func (k *WinKeyer) SetPinConfig(cfg protocol.PinConfig) error {
	return k.engine.SubmitRTWrite(protocol.SetPinConfig(byte(cfg)))
}

// SetPTTTiming sets PTT lead-in/tail in 10ms units, 0-250 each.
func (k *WinKeyer) SetPTTTiming(leadIn, tail byte) error {
	return k.engine.SubmitRTWrite(protocol.SetPTTTiming(leadIn, tail))
}

// SetPause pauses or resumes buffered sending.
func (k *WinKeyer) SetPause(paused bool) error {
	return k.engine.SubmitRTWrite(protocol.SetPause(paused))
}

// SetBufferedSpeed queues an inline buffered speed change, waiting for
// XOFF to clear first.
func (k *WinKeyer) SetBufferedSpeed(wpm byte) error {
	if err := k.waitXoff(); err != nil {
		return err
	}
	return k.engine.SubmitBGWrite(protocol.BufferedSpeedChange(wpm))
}

// CancelBufferedSpeed restores speed after a prior SetBufferedSpeed.
func (k *WinKeyer) CancelBufferedSpeed() error {
	if err := k.waitXoff(); err != nil {
		return err
	}
	return k.engine.SubmitBGWrite(protocol.CancelBufferedSpeed())
}

// BufferedWait inserts a timed pause (0-99 seconds) in the buffer.
func (k *WinKeyer) BufferedWait(seconds byte) error {
	if seconds > 99 {
		return fmt.Errorf("%w: wait %d exceeds 99 seconds", winkey.ErrInvalidParameter, seconds)
	}
	if err := k.waitXoff(); err != nil {
		return err
	}
	return k.engine.SubmitBGWrite(protocol.BufferedWait(seconds))
}

// PointerCommand issues a buffer pointer manipulation sub-command (reset,
// move-overwrite, move-append), with optional payload for sub-commands
// that carry one (e.g. add multiple nulls).
func (k *WinKeyer) PointerCommand(subcmd byte, data ...byte) error {
	if len(data) == 0 {
		return k.engine.SubmitBGWrite(protocol.PointerCmd(subcmd))
	}
	return k.engine.SubmitBGWrite(protocol.PointerCmdWithData(subcmd, data))
}

// SoftwarePaddle drives the software paddle bits directly.
func (k *WinKeyer) SoftwarePaddle(dit, dah bool) error {
	return k.engine.SubmitRTWrite(protocol.SoftwarePaddle(dit, dah))
}

// EchoTest sends the Binary-framed echo-test admin command and verifies
// the returned byte matches value exactly.
func (k *WinKeyer) EchoTest(value byte) error {
	reply, err := k.engine.SubmitRTWriteAndRead(protocol.AdminEchoTest(value), ioengine.Binary, 1)
	if err != nil {
		return err
	}
	if reply[0] != value {
		return fmt.Errorf("%w: echo test sent 0x%02X, got 0x%02X", winkey.ErrProtocol, value, reply[0])
	}
	return nil
}

// LoadDefaults re-issues the 16-byte Load Defaults command outside of the
// handshake, updating the cached mode-register byte.
func (k *WinKeyer) LoadDefaults(d protocol.LoadDefaults) error {
	if err := k.engine.SubmitRTWrite(protocol.LoadDefaultsCommand(d)); err != nil {
		return err
	}
	k.modeRegister = d.ModeRegister
	return nil
}

// waitXoff blocks buffered (BG-queue) operations while the flow-control
// gate is asserted, subscribing to the event bus for StatusChanged
// notifications rather than polling, and fails with ErrBufferFull if the
// gate hasn't cleared within xoffWaitTimeout.
func (k *WinKeyer) waitXoff() error {
	if !k.engine.Xoff() {
		return nil
	}
	sub := k.bus.Subscribe()
	defer k.bus.Unsubscribe(sub)

	deadline := time.NewTimer(xoffWaitTimeout)
	defer deadline.Stop()
	for k.engine.Xoff() {
		select {
		case <-sub:
		case <-deadline.C:
			return winkey.ErrBufferFull
		}
	}
	return nil
}
