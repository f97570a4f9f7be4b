// Package keyer implements the handshake that brings a freshly opened
// WinKeyer transport into a known state, and the typed operation façade
// built on top of the running I/O engine.
package keyer

import (
	"fmt"
	"time"

	"github.com/chadsbrown/winkey"
	"github.com/chadsbrown/winkey/ioengine"
	"github.com/chadsbrown/winkey/protocol"
	"github.com/chadsbrown/winkey/transport"
)

// wk3ModeOpcode is the admin sub-opcode the handshake writes to select
// WK3 extended mode. The datasheet lineage here is genuinely ambiguous:
// one revision of this driver's own command table names 0x14 as "set WK3
// mode" (see protocol.AdminSetWK3Mode), while the handshake that was
// actually exercised against hardware sends 0x13. Builder defaults to the
// latter, matching the tested path; UseWK3AltOpcode switches to 0x14 for
// firmware that documents it the other way.
const wk3ModeOpcode = 0x13
const wk3ModeOpcodeAlt = 0x14

// Builder configures and performs the handshake for a WinKeyer connection.
// Method chaining mirrors the fluent configuration style used throughout
// this driver's façade.
type Builder struct {
	portPath      string
	speedWPM      byte
	paddleMode    protocol.PaddleMode
	modeFlags     protocol.ModeRegister
	pinConfig     protocol.PinConfig
	sidetone      byte
	weight        byte
	pttLeadIn     byte
	pttTail       byte
	minWPM        byte
	wpmRange      byte
	farnsworthWPM byte
	ditDahRatio   byte
	preferWK3     bool
	wk3AltOpcode  bool
	metrics       *ioengine.Metrics
}

// NewBuilder creates a builder for the serial device at portPath, seeded
// with the same factory-reasonable defaults as protocol.DefaultLoadDefaults.
func NewBuilder(portPath string) *Builder {
	return &Builder{
		portPath:      portPath,
		speedWPM:      20,
		paddleMode:    protocol.IambicB,
		modeFlags:     protocol.DefaultModeRegister,
		pinConfig:     protocol.DefaultPinConfig,
		sidetone:      5,
		weight:        50,
		minWPM:        10,
		wpmRange:      25,
		ditDahRatio:   50,
		preferWK3:     true,
	}
}

// Speed sets the initial CW speed in WPM (5-99).
func (b *Builder) Speed(wpm byte) *Builder { b.speedWPM = wpm; return b }

// PaddleMode sets the paddle keying mode.
func (b *Builder) PaddleMode(mode protocol.PaddleMode) *Builder { b.paddleMode = mode; return b }

// ContestSpacing enables or disables contest (fixed inter-character)
// spacing in the mode register.
func (b *Builder) ContestSpacing(enabled bool) *Builder {
	return b.withModeFlag(protocol.ModeContestSpacing, enabled)
}

// AutoSpace enables or disables automatic word spacing.
func (b *Builder) AutoSpace(enabled bool) *Builder {
	return b.withModeFlag(protocol.ModeAutoSpace, enabled)
}

// SwapPaddles enables or disables dit/dah paddle swap.
func (b *Builder) SwapPaddles(enabled bool) *Builder {
	return b.withModeFlag(protocol.ModeSwapPaddles, enabled)
}

func (b *Builder) withModeFlag(flag protocol.ModeRegister, enabled bool) *Builder {
	if enabled {
		b.modeFlags |= flag
	} else {
		b.modeFlags &^= flag
	}
	return b
}

// Sidetone sets the sidetone frequency selector (1-10).
func (b *Builder) Sidetone(value byte) *Builder { b.sidetone = value; return b }

// Weight sets the keying weight (10-90, default 50).
func (b *Builder) Weight(value byte) *Builder { b.weight = value; return b }

// PTTLeadIn sets PTT lead-in time in milliseconds, converted to the
// wire's 10ms units and capped at 250 (2500ms).
func (b *Builder) PTTLeadIn(ms int) *Builder {
	b.pttLeadIn = clampTenMS(ms)
	return b
}

// PTTTail sets PTT tail time in milliseconds, same conversion as
// PTTLeadIn.
func (b *Builder) PTTTail(ms int) *Builder {
	b.pttTail = clampTenMS(ms)
	return b
}

func clampTenMS(ms int) byte {
	v := ms / 10
	if v > 250 {
		v = 250
	}
	if v < 0 {
		v = 0
	}
	return byte(v)
}

// MinWPM sets the speed-pot range's minimum WPM.
func (b *Builder) MinWPM(wpm byte) *Builder { b.minWPM = wpm; return b }

// WPMRange sets the speed-pot range width in WPM.
func (b *Builder) WPMRange(rng byte) *Builder { b.wpmRange = rng; return b }

// Farnsworth sets the Farnsworth speed (0 disables it).
func (b *Builder) Farnsworth(wpm byte) *Builder { b.farnsworthWPM = wpm; return b }

// DitDahRatio sets the dit/dah ratio (33-66, default 50 for 3:1).
func (b *Builder) DitDahRatio(ratio byte) *Builder { b.ditDahRatio = ratio; return b }

// PinConfig overrides the pin configuration sent during the handshake.
func (b *Builder) PinConfig(cfg protocol.PinConfig) *Builder { b.pinConfig = cfg; return b }

// PreferWK3 controls whether the handshake selects WK3 extended mode when
// the connected hardware supports it (default true).
func (b *Builder) PreferWK3(enabled bool) *Builder { b.preferWK3 = enabled; return b }

// UseWK3AltOpcode selects 0x14 instead of 0x13 for the WK3 mode-select
// admin command in step 4 of the handshake, for firmware dialects that
// document the alternate assignment.
func (b *Builder) UseWK3AltOpcode(enabled bool) *Builder { b.wk3AltOpcode = enabled; return b }

// Metrics attaches a prometheus.Collector-compatible engine metrics
// instance; if never called the engine runs without one.
func (b *Builder) Metrics(m *ioengine.Metrics) *Builder { b.metrics = m; return b }

// Dial opens the configured serial device and performs the handshake.
func (b *Builder) Dial() (*WinKeyer, error) {
	port, err := transport.OpenSerial(b.portPath)
	if err != nil {
		return nil, err
	}
	kw, err := b.dialWithPort(port)
	if err != nil {
		port.Close()
		return nil, err
	}
	return kw, nil
}

// DialWithPort performs the handshake against an already-open Port,
// primarily for tests driving transport.Simulator.
func (b *Builder) DialWithPort(port transport.Port) (*WinKeyer, error) {
	return b.dialWithPort(port)
}

func (b *Builder) dialWithPort(port transport.Port) (*WinKeyer, error) {
	// Step 1: defensive close, then drain whatever the keyer still has
	// queued from a previous session.
	if err := writeAll(port, protocol.AdminHostClose()); err != nil {
		return nil, fmt.Errorf("%w: defensive close: %v", winkey.ErrTransport, err)
	}
	time.Sleep(100 * time.Millisecond)
	drain(port, 50*time.Millisecond)

	// Step 2: host open.
	if err := writeAll(port, protocol.AdminHostOpen()); err != nil {
		return nil, fmt.Errorf("%w: host open: %v", winkey.ErrTransport, err)
	}

	// Step 3: version wait, 1s timeout.
	versionByte, err := readByteTimeout(port, time.Second)
	if err != nil {
		return nil, err
	}
	version, err := protocol.VersionFromByte(versionByte)
	if err != nil {
		return nil, err
	}

	// Step 4: WK2/WK3 mode selection.
	if version.SupportsWk3() && b.preferWK3 {
		opcode := byte(wk3ModeOpcode)
		if b.wk3AltOpcode {
			opcode = wk3ModeOpcodeAlt
		}
		if err := writeAll(port, []byte{0x00, opcode}); err != nil {
			return nil, fmt.Errorf("%w: set WK3 mode: %v", winkey.ErrTransport, err)
		}
	} else {
		if err := writeAll(port, protocol.AdminSetWK2Mode()); err != nil {
			return nil, fmt.Errorf("%w: set WK2 mode: %v", winkey.ErrTransport, err)
		}
	}

	// Step 5: load defaults.
	defaults := protocol.LoadDefaults{
		ModeRegister:    b.modeFlags.WithPaddleMode(b.paddleMode),
		SpeedWPM:        b.speedWPM,
		Sidetone:        b.sidetone,
		Weight:          b.weight,
		LeadInTime:      b.pttLeadIn,
		TailTime:        b.pttTail,
		MinWPM:          b.minWPM,
		WPMRange:        b.wpmRange,
		Extension:       0,
		KeyCompensation: 0,
		FarnsworthWPM:   b.farnsworthWPM,
		PaddleSetpoint:  50,
		DitDahRatio:     b.ditDahRatio,
		PinConfig:       byte(b.pinConfig),
		PotRangeLow:     b.minWPM,
	}
	if err := writeAll(port, protocol.LoadDefaultsCommand(defaults)); err != nil {
		return nil, fmt.Errorf("%w: load defaults: %v", winkey.ErrTransport, err)
	}

	// Step 6: clear buffer, then drain whatever status/echo bytes the
	// configuration write stirred up.
	if err := writeAll(port, protocol.ClearBuffer()); err != nil {
		return nil, fmt.Errorf("%w: clear buffer: %v", winkey.ErrTransport, err)
	}
	time.Sleep(50 * time.Millisecond)
	drain(port, 50*time.Millisecond)

	// Step 7: re-assert the mode register explicitly; some firmware does
	// not reliably apply the mode-register field of LoadDefaults.
	modeByte := defaults.ModeRegister
	if err := writeAll(port, protocol.SetModeRegister(modeByte)); err != nil {
		return nil, fmt.Errorf("%w: mode register re-assert: %v", winkey.ErrTransport, err)
	}

	// Step 8: start the engine and publish Connected.
	bus := ioengine.NewBus()
	eng := ioengine.New(port, bus, b.metrics, b.minWPM)
	if b.metrics != nil {
		b.metrics.SetBGQueueDepthFunc(eng.BGQueueLen)
	}
	eng.Start()
	bus.Publish(ioengine.Event{Kind: ioengine.EventConnected})

	return &WinKeyer{
		engine:       eng,
		bus:          bus,
		version:      version,
		versionByte:  versionByte,
		portPath:     b.portPath,
		modeRegister: modeByte,
		minWPM:       b.minWPM,
		speedWPM:     uint32(b.speedWPM),
	}, nil
}

func writeAll(port transport.Port, data []byte) error {
	for len(data) > 0 {
		n, err := port.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// readByteTimeout reads exactly one byte, failing with ErrTimeout if none
// arrives within timeout.
func readByteTimeout(port transport.Port, timeout time.Duration) (byte, error) {
	type result struct {
		b   byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, 1)
		n, err := port.Read(buf)
		if err != nil {
			ch <- result{err: err}
			return
		}
		if n == 0 {
			ch <- result{err: fmt.Errorf("%w: zero-length read", winkey.ErrTransport)}
			return
		}
		ch <- result{b: buf[0]}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			return 0, fmt.Errorf("%w: version byte: %v", winkey.ErrTransport, r.err)
		}
		return r.b, nil
	case <-time.After(timeout):
		return 0, winkey.ErrTimeout
	}
}

// drain reads and discards bytes until idle bursts have stopped, with no
// idle window exceeding idle.
func drain(port transport.Port, idle time.Duration) {
	type result struct {
		n   int
		err error
	}
	buf := make([]byte, 64)
	for {
		ch := make(chan result, 1)
		go func() {
			n, err := port.Read(buf)
			ch <- result{n: n, err: err}
		}()
		select {
		case r := <-ch:
			if r.err != nil || r.n == 0 {
				return
			}
		case <-time.After(idle):
			return
		}
	}
}
