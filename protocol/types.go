// Package protocol implements the WinKeyer wire protocol: pure encoding
// of outbound commands and pure classification/decoding of inbound bytes.
// Nothing in this package performs I/O.
package protocol

import (
	"fmt"

	"github.com/chadsbrown/winkey"
)

// Version identifies the detected WinKeyer hardware generation.
type Version int

const (
	// Wk2 is WinKeyer2 (version byte 20-23).
	Wk2 Version = iota
	// Wk3 is WinKeyer3 (version byte 30).
	Wk3
	// Wk31 is WinKeyer3.1 (version byte 31).
	Wk31
)

// String implements fmt.Stringer.
func (v Version) String() string {
	switch v {
	case Wk2:
		return "WK2"
	case Wk3:
		return "WK3"
	case Wk31:
		return "WK3.1"
	default:
		return "unknown"
	}
}

// VersionFromByte detects the hardware version from the byte returned by
// the Host Open command (spec.md §3: 20-23 -> Wk2, 30 -> Wk3, 31 -> Wk31,
// anything else is a protocol violation).
func VersionFromByte(b byte) (Version, error) {
	switch {
	case b >= 20 && b <= 23:
		return Wk2, nil
	case b == 30:
		return Wk3, nil
	case b == 31:
		return Wk31, nil
	default:
		return 0, fmt.Errorf("%w: unrecognised version byte 0x%02X", winkey.ErrProtocol, b)
	}
}

// SupportsWk3 reports whether this version understands the WK3 extended
// command set (mode selection, sidetone volume, VCC read, ...).
func (v Version) SupportsWk3() bool {
	return v == Wk3 || v == Wk31
}

// PaddleMode selects how the keyer interprets paddle input.
type PaddleMode int

const (
	// IambicA is self-completing iambic keying without dot/dash memory.
	IambicA PaddleMode = iota
	// IambicB is self-completing iambic keying with dot/dash memory.
	IambicB
	// Ultimatic keying: the last paddle pressed wins.
	Ultimatic
	// Bug mode: automatic dots, manual dashes.
	Bug
)

// modeBits encodes a PaddleMode into mode-register bits 5-4.
func (m PaddleMode) modeBits() byte {
	switch m {
	case IambicA:
		return 0x10
	case IambicB:
		return 0x00
	case Ultimatic:
		return 0x20
	case Bug:
		return 0x30
	default:
		return 0x00
	}
}

// ModeRegister is the WinKeyer Mode Register (command 0x0E), an 8-bit
// bitset. Bit layout per spec.md §3:
//
//	7: paddle watchdog disable   6: paddle echo   5-4: paddle mode
//	3: swap paddles              2: serial echo   1: auto-space   0: contest spacing
type ModeRegister byte

const (
	ModePaddleWatchdogDisable ModeRegister = 1 << 7
	ModePaddleEcho            ModeRegister = 1 << 6
	ModeSwapPaddles           ModeRegister = 1 << 3
	ModeSerialEcho            ModeRegister = 1 << 2
	ModeAutoSpace             ModeRegister = 1 << 1
	ModeContestSpacing        ModeRegister = 1 << 0
)

// DefaultModeRegister is paddle-echo | serial-echo, per spec.md §3.
const DefaultModeRegister = ModePaddleEcho | ModeSerialEcho

// WithPaddleMode combines the register flags with a paddle mode to produce
// the byte sent in the mode-register field of LoadDefaults or command 0x0E.
func (m ModeRegister) WithPaddleMode(mode PaddleMode) byte {
	return byte(m) | mode.modeBits()
}

// PinConfig is the WinKeyer Pin Configuration (command 0x09), an 8-bit
// bitset. Bit layout per spec.md §3:
//
//	0: PTT enable   1: sidetone enable   2: key output primary
//	3: key output secondary   5-4: hang time
type PinConfig byte

const (
	PinPTTEnable           PinConfig = 1 << 0
	PinSidetoneEnable      PinConfig = 1 << 1
	PinKeyOutputPrimary    PinConfig = 1 << 2
	PinKeyOutputSecondary  PinConfig = 1 << 3
)

// DefaultPinConfig is PTT | sidetone | key-output-primary, per spec.md §3.
const DefaultPinConfig = PinPTTEnable | PinSidetoneEnable | PinKeyOutputPrimary

// HangTime returns the bits-5-4 hang-time setting (0-3) encoded into a
// PinConfig byte. Levels above 3 are clamped to 3.
func HangTime(level uint8) PinConfig {
	if level > 3 {
		level = 3
	}
	return PinConfig(level << 4)
}

// LoadDefaults is the 15-byte parameter block for command 0x0F, in wire
// order. Byte 8 (Extension) and byte 14 (PotRangeLow) carry version
// dependent meaning on WK2 vs WK3/WK3.1; this package carries the byte
// faithfully and leaves interpretation to the caller (spec.md §3).
type LoadDefaults struct {
	ModeRegister    byte
	SpeedWPM        byte
	Sidetone        byte
	Weight          byte
	LeadInTime      byte
	TailTime        byte
	MinWPM          byte
	WPMRange        byte
	Extension       byte
	KeyCompensation byte
	FarnsworthWPM   byte
	PaddleSetpoint  byte
	DitDahRatio     byte
	PinConfig       byte
	PotRangeLow     byte
}

// DefaultLoadDefaults mirrors the factory-reasonable defaults used by the
// handshake when the caller hasn't overridden a field: IambicB paddle mode,
// 20 WPM, ~800Hz sidetone, 50% weight, 10-35 WPM pot range, 3:1 dit/dah
// ratio, PTT+sidetone+primary-key pin config.
func DefaultLoadDefaults() LoadDefaults {
	return LoadDefaults{
		ModeRegister:    DefaultModeRegister.WithPaddleMode(IambicB),
		SpeedWPM:        20,
		Sidetone:        5,
		Weight:          50,
		LeadInTime:      0,
		TailTime:        0,
		MinWPM:          10,
		WPMRange:        25,
		Extension:       0,
		KeyCompensation: 0,
		FarnsworthWPM:   0,
		PaddleSetpoint:  50,
		DitDahRatio:     50,
		PinConfig:       byte(DefaultPinConfig),
		PotRangeLow:     10,
	}
}

// ToBytes encodes the 15-byte parameter block in wire order (without the
// 0x0F command prefix).
func (d LoadDefaults) ToBytes() [15]byte {
	return [15]byte{
		d.ModeRegister,
		d.SpeedWPM,
		d.Sidetone,
		d.Weight,
		d.LeadInTime,
		d.TailTime,
		d.MinWPM,
		d.WPMRange,
		d.Extension,
		d.KeyCompensation,
		d.FarnsworthWPM,
		d.PaddleSetpoint,
		d.DitDahRatio,
		d.PinConfig,
		d.PotRangeLow,
	}
}
