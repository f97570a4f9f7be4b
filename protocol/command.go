package protocol

import (
	"fmt"
	"strings"

	"github.com/chadsbrown/winkey"
)

// Admin commands (0x00 sub), per spec.md §4.1.

// AdminCalibrate encodes the calibrate admin command.
func AdminCalibrate(value byte) []byte { return []byte{0x00, 0x00, value} }

// AdminReset encodes a soft reset.
func AdminReset() []byte { return []byte{0x00, 0x01} }

// AdminHostOpen encodes Host Open; the reply is the version byte.
func AdminHostOpen() []byte { return []byte{0x00, 0x02} }

// AdminHostClose encodes Host Close.
func AdminHostClose() []byte { return []byte{0x00, 0x03} }

// AdminEchoTest encodes the echo-test command; the keyer echoes value back.
func AdminEchoTest(value byte) []byte { return []byte{0x00, 0x04, value} }

// AdminPaddleA2D reads the paddle A/D value.
func AdminPaddleA2D() []byte { return []byte{0x00, 0x05} }

// AdminSpeedA2D reads the speed pot A/D value.
func AdminSpeedA2D() []byte { return []byte{0x00, 0x06} }

// AdminGetValues reads the current operating parameters.
func AdminGetValues() []byte { return []byte{0x00, 0x07} }

// AdminGetFWMajorRev reads the firmware major version.
func AdminGetFWMajorRev() []byte { return []byte{0x00, 0x09} }

// AdminSetWK1Mode switches to WK1 compatibility mode.
func AdminSetWK1Mode() []byte { return []byte{0x00, 0x0A} }

// AdminSetWK2Mode switches to WK2 mode.
func AdminSetWK2Mode() []byte { return []byte{0x00, 0x0B} }

// AdminDumpEEPROM dumps 256 bytes of EEPROM.
func AdminDumpEEPROM() []byte { return []byte{0x00, 0x0C} }

// AdminLoadEEPROM loads 256 bytes into EEPROM.
func AdminLoadEEPROM() []byte { return []byte{0x00, 0x0D} }

// AdminSendMsg plays stored message slot (1-6).
func AdminSendMsg(slot byte) []byte { return []byte{0x00, 0x0E, slot} }

// AdminLoadX1Mode sets the X1 mode register.
func AdminLoadX1Mode(value byte) []byte { return []byte{0x00, 0x0F, value} }

// AdminFirmwareUpdate enters firmware update mode.
func AdminFirmwareUpdate() []byte { return []byte{0x00, 0x10} }

// AdminSetLowBaud switches the keyer to 1200 baud.
func AdminSetLowBaud() []byte { return []byte{0x00, 0x11} }

// AdminSetHighBaud switches the keyer to 9600 baud.
func AdminSetHighBaud() []byte { return []byte{0x00, 0x12} }

// AdminSetRTTYRegisters sets the RTTY mode registers (WK3.1 only).
//
// Note: this opcode (0x13) and AdminSetWK3Mode's opcode (0x14) are easily
// confused between WinKeyer datasheet revisions; this assignment follows
// the original driver's resolution of that ambiguity.
func AdminSetRTTYRegisters(p1, p2 byte) []byte { return []byte{0x00, 0x13, p1, p2} }

// AdminSetWK3Mode switches to WK3 extended mode.
func AdminSetWK3Mode() []byte { return []byte{0x00, 0x14} }

// AdminReadVCC reads the supply voltage (WK3+).
func AdminReadVCC() []byte { return []byte{0x00, 0x15} }

// AdminLoadX2Mode sets the X2 extension mode register (WK3 only).
//
// Bit layout: 7 paddle-status-reporting, 6 fast-command-response, 5 cut-9,
// 4 cut-0, 3 paddle-only-sidetone, 2 SO2R, 1 paddle-mute, 0 spare.
func AdminLoadX2Mode(value byte) []byte { return []byte{0x00, 0x16, value} }

// AdminGetFWMinorRev reads the firmware minor version (WK3+).
func AdminGetFWMinorRev() []byte { return []byte{0x00, 0x17} }

// AdminGetICType reads the IC type identifier (WK3+).
func AdminGetICType() []byte { return []byte{0x00, 0x18} }

// AdminSetSidetoneVolume sets sidetone volume (WK3 only): 1-2 low, 3-4 normal.
func AdminSetSidetoneVolume(value byte) []byte { return []byte{0x00, 0x19, value} }

// Immediate commands (0x01-0x15).

// SidetoneControl encodes the sidetone selector byte produced by
// SidetoneByte (1-10 on WK2, 62500/f on WK3+).
func SidetoneControl(value byte) []byte { return []byte{0x01, value} }

// SidetoneByte converts a frequency in Hz to the opaque selector byte the
// Sidetone Control command expects. The encoding is version-dependent: WK3+
// clamps f to 500-4000 and returns 62500/f truncated; WK2 returns 4000/f
// clamped to 1-10.
func SidetoneByte(version Version, hz int) byte {
	if version.SupportsWk3() {
		if hz < 500 {
			hz = 500
		}
		if hz > 4000 {
			hz = 4000
		}
		return byte(62500 / hz)
	}
	v := 4000 / hz
	if v < 1 {
		v = 1
	}
	if v > 10 {
		v = 10
	}
	return byte(v)
}

// SetSpeed encodes the WPM speed command, range 5-99.
func SetSpeed(wpm byte) []byte { return []byte{0x02, wpm} }

// SetWeight encodes the weighting command, range 10-90, default 50.
func SetWeight(weight byte) []byte { return []byte{0x03, weight} }

// SetPTTTiming encodes PTT lead-in/tail timing, both in 10ms units, 0-250.
func SetPTTTiming(leadIn, tail byte) []byte { return []byte{0x04, leadIn, tail} }

// SetSpeedPot encodes the speed pot range; the third byte is reserved (0)
// per WK3 Datasheet v1.3.
func SetSpeedPot(min, rng byte) []byte { return []byte{0x05, min, rng, 0} }

// SetPause encodes pause/resume.
func SetPause(paused bool) []byte { return []byte{0x06, boolByte(paused)} }

// GetSpeedPot requests the current pot speed.
func GetSpeedPot() []byte { return []byte{0x07} }

// Backspace deletes the last character from the buffer.
func Backspace() []byte { return []byte{0x08} }

// SetPinConfig encodes the pin configuration command.
func SetPinConfig(config byte) []byte { return []byte{0x09, config} }

// ClearBuffer aborts the current message and clears the send buffer.
func ClearBuffer() []byte { return []byte{0x0A} }

// KeyImmediate keys down (tune mode) or releases.
func KeyImmediate(down bool) []byte { return []byte{0x0B, boolByte(down)} }

// SetHSCWSpeed sets the high-speed CW mode speed.
func SetHSCWSpeed(speed byte) []byte { return []byte{0x0C, speed} }

// SetFarnsworth sets the Farnsworth speed, 0 to disable.
func SetFarnsworth(wpm byte) []byte { return []byte{0x0D, wpm} }

// SetModeRegister writes the WinKeyer mode register.
func SetModeRegister(mode byte) []byte { return []byte{0x0E, mode} }

// LoadDefaultsCommand encodes the 16-byte Load Defaults command.
func LoadDefaultsCommand(d LoadDefaults) []byte {
	params := d.ToBytes()
	cmd := make([]byte, 0, 16)
	cmd = append(cmd, 0x0F)
	cmd = append(cmd, params[:]...)
	return cmd
}

// SetFirstExtension sets the first dit/dah extension value.
func SetFirstExtension(value byte) []byte { return []byte{0x10, value} }

// SetKeyCompensation sets the key compensation value.
func SetKeyCompensation(value byte) []byte { return []byte{0x11, value} }

// SetPaddleSwitchpoint sets the paddle switchpoint, 10-90, default 50.
func SetPaddleSwitchpoint(value byte) []byte { return []byte{0x12, value} }

// NullCommand does nothing; usable as a keep-alive.
func NullCommand() []byte { return []byte{0x13} }

// SoftwarePaddle encodes the software paddle state; bit0 dit, bit1 dah.
func SoftwarePaddle(dit, dah bool) []byte {
	var state byte
	if dit {
		state |= 0x01
	}
	if dah {
		state |= 0x02
	}
	return []byte{0x14, state}
}

// RequestStatus requests an immediate status byte.
func RequestStatus() []byte { return []byte{0x15} }

// SetRatio sets the dit/dah ratio, 33-66, default 50 (3:1).
func SetRatio(ratio byte) []byte { return []byte{0x17, ratio} }

// Buffered commands (0x16, 0x18-0x1F).

// PointerCmd manipulates input buffer pointers (sub-commands 0x00-0x02 per
// WK3 Datasheet v1.3: reset, move-overwrite, move-append).
func PointerCmd(subcmd byte) []byte { return []byte{0x16, subcmd} }

// PointerCmdWithData issues a pointer sub-command carrying a data payload
// (sub-command 0x03: add multiple nulls).
func PointerCmdWithData(subcmd byte, data []byte) []byte {
	cmd := make([]byte, 0, 2+len(data))
	cmd = append(cmd, 0x16, subcmd)
	cmd = append(cmd, data...)
	return cmd
}

// BufferedPTT asserts or releases PTT from the buffer.
func BufferedPTT(on bool) []byte { return []byte{0x18, boolByte(on)} }

// KeyBuffered asserts key output for the given number of seconds (0-99).
func KeyBuffered(seconds byte) []byte { return []byte{0x19, seconds} }

// BufferedWait inserts a timed pause in the buffer (0-99 seconds).
func BufferedWait(seconds byte) []byte { return []byte{0x1A, seconds} }

// BufferedMerge merges two letters into a prosign.
func BufferedMerge(c1, c2 byte) []byte { return []byte{0x1B, c1, c2} }

// BufferedSpeedChange changes speed inline in the buffer; 0 restores it.
func BufferedSpeedChange(wpm byte) []byte { return []byte{0x1C, wpm} }

// BufferedHSCWSpeed sets high-speed CW mode speed from the buffer.
func BufferedHSCWSpeed(speed byte) []byte { return []byte{0x1D, speed} }

// CancelBufferedSpeed restores speed after a buffered speed change.
func CancelBufferedSpeed() []byte { return []byte{0x1E} }

// BufferedNOP is a no-op buffer placeholder.
func BufferedNOP() []byte { return []byte{0x1F} }

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// validCWChars lists the punctuation WinKeyer accepts alongside A-Z, 0-9
// and space.
const validCWChars = ".,?/!=+-:;'\"()@&_"

// ValidateCWText reports whether text contains only characters WinKeyer can
// send: A-Z (case-insensitive), 0-9, space, and the punctuation set above.
func ValidateCWText(text string) error {
	for i, r := range text {
		if !isValidCWChar(r) {
			return fmt.Errorf("%w: invalid CW character %q at position %d", winkey.ErrInvalidParameter, r, i)
		}
	}
	return nil
}

func isValidCWChar(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == ' ':
		return true
	case strings.ContainsRune(validCWChars, r):
		return true
	default:
		return false
	}
}

// EncodeText upper-cases text and returns it as bytes ready for the
// buffered send path. WinKeyer performs the Morse encoding itself.
func EncodeText(text string) []byte {
	return []byte(strings.ToUpper(text))
}
