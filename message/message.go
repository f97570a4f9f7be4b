// Package message compiles contest message templates into WinKeyer
// buffered command byte sequences.
package message

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/chadsbrown/winkey/protocol"
)

// Prosign name/letter-pair table recognised inside "<NAME>" escapes.
var prosigns = map[string][2]byte{
	"AR": {'A', 'R'}, // end of message
	"SK": {'S', 'K'}, // end of contact
	"BT": {'B', 'T'}, // separator / break
	"KN": {'K', 'N'}, // go ahead, named station only
	"AS": {'A', 'S'}, // wait
}

// Compile turns a contest message template into the byte sequence ready
// for a buffered send to WinKeyer.
//
// Template syntax:
//   - plain text is upper-cased and sent as-is
//   - "<AR>", "<SK>", "<BT>", "<KN>", "<AS>" expand to a buffered Merge
//     Letters command (0x1B); an unrecognised name inside "<...>" is
//     silently elided
//   - "{20}" expands to a buffered speed change to 20 WPM (0x1C); "{0}"
//     or "{}" expands to Cancel Buffered Speed Change (0x1E)
//
// Compile is single-pass and total: it never returns an error, matching
// the Load/LoadDefaults-style tolerance of the rest of this driver for
// malformed operator input at message-authoring time.
func Compile(template string) []byte {
	var out []byte
	runes := []rune(template)
	i := 0
	for i < len(runes) {
		switch runes[i] {
		case '<':
			j := i + 1
			for j < len(runes) && runes[j] != '>' {
				j++
			}
			name := strings.ToUpper(string(runes[i+1 : min(j, len(runes))]))
			if pair, ok := prosigns[name]; ok {
				out = append(out, protocol.BufferedMerge(pair[0], pair[1])...)
			}
			if j < len(runes) {
				i = j + 1
			} else {
				i = j
			}
		case '{':
			j := i + 1
			for j < len(runes) && runes[j] != '}' {
				j++
			}
			numStr := strings.TrimSpace(string(runes[i+1 : min(j, len(runes))]))
			wpm, err := strconv.Atoi(numStr)
			if err != nil || wpm <= 0 {
				out = append(out, protocol.CancelBufferedSpeed()...)
			} else {
				out = append(out, protocol.BufferedSpeedChange(byte(wpm))...)
			}
			if j < len(runes) {
				i = j + 1
			} else {
				i = j
			}
		default:
			out = append(out, byte(unicode.ToUpper(runes[i])))
			i++
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
