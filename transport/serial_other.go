//go:build !linux

package transport

import (
	"fmt"

	"github.com/chadsbrown/winkey"
	"github.com/tarm/serial"
)

// OpenSerial opens dev at WinKeyer's fixed 1200 baud rate using the
// cross-platform tarm/serial backend. WinKeyer's framing is 8 data bits,
// 2 stop bits, no parity; tarm/serial's StopBits field covers that on the
// platforms this build targets.
func OpenSerial(dev string) (Port, error) {
	cfg := &serial.Config{
		Name:     dev,
		Baud:     1200,
		Size:     8,
		StopBits: serial.Stop2,
		Parity:   serial.ParityNone,
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", winkey.ErrTransport, dev, err)
	}
	return port, nil
}
