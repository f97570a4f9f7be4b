//go:build linux

package transport

import (
	"fmt"

	"github.com/chadsbrown/winkey"
	goserial "github.com/daedaluz/goserial"
)

// OpenSerialLinux opens dev using raw termios2 ioctls, giving an exact
// 1200 baud / 8N2 configuration that the cross-platform OpenSerial cannot
// guarantee on every platform. Linux builds prefer this transport; see
// OpenSerial for the portable fallback.
func OpenSerialLinux(dev string) (Port, error) {
	port, err := goserial.Open(dev, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", winkey.ErrTransport, dev, err)
	}

	attrs, err := port.GetAttr2()
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: reading termios for %s: %v", winkey.ErrTransport, dev, err)
	}
	attrs.MakeRaw()
	attrs.SetSpeed(goserial.B1200)
	attrs.Cflag &^= goserial.CSIZE | goserial.PARENB
	attrs.Cflag |= goserial.CS8 | goserial.CSTOPB | goserial.CREAD | goserial.CLOCAL

	if err := port.SetAttr2(goserial.TCSANOW, attrs); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: configuring termios for %s: %v", winkey.ErrTransport, dev, err)
	}

	return port, nil
}

// OpenSerial opens dev via OpenSerialLinux, the termios2-based backend.
// It gives callers a single entry point across build targets.
func OpenSerial(dev string) (Port, error) {
	return OpenSerialLinux(dev)
}
