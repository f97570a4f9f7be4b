package keyer

import (
	"time"

	"github.com/chadsbrown/winkey/ioengine"
)

// Backend is the subset of WinKeyer's façade that callers typically
// program against, so a test double or an alternate transport binding
// (e.g. a network-attached keyer) can stand in for *WinKeyer.
type Backend interface {
	SendMessage(text string) error
	Abort() error
	SetSpeed(wpm byte) error
	GetSpeed() (byte, error)
	SetTune(down bool) error
	SetPTT(on bool) error
	Subscribe() chan ioengine.Event
	Unsubscribe(ch chan ioengine.Event)
	Close(timeout time.Duration) error
	Info() Info
	Capabilities() Capabilities
}

var _ Backend = (*WinKeyer)(nil)
