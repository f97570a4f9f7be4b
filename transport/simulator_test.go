package transport

import (
	"bytes"
	"testing"
	"time"
)

func TestSimulatorWriteRecordsBytes(t *testing.T) {
	sim := NewSimulator()
	defer sim.Close()

	if _, err := sim.Write([]byte{0x00, 0x02}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	writes := sim.Writes()
	if len(writes) != 1 || !bytes.Equal(writes[0], []byte{0x00, 0x02}) {
		t.Fatalf("Writes() = %v", writes)
	}
}

func TestSimulatorScriptedReply(t *testing.T) {
	sim := NewSimulator()
	defer sim.Close()

	sim.PushReply([]byte{23}) // version byte

	if _, err := sim.Write([]byte{0x00, 0x02}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, 1)
	n, err := sim.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 1 || buf[0] != 23 {
		t.Fatalf("Read returned %v, %d bytes", buf[:n], n)
	}
}

func TestSimulatorPushReplyFuncEchoesWrittenByte(t *testing.T) {
	sim := NewSimulator()
	defer sim.Close()

	sim.PushReplyFunc(func(written []byte) []byte {
		return []byte{written[len(written)-1]}
	})
	if _, err := sim.Write([]byte{0x00, 0x04, 0x42}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, 1)
	n, err := sim.Read(buf)
	if err != nil || n != 1 || buf[0] != 0x42 {
		t.Fatalf("Read = %v, %d, %v", buf[:n], n, err)
	}
}

func TestSimulatorReadBlocksUntilReplyArrives(t *testing.T) {
	sim := NewSimulator()
	defer sim.Close()

	done := make(chan struct{})
	buf := make([]byte, 1)
	var n int
	var err error
	go func() {
		n, err = sim.Read(buf)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Read returned before any reply was scripted")
	case <-time.After(50 * time.Millisecond):
	}

	sim.PushReply([]byte{0xC0})
	if _, werr := sim.Write([]byte{0x15}); werr != nil {
		t.Fatalf("Write: %v", werr)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Read never unblocked")
	}
	if err != nil || n != 1 || buf[0] != 0xC0 {
		t.Fatalf("Read = %v, %d, %v", buf[:n], n, err)
	}
}

func TestSimulatorCloseUnblocksPendingRead(t *testing.T) {
	sim := NewSimulator()

	done := make(chan error, 1)
	go func() {
		_, err := sim.Read(make([]byte, 1))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	if err := sim.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error from Read after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("Read never unblocked after Close")
	}
}
