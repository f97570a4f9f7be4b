package protocol

import (
	"bytes"
	"testing"
)

func TestAdminCommands(t *testing.T) {
	cases := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"host_open", AdminHostOpen(), []byte{0x00, 0x02}},
		{"host_close", AdminHostClose(), []byte{0x00, 0x03}},
		{"reset", AdminReset(), []byte{0x00, 0x01}},
		{"set_wk2_mode", AdminSetWK2Mode(), []byte{0x00, 0x0B}},
		{"set_wk3_mode", AdminSetWK3Mode(), []byte{0x00, 0x14}},
		{"set_high_baud", AdminSetHighBaud(), []byte{0x00, 0x12}},
		{"echo_test", AdminEchoTest(0x42), []byte{0x00, 0x04, 0x42}},
		{"send_msg", AdminSendMsg(3), []byte{0x00, 0x0E, 3}},
		{"set_rtty_registers", AdminSetRTTYRegisters(1, 2), []byte{0x00, 0x13, 1, 2}},
	}
	for _, c := range cases {
		if !bytes.Equal(c.got, c.want) {
			t.Errorf("%s: got % X want % X", c.name, c.got, c.want)
		}
	}
}

func TestImmediateCommands(t *testing.T) {
	cases := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"set_speed", SetSpeed(28), []byte{0x02, 28}},
		{"set_weight", SetWeight(50), []byte{0x03, 50}},
		{"set_ptt_timing", SetPTTTiming(4, 3), []byte{0x04, 4, 3}},
		{"clear_buffer", ClearBuffer(), []byte{0x0A}},
		{"key_immediate_down", KeyImmediate(true), []byte{0x0B, 1}},
		{"key_immediate_up", KeyImmediate(false), []byte{0x0B, 0}},
		{"set_farnsworth", SetFarnsworth(15), []byte{0x0D, 15}},
		{"set_pause_on", SetPause(true), []byte{0x06, 1}},
		{"set_pause_off", SetPause(false), []byte{0x06, 0}},
		{"request_status", RequestStatus(), []byte{0x15}},
	}
	for _, c := range cases {
		if !bytes.Equal(c.got, c.want) {
			t.Errorf("%s: got % X want % X", c.name, c.got, c.want)
		}
	}
}

func TestSoftwarePaddleEncoding(t *testing.T) {
	cases := []struct {
		dit, dah bool
		want     []byte
	}{
		{false, false, []byte{0x14, 0x00}},
		{true, false, []byte{0x14, 0x01}},
		{false, true, []byte{0x14, 0x02}},
		{true, true, []byte{0x14, 0x03}},
	}
	for _, c := range cases {
		got := SoftwarePaddle(c.dit, c.dah)
		if !bytes.Equal(got, c.want) {
			t.Errorf("SoftwarePaddle(%v,%v) = % X, want % X", c.dit, c.dah, got, c.want)
		}
	}
}

func TestBufferedCommands(t *testing.T) {
	cases := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"speed_change", BufferedSpeedChange(25), []byte{0x1C, 25}},
		{"cancel_speed", CancelBufferedSpeed(), []byte{0x1E}},
		{"merge", BufferedMerge('A', 'R'), []byte{0x1B, 'A', 'R'}},
		{"ptt_on", BufferedPTT(true), []byte{0x18, 1}},
		{"ptt_off", BufferedPTT(false), []byte{0x18, 0}},
		{"key_buffered", KeyBuffered(5), []byte{0x19, 5}},
		{"wait", BufferedWait(5), []byte{0x1A, 5}},
		{"nop", BufferedNOP(), []byte{0x1F}},
	}
	for _, c := range cases {
		if !bytes.Equal(c.got, c.want) {
			t.Errorf("%s: got % X want % X", c.name, c.got, c.want)
		}
	}
}

func TestPointerCommandEncoding(t *testing.T) {
	if got := PointerCmd(0x00); !bytes.Equal(got, []byte{0x16, 0x00}) {
		t.Errorf("PointerCmd(0) = % X", got)
	}
	got := PointerCmdWithData(0x03, []byte{5})
	want := []byte{0x16, 0x03, 5}
	if !bytes.Equal(got, want) {
		t.Errorf("PointerCmdWithData = % X, want % X", got, want)
	}
}

func TestLoadDefaultsEncoding(t *testing.T) {
	d := DefaultLoadDefaults()
	cmd := LoadDefaultsCommand(d)
	if len(cmd) != 16 {
		t.Fatalf("len(cmd) = %d, want 16", len(cmd))
	}
	if cmd[0] != 0x0F {
		t.Errorf("cmd[0] = 0x%02X, want 0x0F", cmd[0])
	}
	if cmd[2] != 20 {
		t.Errorf("cmd[2] (speed_wpm) = %d, want 20", cmd[2])
	}
}

func TestValidateCWText(t *testing.T) {
	if err := ValidateCWText("CQ CQ DE W1AW/4 ?"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateCWText("HELLO#WORLD"); err == nil {
		t.Error("expected error for '#' character, got nil")
	}
}

func TestEncodeText(t *testing.T) {
	got := EncodeText("cq de")
	want := []byte("CQ DE")
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeText = %q, want %q", got, want)
	}
}

func TestSidetoneByte(t *testing.T) {
	cases := []struct {
		name    string
		version Version
		hz      int
		want    byte
	}{
		{"wk3_500hz", Wk3, 500, 125},  // 62500/500
		{"wk3_4000hz", Wk3, 4000, 15}, // 62500/4000 truncated
		{"wk3_below_range_clamped", Wk3, 1, 125},
		{"wk3_above_range_clamped", Wk3, 9000, 15},
		{"wk2_4000hz", Wk2, 4000, 1}, // 4000/4000
		{"wk2_400hz", Wk2, 400, 10},  // 4000/400
		{"wk2_clamped_low", Wk2, 8000, 1},
		{"wk2_clamped_high", Wk2, 100, 10},
	}
	for _, c := range cases {
		if got := SidetoneByte(c.version, c.hz); got != c.want {
			t.Errorf("%s: SidetoneByte(%v, %d) = %d, want %d", c.name, c.version, c.hz, got, c.want)
		}
	}
}
