package protocol

import "testing"

func TestVersionFromByte(t *testing.T) {
	cases := []struct {
		b       byte
		want    Version
		wantErr bool
	}{
		{20, Wk2, false},
		{23, Wk2, false},
		{30, Wk3, false},
		{31, Wk31, false},
		{0, 0, true},
		{99, 0, true},
	}
	for _, c := range cases {
		v, err := VersionFromByte(c.b)
		if (err != nil) != c.wantErr {
			t.Errorf("VersionFromByte(%d) error = %v, wantErr %v", c.b, err, c.wantErr)
			continue
		}
		if err == nil && v != c.want {
			t.Errorf("VersionFromByte(%d) = %v, want %v", c.b, v, c.want)
		}
	}
}

func TestSupportsWk3(t *testing.T) {
	if Wk2.SupportsWk3() {
		t.Error("Wk2 should not support WK3 extensions")
	}
	if !Wk3.SupportsWk3() || !Wk31.SupportsWk3() {
		t.Error("Wk3 and Wk31 should support WK3 extensions")
	}
}

func TestModeRegisterWithPaddleMode(t *testing.T) {
	got := DefaultModeRegister.WithPaddleMode(IambicB)
	want := byte(ModePaddleEcho | ModeSerialEcho)
	if got != want {
		t.Errorf("got 0x%02X, want 0x%02X", got, want)
	}

	got = ModeRegister(0).WithPaddleMode(Bug)
	if got != 0x30 {
		t.Errorf("Bug mode bits = 0x%02X, want 0x30", got)
	}
}

func TestHangTime(t *testing.T) {
	if got := HangTime(5); got != PinConfig(0x30) {
		t.Errorf("HangTime(5) should clamp to 2 bits: got 0x%02X", byte(got))
	}
	if got := HangTime(2); got != PinConfig(0x20) {
		t.Errorf("HangTime(2) = 0x%02X, want 0x20", byte(got))
	}
}

func TestLoadDefaultsToBytes(t *testing.T) {
	d := DefaultLoadDefaults()
	b := d.ToBytes()
	if len(b) != 15 {
		t.Fatalf("len = %d, want 15", len(b))
	}
	if b[1] != 20 {
		t.Errorf("b[1] (speed) = %d, want 20", b[1])
	}
	if b[13] != byte(DefaultPinConfig) {
		t.Errorf("b[13] (pin config) = 0x%02X, want 0x%02X", b[13], byte(DefaultPinConfig))
	}
}
