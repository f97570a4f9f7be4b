package protocol

import "testing"

func TestClassifyStatusBytes(t *testing.T) {
	r := ClassifyByte(0xC0)
	if r.Kind != KindStatus || r.Status.Xoff || r.Status.Busy {
		t.Errorf("0xC0: got %+v, want all-clear status", r)
	}

	// 0xC3 = 1100 0011: bit0 xoff, bit1 breakin.
	r = ClassifyByte(0xC3)
	if r.Kind != KindStatus || !r.Status.Xoff || !r.Status.Breakin {
		t.Errorf("0xC3: got %+v, want xoff+breakin", r)
	}

	// 0xFF: all status bits set.
	r = ClassifyByte(0xFF)
	s := r.Status
	if !(s.Xoff && s.Breakin && s.Busy && s.Keydown && s.Waiting) {
		t.Errorf("0xFF: got %+v, want all flags set", s)
	}
}

func TestBreakinEdgeFromSpecScenario(t *testing.T) {
	// spec.md end-to-end scenario 4: C0 then C2 is a breakin false->true
	// transition under the datasheet bit numbering (bit1 = breakin).
	before := ClassifyByte(0xC0).Status
	after := ClassifyByte(0xC2).Status
	if before.Breakin {
		t.Fatal("0xC0 should not report breakin")
	}
	if !after.Breakin {
		t.Fatal("0xC2 should report breakin")
	}
	if after.Xoff {
		t.Fatal("0xC2 should not report xoff (bit0)")
	}
}

func TestClassifySpeedPotBytes(t *testing.T) {
	cases := []struct {
		b    byte
		want byte
	}{
		{0x80, 0},
		{0x8F, 15},
		{0x9F, 31},
		{0xBF, 63},
	}
	for _, c := range cases {
		r := ClassifyByte(c.b)
		if r.Kind != KindSpeedPot || r.PotValue != c.want {
			t.Errorf("ClassifyByte(0x%02X) = %+v, want pot=%d", c.b, r, c.want)
		}
	}
}

func TestClassifyEchoBytes(t *testing.T) {
	cases := []byte{'A', '5', ' ', 0x00}
	for _, b := range cases {
		r := ClassifyByte(b)
		if r.Kind != KindEcho || r.Echo != b {
			t.Errorf("ClassifyByte(0x%02X) = %+v, want echo", b, r)
		}
	}
}

func TestSpeedPotWPMCalculation(t *testing.T) {
	cases := []struct {
		pot, min, want byte
	}{
		{0, 10, 10},
		{10, 10, 20},
		{25, 5, 30},
	}
	for _, c := range cases {
		got := DecodeSpeedPot(c.pot, c.min)
		if got != c.want {
			t.Errorf("DecodeSpeedPot(%d,%d) = %d, want %d", c.pot, c.min, got, c.want)
		}
	}
}

func TestSpeedPotSaturating(t *testing.T) {
	if got := DecodeSpeedPot(63, 250); got != 255 {
		t.Errorf("DecodeSpeedPot(63,250) = %d, want 255 (saturated)", got)
	}
}

func TestVersionDecode(t *testing.T) {
	cases := []struct {
		b    byte
		want Version
		ok   bool
	}{
		{23, Wk2, true},
		{30, Wk3, true},
		{31, Wk31, true},
		{0, 0, false},
		{15, 0, false},
	}
	for _, c := range cases {
		v, ok := DecodeVersion(c.b)
		if ok != c.ok || (ok && v != c.want) {
			t.Errorf("DecodeVersion(%d) = (%v,%v), want (%v,%v)", c.b, v, ok, c.want, c.ok)
		}
	}
}
