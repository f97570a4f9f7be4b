package message

import "testing"

func TestSimpleText(t *testing.T) {
	got := Compile("CQ TEST")
	want := "CQ TEST"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLowercaseConverted(t *testing.T) {
	got := Compile("cq test")
	want := "CQ TEST"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWithProsign(t *testing.T) {
	got := Compile("CQ TEST <AR>")
	if string(got[:8]) != "CQ TEST " {
		t.Fatalf("prefix = %q", got[:8])
	}
	want := []byte{0x1B, 'A', 'R'}
	if string(got[8:]) != string(want) {
		t.Errorf("suffix = % X, want % X", got[8:], want)
	}
}

func TestWithSpeedChange(t *testing.T) {
	got := Compile("5NN{20}TU")
	if string(got[0:3]) != "5NN" {
		t.Fatalf("prefix = %q", got[0:3])
	}
	if got[3] != 0x1C || got[4] != 20 {
		t.Errorf("speed change = % X, want 1C 14", got[3:5])
	}
	if string(got[5:7]) != "TU" {
		t.Errorf("suffix = %q", got[5:7])
	}
}

func TestCancelSpeedChange(t *testing.T) {
	got := Compile("5NN{0}")
	if string(got[0:3]) != "5NN" {
		t.Fatalf("prefix = %q", got[0:3])
	}
	if got[3] != 0x1E {
		t.Errorf("got 0x%02X, want 0x1E", got[3])
	}
}

func TestCancelSpeedEmptyBraces(t *testing.T) {
	got := Compile("5NN{}")
	if string(got[0:3]) != "5NN" {
		t.Fatalf("prefix = %q", got[0:3])
	}
	if got[3] != 0x1E {
		t.Errorf("got 0x%02X, want 0x1E", got[3])
	}
}

func TestMultipleProsigns(t *testing.T) {
	got := Compile("<BT>K1EL<SK>")
	want := []byte{0x1B, 'B', 'T'}
	if string(got[0:3]) != string(want) {
		t.Fatalf("got % X, want % X", got[0:3], want)
	}
	if string(got[3:7]) != "K1EL" {
		t.Errorf("middle = %q", got[3:7])
	}
	want2 := []byte{0x1B, 'S', 'K'}
	if string(got[7:10]) != string(want2) {
		t.Errorf("got % X, want % X", got[7:10], want2)
	}
}

// TestMixedSpeedAndProsigns exercises the literal scenario from the
// driver's end-to-end test suite: a leading speed change, plain text, an
// inline speed change, and a trailing prosign.
func TestMixedSpeedAndProsigns(t *testing.T) {
	got := Compile("{28}CQ TEST K1EL{20} 5NN<AR>")
	if got[0] != 0x1C || got[1] != 28 {
		t.Fatalf("leading speed change = % X", got[0:2])
	}
	if string(got[2:14]) != "CQ TEST K1EL" {
		t.Errorf("text = %q", got[2:14])
	}
	if got[14] != 0x1C || got[15] != 20 {
		t.Errorf("inline speed change = % X", got[14:16])
	}
	if string(got[16:20]) != " 5NN" {
		t.Errorf("text = %q", got[16:20])
	}
	want := []byte{0x1B, 'A', 'R'}
	if string(got[20:23]) != string(want) {
		t.Errorf("trailing prosign = % X, want % X", got[20:23], want)
	}
}

func TestUnknownProsignSkipped(t *testing.T) {
	got := Compile("CQ<XX>TEST")
	want := "CQTEST"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEmptyMessage(t *testing.T) {
	got := Compile("")
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestUnterminatedEscapesDoNotPanic(t *testing.T) {
	// Total parsing: a dangling '<' or '{' with no closing delimiter still
	// consumes to end-of-string (matching the take-while-not-delimiter
	// semantics for a terminated escape) rather than panicking.
	got := Compile("CQ<AR")
	want := append([]byte("CQ"), 0x1B, 'A', 'R')
	if string(got) != string(want) {
		t.Errorf("got % X, want % X", got, want)
	}
	got = Compile("CQ{20")
	want = append([]byte("CQ"), 0x1C, 20)
	if string(got) != string(want) {
		t.Errorf("got % X, want % X", got, want)
	}
}
