package combo

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Combination
	}{
		{"ctrl+space", Keystroke(KeySpace, ModCtrl)},
		{"Ctrl+Shift+Space", Keystroke(KeySpace, ModCtrl|ModShift)},
		{"alt+f4", Keystroke(KeyF4, ModAlt)},
		{"cmd+a", Keystroke(KeyA, ModMeta)},
		{"super + 7", Keystroke(Key7, ModMeta)},
		{"esc", Keystroke(KeyEscape, 0)},
		{"media:playpause", Media(MediaPlayPause)},
		{"media:next", Media(MediaNextTrack)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"ctrl+shift", "ctrl++a", "a+b", "hyper+a", "media:rewind"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
	if _, err := Parse("  "); !errors.Is(err, ErrEmpty) {
		t.Errorf("Parse(blank) = %v, want ErrEmpty", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, c := range []Combination{
		Keystroke(KeySpace, ModCtrl|ModAlt|ModShift|ModMeta),
		Keystroke(KeyF12, 0),
		Keystroke(KeyZ, ModShift),
		Media(MediaPrevTrack),
		Media(MediaStop),
	} {
		got, err := Parse(c.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.String(), err)
		}
		if got != c {
			t.Errorf("round trip %q: got %v", c.String(), got)
		}
	}
	if s := Keystroke(KeySpace, ModShift|ModCtrl).String(); s != "ctrl+shift+space" {
		t.Errorf("String() = %q", s)
	}
}

func TestTarget(t *testing.T) {
	if got := Keystroke(KeySpace, ModCtrl).Target(); got != 0x20 {
		t.Errorf("keystroke target = %#x, want 0x20", got)
	}
	if got := Media(MediaPlayPause).Target(); got != KeyMediaPlayPause {
		t.Errorf("media target = %v", got)
	}
	if (Combination{}).Valid() {
		t.Error("zero combination should be invalid")
	}
}

func TestEqualityIsByTagAndFields(t *testing.T) {
	a := Keystroke(KeySpace, ModCtrl)
	if a == Keystroke(KeySpace, ModAlt) {
		t.Error("different modifiers compared equal")
	}
	if Keystroke(KeyMediaStop, 0) == Media(MediaStop) {
		t.Error("keystroke and media key with the same code compared equal")
	}
	m := map[Combination]int{a: 1}
	if m[Keystroke(KeySpace, ModCtrl)] != 1 {
		t.Error("combination not usable as map key")
	}
}

func TestKeyConstantsMatchNames(t *testing.T) {
	tests := []struct {
		c    Code
		name string
	}{
		{KeyB, "b"},
		{KeyQ, "q"},
		{Key5, "5"},
		{KeyF5, "f5"},
		{KeyF13, "f13"},
		{KeyF24, "f24"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.name {
			t.Errorf("Code(0x%02x).String() = %q, want %q", uint16(tt.c), got, tt.name)
		}
	}
}

func TestModifierOf(t *testing.T) {
	tests := []struct {
		c    Code
		want Modifier
		ok   bool
	}{
		{KeyLCtrl, ModCtrl, true},
		{KeyRAlt, ModAlt, true},
		{KeyShift, ModShift, true},
		{KeyRMeta, ModMeta, true},
		{KeyA, 0, false},
	}
	for _, tt := range tests {
		got, ok := ModifierOf(tt.c)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ModifierOf(%v) = %v, %v; want %v, %v", tt.c, got, ok, tt.want, tt.ok)
		}
	}
}
