package combo

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEmpty = errors.New("empty key combination")

var codeNames = map[Code]string{
	KeyBackspace: "backspace",
	KeyTab:       "tab",
	KeyReturn:    "return",
	KeyShift:     "shiftkey",
	KeyCtrl:      "ctrlkey",
	KeyAlt:       "altkey",
	KeyPause:     "pause",
	KeyCapsLock:  "capslock",
	KeyEscape:    "escape",
	KeySpace:     "space",
	KeyPageUp:    "pageup",
	KeyPageDown:  "pagedown",
	KeyEnd:       "end",
	KeyHome:      "home",
	KeyLeft:      "left",
	KeyUp:        "up",
	KeyRight:     "right",
	KeyDown:      "down",
	KeyPrint:     "print",
	KeyInsert:    "insert",
	KeyDelete:    "delete",
	KeyLMeta:     "lmeta",
	KeyRMeta:     "rmeta",
	KeyLShift:    "lshift",
	KeyRShift:    "rshift",
	KeyLCtrl:     "lctrl",
	KeyRCtrl:     "rctrl",
	KeyLAlt:      "lalt",
	KeyRAlt:      "ralt",

	KeyMediaNext:      "medianext",
	KeyMediaPrev:      "mediaprev",
	KeyMediaStop:      "mediastop",
	KeyMediaPlayPause: "mediaplaypause",
}

var (
	namedCodes = map[string]Code{}
	aliases    = map[string]Code{
		"enter": KeyReturn,
		"esc":   KeyEscape,
		"del":   KeyDelete,
		"ins":   KeyInsert,
		"pgup":  KeyPageUp,
		"pgdn":  KeyPageDown,
	}
	modNames = map[string]Modifier{
		"ctrl":    ModCtrl,
		"control": ModCtrl,
		"alt":     ModAlt,
		"option":  ModAlt,
		"shift":   ModShift,
		"meta":    ModMeta,
		"super":   ModMeta,
		"win":     ModMeta,
		"cmd":     ModMeta,
	}
)

func init() {
	for c := Key0; c <= Key9; c++ {
		codeNames[c] = string(rune('0' + c - Key0))
	}
	for c := KeyA; c <= KeyZ; c++ {
		codeNames[c] = string(rune('a' + c - KeyA))
	}
	for c := KeyF1; c <= KeyF24; c++ {
		codeNames[c] = fmt.Sprintf("f%d", c-KeyF1+1)
	}
	for c, name := range codeNames {
		namedCodes[name] = c
	}
	for name, c := range aliases {
		namedCodes[name] = c
	}
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("0x%02x", uint16(c))
}

// LookupCode resolves a key name such as "space", "f5" or "a".
func LookupCode(name string) (Code, bool) {
	c, ok := namedCodes[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// ParseMedia resolves a media key name ("playpause", "stop", "next", "prev").
func ParseMedia(name string) (MediaKey, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m, s := range mediaNames {
		if s == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown media key %q", name)
}

// Parse reads a combination written as "ctrl+shift+space" or "media:next".
// Exactly one non-modifier key is required for a keystroke.
func Parse(s string) (Combination, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Combination{}, ErrEmpty
	}
	if rest, ok := strings.CutPrefix(s, "media:"); ok {
		m, err := ParseMedia(rest)
		if err != nil {
			return Combination{}, err
		}
		return Media(m), nil
	}

	var mods Modifier
	var key Code
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Combination{}, fmt.Errorf("malformed combination %q", s)
		}
		if m, ok := modNames[part]; ok {
			mods |= m
			continue
		}
		c, ok := namedCodes[part]
		if !ok {
			return Combination{}, fmt.Errorf("unknown key %q in %q", part, s)
		}
		if key != 0 {
			return Combination{}, fmt.Errorf("more than one key in %q", s)
		}
		key = c
	}
	if key == 0 {
		return Combination{}, fmt.Errorf("no key in %q", s)
	}
	return Keystroke(key, mods), nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Combination {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}
