// Package combo defines the key combinations hotkeys are bound to.
//
// Codes use the Windows virtual-key numbering as the platform-neutral space;
// every native backend translates its own codes into it.
package combo

import (
	"fmt"
	"strings"
)

// Code is a platform-neutral key code.
type Code uint16

const (
	KeyBackspace Code = 0x08
	KeyTab       Code = 0x09
	KeyReturn    Code = 0x0D
	KeyShift     Code = 0x10
	KeyCtrl      Code = 0x11
	KeyAlt       Code = 0x12
	KeyPause     Code = 0x13
	KeyCapsLock  Code = 0x14
	KeyEscape    Code = 0x1B
	KeySpace     Code = 0x20
	KeyPageUp    Code = 0x21
	KeyPageDown  Code = 0x22
	KeyEnd       Code = 0x23
	KeyHome      Code = 0x24
	KeyLeft      Code = 0x25
	KeyUp        Code = 0x26
	KeyRight     Code = 0x27
	KeyDown      Code = 0x28
	KeyPrint     Code = 0x2C
	KeyInsert    Code = 0x2D
	KeyDelete    Code = 0x2E

	Key0 Code = 0x30
	Key1 Code = 0x31
	Key2 Code = 0x32
	Key3 Code = 0x33
	Key4 Code = 0x34
	Key5 Code = 0x35
	Key6 Code = 0x36
	Key7 Code = 0x37
	Key8 Code = 0x38
	Key9 Code = 0x39

	KeyA Code = 0x41
	KeyB Code = 0x42
	KeyC Code = 0x43
	KeyD Code = 0x44
	KeyE Code = 0x45
	KeyF Code = 0x46
	KeyG Code = 0x47
	KeyH Code = 0x48
	KeyI Code = 0x49
	KeyJ Code = 0x4A
	KeyK Code = 0x4B
	KeyL Code = 0x4C
	KeyM Code = 0x4D
	KeyN Code = 0x4E
	KeyO Code = 0x4F
	KeyP Code = 0x50
	KeyQ Code = 0x51
	KeyR Code = 0x52
	KeyS Code = 0x53
	KeyT Code = 0x54
	KeyU Code = 0x55
	KeyV Code = 0x56
	KeyW Code = 0x57
	KeyX Code = 0x58
	KeyY Code = 0x59
	KeyZ Code = 0x5A

	KeyLMeta Code = 0x5B
	KeyRMeta Code = 0x5C

	KeyF1  Code = 0x70
	KeyF2  Code = 0x71
	KeyF3  Code = 0x72
	KeyF4  Code = 0x73
	KeyF5  Code = 0x74
	KeyF6  Code = 0x75
	KeyF7  Code = 0x76
	KeyF8  Code = 0x77
	KeyF9  Code = 0x78
	KeyF10 Code = 0x79
	KeyF11 Code = 0x7A
	KeyF12 Code = 0x7B
	KeyF13 Code = 0x7C
	KeyF14 Code = 0x7D
	KeyF15 Code = 0x7E
	KeyF16 Code = 0x7F
	KeyF17 Code = 0x80
	KeyF18 Code = 0x81
	KeyF19 Code = 0x82
	KeyF20 Code = 0x83
	KeyF21 Code = 0x84
	KeyF22 Code = 0x85
	KeyF23 Code = 0x86
	KeyF24 Code = 0x87

	KeyLShift Code = 0xA0
	KeyRShift Code = 0xA1
	KeyLCtrl  Code = 0xA2
	KeyRCtrl  Code = 0xA3
	KeyLAlt   Code = 0xA4
	KeyRAlt   Code = 0xA5

	KeyMediaNext      Code = 0xB0
	KeyMediaPrev      Code = 0xB1
	KeyMediaStop      Code = 0xB2
	KeyMediaPlayPause Code = 0xB3
)

// Modifier is a bit-set of modifier keys.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
	ModMeta
)

// ModifierOf reports the modifier a key code belongs to, for either side of
// the keyboard.
func ModifierOf(c Code) (Modifier, bool) {
	switch c {
	case KeyCtrl, KeyLCtrl, KeyRCtrl:
		return ModCtrl, true
	case KeyAlt, KeyLAlt, KeyRAlt:
		return ModAlt, true
	case KeyShift, KeyLShift, KeyRShift:
		return ModShift, true
	case KeyLMeta, KeyRMeta:
		return ModMeta, true
	}
	return 0, false
}

// MediaKey identifies one of the supported media keys.
type MediaKey uint8

const (
	MediaPlayPause MediaKey = iota + 1
	MediaStop
	MediaNextTrack
	MediaPrevTrack
)

var mediaNames = map[MediaKey]string{
	MediaPlayPause: "playpause",
	MediaStop:      "stop",
	MediaNextTrack: "next",
	MediaPrevTrack: "prev",
}

// Code returns the key code a native backend reports for m.
func (m MediaKey) Code() Code {
	switch m {
	case MediaPlayPause:
		return KeyMediaPlayPause
	case MediaStop:
		return KeyMediaStop
	case MediaNextTrack:
		return KeyMediaNext
	case MediaPrevTrack:
		return KeyMediaPrev
	}
	return 0
}

func (m MediaKey) String() string {
	if s, ok := mediaNames[m]; ok {
		return s
	}
	return fmt.Sprintf("media(%d)", uint8(m))
}

// Kind tags a Combination.
type Kind uint8

const (
	KindKeystroke Kind = iota + 1
	KindMedia
)

// Combination is either a keystroke (code plus modifiers) or a media key.
// It is comparable and used as the registry key.
type Combination struct {
	kind  Kind
	code  Code
	mods  Modifier
	media MediaKey
}

// Keystroke builds a keystroke combination.
func Keystroke(code Code, mods Modifier) Combination {
	return Combination{kind: KindKeystroke, code: code, mods: mods}
}

// Media builds a media-key combination.
func Media(m MediaKey) Combination {
	return Combination{kind: KindMedia, media: m}
}

func (c Combination) Kind() Kind          { return c.kind }
func (c Combination) IsMedia() bool       { return c.kind == KindMedia }
func (c Combination) Modifiers() Modifier { return c.mods }
func (c Combination) MediaKey() MediaKey  { return c.media }
func (c Combination) Valid() bool         { return c.Target() != 0 }
func (c Combination) Has(m Modifier) bool { return c.mods&m == m }

// Target returns the code whose press satisfies the combination.
func (c Combination) Target() Code {
	switch c.kind {
	case KindKeystroke:
		return c.code
	case KindMedia:
		return c.media.Code()
	}
	return 0
}

func (c Combination) String() string {
	switch c.kind {
	case KindMedia:
		return "media:" + c.media.String()
	case KindKeystroke:
		var parts []string
		if c.Has(ModCtrl) {
			parts = append(parts, "ctrl")
		}
		if c.Has(ModAlt) {
			parts = append(parts, "alt")
		}
		if c.Has(ModShift) {
			parts = append(parts, "shift")
		}
		if c.Has(ModMeta) {
			parts = append(parts, "meta")
		}
		return strings.Join(append(parts, c.code.String()), "+")
	}
	return "invalid"
}
