//go:build linux && x11

package native

import (
	"golang.design/x/hotkey"

	"keyhook/combo"
)

var modifierMap = map[combo.Modifier]hotkey.Modifier{
	combo.ModCtrl:  hotkey.ModCtrl,
	combo.ModShift: hotkey.ModShift,
	combo.ModAlt:   hotkey.Mod1, // Alt = Mod1 on X11
	combo.ModMeta:  hotkey.Mod4, // Super = Mod4 on X11
}
