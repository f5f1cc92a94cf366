//go:build darwin

package native

import (
	"golang.design/x/hotkey"

	"keyhook/combo"
)

var modifierMap = map[combo.Modifier]hotkey.Modifier{
	combo.ModCtrl:  hotkey.ModCtrl,
	combo.ModShift: hotkey.ModShift,
	combo.ModAlt:   hotkey.ModOption,
	combo.ModMeta:  hotkey.ModCmd,
}
