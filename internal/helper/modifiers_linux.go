//go:build linux

package helper

import "golang.design/x/hotkey"

// modifierFor resolves a canonical modifier name under X11, where Alt
// is reported as Mod1.
func modifierFor(name string) (hotkey.Modifier, bool) {
	switch name {
	case "Ctrl":
		return hotkey.ModCtrl, true
	case "Alt":
		return hotkey.Mod1, true
	case "Shift":
		return hotkey.ModShift, true
	}
	return 0, false
}
