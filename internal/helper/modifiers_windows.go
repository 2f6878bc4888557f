//go:build windows

package helper

import "golang.design/x/hotkey"

// modifierFor resolves a canonical modifier name to its Win32 value.
func modifierFor(name string) (hotkey.Modifier, bool) {
	switch name {
	case "Ctrl":
		return hotkey.ModCtrl, true
	case "Alt":
		return hotkey.ModAlt, true
	case "Shift":
		return hotkey.ModShift, true
	}
	return 0, false
}
