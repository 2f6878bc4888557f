//go:build darwin

package helper

import "golang.design/x/hotkey"

// modifierFor resolves a canonical modifier name on macOS. The canonical
// primary modifier (Ctrl) maps to Command, which is what system-wide
// shortcuts mean on this platform; Alt maps to Option.
func modifierFor(name string) (hotkey.Modifier, bool) {
	switch name {
	case "Ctrl":
		return hotkey.ModCmd, true
	case "Alt":
		return hotkey.ModOption, true
	case "Shift":
		return hotkey.ModShift, true
	}
	return 0, false
}
