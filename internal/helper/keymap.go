package helper

import "golang.design/x/hotkey"

// captureKeys maps canonical key names, as produced by combo.Normalize,
// to the key codes golang.design/x/hotkey defines on every platform.
// Home, End and the paging keys have no portable code and are absent;
// combos using them fail registration and are skipped.
var captureKeys = map[string]hotkey.Key{
	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD,
	"E": hotkey.KeyE, "F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH,
	"I": hotkey.KeyI, "J": hotkey.KeyJ, "K": hotkey.KeyK, "L": hotkey.KeyL,
	"M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO, "P": hotkey.KeyP,
	"Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX,
	"Y": hotkey.KeyY, "Z": hotkey.KeyZ,

	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,

	"F1": hotkey.KeyF1, "F2": hotkey.KeyF2, "F3": hotkey.KeyF3,
	"F4": hotkey.KeyF4, "F5": hotkey.KeyF5, "F6": hotkey.KeyF6,
	"F7": hotkey.KeyF7, "F8": hotkey.KeyF8, "F9": hotkey.KeyF9,
	"F10": hotkey.KeyF10, "F11": hotkey.KeyF11, "F12": hotkey.KeyF12,

	"Space":  hotkey.KeySpace,
	"Enter":  hotkey.KeyReturn,
	"Esc":    hotkey.KeyEscape,
	"Tab":    hotkey.KeyTab,
	"Delete": hotkey.KeyDelete,
	"Up":     hotkey.KeyUp,
	"Down":   hotkey.KeyDown,
	"Left":   hotkey.KeyLeft,
	"Right":  hotkey.KeyRight,
}

// keyFor resolves a canonical key name to its OS key code.
func keyFor(name string) (hotkey.Key, bool) {
	key, ok := captureKeys[name]
	return key, ok
}
