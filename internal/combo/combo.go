// package combo canonicalizes keyboard shortcuts into order-independent strings.
//
// A canonical combo lists its modifiers in the fixed order Ctrl, Alt, Shift,
// followed by a single non-modifier key, joined with "+" ("Ctrl+Alt+1").
// Equivalent phrasings ("control+1", "Ctrl+1", macOS Command vs Ctrl) all
// normalize to the same string, so combos compare equal across platforms and
// input sources.
package combo

import "strings"

// Separator joins modifier and key parts in a canonical combo.
const Separator = "+"

var keyNames = map[string]string{
	"up":         "Up",
	"arrowup":    "Up",
	"↑":          "Up",
	"down":       "Down",
	"arrowdown":  "Down",
	"↓":          "Down",
	"left":       "Left",
	"arrowleft":  "Left",
	"←":          "Left",
	"right":      "Right",
	"arrowright": "Right",
	"→":          "Right",
	"space":      "Space",
	"spacebar":   "Space",
	" ":          "Space",
	"esc":        "Esc",
	"escape":     "Esc",
	"enter":      "Enter",
	"return":     "Enter",
	"tab":        "Tab",
	"delete":     "Delete",
	"del":        "Delete",
	"backspace":  "Backspace",
	"home":       "Home",
	"end":        "End",
	"pageup":     "PageUp",
	"pagedown":   "PageDown",
}

// Normalize canonicalizes a free-text combo string.
//
// Parsing is forgiving: parts may appear in any order and use any casing or
// common alias (control/ctrl, option/opt/alt, command/cmd/meta/super/win).
// Command and its aliases fold into Ctrl so a combo bound on macOS matches
// the same binding elsewhere. The result is deterministic and idempotent;
// normalizing an already-normalized combo returns it unchanged. Empty input
// yields "".
func Normalize(text string) string {
	var ctrl, alt, shift bool
	key := ""

	for _, part := range strings.Split(text, Separator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch strings.ToLower(part) {
		case "ctrl", "control":
			ctrl = true
		case "alt", "option", "opt":
			alt = true
		case "shift":
			shift = true
		case "meta", "cmd", "command", "super", "win":
			ctrl = true
		default:
			key = normalizeKey(part)
		}
	}

	return render(ctrl, alt, shift, key)
}

// FromEvent canonicalizes a live key event's modifier flags and key value.
// The meta flag folds into Ctrl, mirroring [Normalize].
func FromEvent(ctrl, alt, shift, meta bool, key string) string {
	return render(ctrl || meta, alt, shift, normalizeKey(key))
}

// Split breaks a canonical combo into its modifier parts and key part. The
// key is "" when the combo holds only modifiers.
func Split(normalized string) (mods []string, key string) {
	for _, part := range strings.Split(normalized, Separator) {
		if part == "" {
			continue
		}
		if IsModifier(part) {
			mods = append(mods, part)
		} else {
			key = part
		}
	}
	return mods, key
}

// IsModifier reports whether part names a modifier in any accepted alias.
func IsModifier(part string) bool {
	switch strings.ToLower(part) {
	case "ctrl", "control", "alt", "option", "opt", "shift", "meta", "cmd", "command", "super", "win":
		return true
	}
	return false
}

// normalizeKey renders a non-modifier key: named keys map to their canonical
// spelling, single runes upper-case, anything else title-cases.
func normalizeKey(part string) string {
	lower := strings.ToLower(strings.TrimSpace(part))
	if lower == "" && part != " " {
		return ""
	}
	if name, ok := keyNames[lower]; ok {
		return name
	}
	if name, ok := keyNames[part]; ok {
		return name
	}
	runes := []rune(lower)
	if len(runes) == 1 {
		return strings.ToUpper(lower)
	}
	if runes[0] == 'f' && len(runes) <= 3 && isDigits(lower[1:]) {
		return strings.ToUpper(lower)
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func render(ctrl, alt, shift bool, key string) string {
	parts := make([]string, 0, 4)
	if ctrl {
		parts = append(parts, "Ctrl")
	}
	if alt {
		parts = append(parts, "Alt")
	}
	if shift {
		parts = append(parts, "Shift")
	}
	if key != "" {
		parts = append(parts, key)
	}
	return strings.Join(parts, Separator)
}
