package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotkeys/internal/shared"
)

var _ list.Item = bindingItem{}

// bindingItem wraps [shared.Binding] to implement [list.Item]. Playlist names
// are substituted when the listing has been fetched.
type bindingItem struct {
	binding shared.Binding
	names   map[string]string
}

func (i bindingItem) FilterValue() string { return i.binding.Combo }
func (i bindingItem) Title() string       { return i.binding.Combo }
func (i bindingItem) Description() string {
	if len(i.binding.Playlists) == 0 {
		return "no playlists"
	}

	labels := make([]string, 0, len(i.binding.Playlists))
	for _, id := range i.binding.Playlists {
		if name, ok := i.names[id]; ok && name != "" {
			labels = append(labels, name)
		} else {
			labels = append(labels, id)
		}
	}
	return strings.Join(labels, ", ")
}
