// Package ui implements an interactive binding editor using bubbletea's Elm architecture.
//
// The TUI provides a three-view workflow for managing hotkey bindings:
//  1. [BindingListView] : Browse configured combos and their target playlists
//  2. [CaptureView] : Press a key combination to create or replace a binding
//  3. [PlaylistPickView] : Toggle target playlists with space, save with enter
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Captured key events are canonicalized through the combo package, so a combo
// bound in the terminal matches the same combo delivered by the helper or the
// in-app listener. Saves write straight to the TOML config file; the running
// daemon picks changes up through its config watcher.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, space, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
