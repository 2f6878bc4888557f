package ui

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotkeys/internal/combo"
	"github.com/desertthunder/spotkeys/internal/services"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// PlaylistSource lists the account's playlists. The mutation engine
// satisfies it.
type PlaylistSource interface {
	Playlists(ctx context.Context) ([]services.Playlist, error)
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BindingListView ViewState = iota
	CaptureView
	PlaylistPickView
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	config     *shared.Config
	configPath string
	source     PlaylistSource

	view   ViewState
	width  int
	height int

	bindingList list.Model

	playlists []services.Playlist
	names     map[string]string

	captured string              // combo being created or edited
	cursor   int                 // pick view cursor
	selected map[string]struct{} // playlist ids toggled on

	status string
	err    error

	help help.Model
	keys keyMap
}

type playlistsFetchedMsg struct {
	playlists []services.Playlist
	err       error
}

type savedMsg struct {
	note string
	err  error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, config *shared.Config, configPath string, source PlaylistSource) *Model {
	m := &Model{
		ctx:        ctx,
		config:     config,
		configPath: configPath,
		source:     source,
		view:       BindingListView,
		names:      map[string]string{},
		selected:   map[string]struct{}{},
		help:       help.New(),
		keys:       newKeyMap(),
	}

	m.bindingList = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.bindingList.Title = "Hotkey Bindings"
	m.refreshBindingList()

	return m
}

// Init starts the playlist fetch so bindings can show names instead of ids.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bindingList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CaptureView:
			return m.handleCaptureKeys(msg)
		case PlaylistPickView:
			return m.handlePickKeys(msg)
		default:
			return m.handleBindingListKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.playlists = msg.playlists
		m.names = make(map[string]string, len(msg.playlists))
		for _, playlist := range msg.playlists {
			m.names[playlist.ID] = playlist.Name
		}
		m.refreshBindingList()
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("failed to save config: %v", msg.err))
		} else {
			m.status = styles.ok.Render(msg.note)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.bindingList, cmd = m.bindingList.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case CaptureView:
		return m.renderCapture()
	case PlaylistPickView:
		return m.renderPick()
	default:
		return m.renderBindingList()
	}
}

func (m *Model) handleBindingListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.bindingList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.bindingList, cmd = m.bindingList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.add):
		m.view = CaptureView
		m.captured = ""
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.del):
		item, ok := m.bindingList.SelectedItem().(bindingItem)
		if !ok {
			return m, nil
		}
		if m.config.RemoveBinding(item.binding.Combo) {
			m.refreshBindingList()
			return m, m.persistConfig(fmt.Sprintf("removed %s", item.binding.Combo))
		}
		return m, nil

	case key.Matches(msg, m.keys.enter):
		item, ok := m.bindingList.SelectedItem().(bindingItem)
		if !ok {
			return m, nil
		}
		m.captured = item.binding.Combo
		m.preselect(item.binding.Playlists)
		m.cursor = 0
		m.status = ""
		m.view = PlaylistPickView
		return m, nil
	}

	var cmd tea.Cmd
	m.bindingList, cmd = m.bindingList.Update(msg)
	return m, cmd
}

func (m *Model) handleCaptureKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.back) {
		m.view = BindingListView
		return m, nil
	}

	captured := comboFromKeyMsg(msg)
	if captured == "" {
		return m, nil
	}

	m.captured = captured
	if existing, ok := m.config.Binding(captured); ok {
		m.preselect(existing.Playlists)
	} else {
		m.selected = map[string]struct{}{}
	}
	m.cursor = 0
	m.view = PlaylistPickView
	return m, nil
}

func (m *Model) handlePickKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.back):
		m.view = BindingListView
		return m, nil

	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.down):
		if m.cursor < len(m.playlists)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.space):
		if m.cursor < len(m.playlists) {
			id := m.playlists[m.cursor].ID
			if _, ok := m.selected[id]; ok {
				delete(m.selected, id)
			} else {
				m.selected[id] = struct{}{}
			}
		}

	case key.Matches(msg, m.keys.enter):
		if len(m.selected) == 0 {
			m.status = styles.warn.Render("select at least one playlist")
			return m, nil
		}
		binding := shared.Binding{Combo: m.captured, Playlists: m.chosenIDs()}
		m.config.SetBinding(binding)
		m.refreshBindingList()
		m.view = BindingListView
		return m, m.persistConfig(fmt.Sprintf("saved %s", binding.Combo))
	}

	return m, nil
}

// comboFromKeyMsg maps a terminal key event onto the canonical combo form.
// Terminals report shifted letters as uppercase runes rather than a modifier,
// so single uppercase keys imply Shift.
func comboFromKeyMsg(msg tea.KeyMsg) string {
	parts := strings.Split(msg.String(), "+")
	keyPart := parts[len(parts)-1]

	var ctrl, alt, shift bool
	for _, mod := range parts[:len(parts)-1] {
		switch mod {
		case "ctrl":
			ctrl = true
		case "alt":
			alt = true
		case "shift":
			shift = true
		}
	}

	if utf8.RuneCountInString(keyPart) == 1 && keyPart != strings.ToLower(keyPart) {
		shift = true
	}

	return combo.FromEvent(ctrl, alt, shift, false, keyPart)
}

// preselect loads an existing binding's playlists into the pick state.
func (m *Model) preselect(playlistIDs []string) {
	m.selected = make(map[string]struct{}, len(playlistIDs))
	for _, id := range playlistIDs {
		m.selected[id] = struct{}{}
	}
}

// chosenIDs returns the toggled playlist ids in listing order, with ids the
// listing does not know appended so hand-edited config entries survive.
func (m *Model) chosenIDs() []string {
	ids := make([]string, 0, len(m.selected))
	seen := make(map[string]struct{}, len(m.selected))

	for _, playlist := range m.playlists {
		if _, ok := m.selected[playlist.ID]; ok {
			ids = append(ids, playlist.ID)
			seen[playlist.ID] = struct{}{}
		}
	}
	for id := range m.selected {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (m *Model) refreshBindingList() {
	items := make([]list.Item, len(m.config.Bindings))
	for i, binding := range m.config.Bindings {
		items[i] = bindingItem{binding: binding, names: m.names}
	}
	m.bindingList.SetItems(items)
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.source.Playlists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) persistConfig(note string) tea.Cmd {
	config := m.config
	path := m.configPath
	return func() tea.Msg {
		return savedMsg{note: note, err: shared.SaveConfig(path, config)}
	}
}

func (m *Model) renderBindingList() string {
	helpKeys := []key.Binding{m.keys.add, m.keys.enter, m.keys.del, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.status != "" {
		return fmt.Sprintf("%s\n%s\n\n%s", m.bindingList.View(), m.status, helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.bindingList.View(), helpView)
}

func (m *Model) renderCapture() string {
	title := styles.title.Render("Press the key combination to bind")
	hint := styles.help.Render("modifiers fold into Ctrl+Alt+Shift order; esc cancels")

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, hint, helpView)
}

func (m *Model) renderPick() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("Playlists for %s", m.captured)))
	b.WriteString("\n")

	if len(m.playlists) == 0 {
		b.WriteString(styles.warn.Render("no playlists loaded yet"))
		b.WriteString("\n")
	}

	for i, playlist := range m.playlists {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		mark := "[ ]"
		name := playlist.Name
		if _, ok := m.selected[playlist.ID]; ok {
			mark = "[x]"
			name = styles.ok.Render(name)
		}

		fmt.Fprintf(&b, "%s%s %s\n", cursor, mark, name)
	}

	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	helpKeys := []key.Binding{m.keys.space, m.keys.enter, m.keys.back, m.keys.quit}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))

	return b.String()
}
