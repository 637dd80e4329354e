package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Store is the part of a vault session the browser needs.
type Store interface {
	Refresh() error
	Explore(prefix string) []string
	Get(ctx context.Context, p string) (string, error)
	Remove(ctx context.Context, p string) error
}

// Mode represents the current interaction mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeConfirm
	ModeHelp
)

// Entry is one child of the current prefix.
type Entry struct {
	Name  string // as returned by Explore; directories end with '/'
	Path  string // full secret path or prefix
	IsDir bool
}

// Model represents the state of the browser
type Model struct {
	ctx   context.Context
	store Store
	theme *Theme
	keys  KeyMap
	help  help.Model

	// Navigation state
	prefix   string
	previous string // child we came back from, to keep the cursor on it
	entries  []Entry
	cursor   int
	offset   int

	// Secret preview
	revealed   bool
	secret     string
	secretErr  error
	previewGen int

	width  int
	height int

	mode    Mode
	confirm textinput.Model

	statusMsg string
	errorMsg  string
}

// NewModel creates a browser rooted at the top of the vault.
func NewModel(ctx context.Context, store Store) *Model {
	ti := textinput.New()
	ti.CharLimit = 3

	return &Model{
		ctx:     ctx,
		store:   store,
		theme:   DefaultTheme(),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		confirm: ti,
	}
}

// Run starts the browser and blocks until the user quits.
func Run(ctx context.Context, store Store) error {
	p := tea.NewProgram(NewModel(ctx, store), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Prefix returns the prefix currently shown.
func (m *Model) Prefix() string {
	return m.prefix
}

// Entries returns the children currently shown.
func (m *Model) Entries() []Entry {
	return m.entries
}

func (m *Model) Init() tea.Cmd {
	return m.loadEntries()
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case entriesLoadedMsg:
		m.entries = msg.entries
		m.errorMsg = ""
		m.placeCursor()
		return m, m.updatePreview()

	case secretLoadedMsg:
		// Drop previews for an entry the cursor has already left
		if msg.generation == m.previewGen {
			m.secret = msg.value
			m.secretErr = msg.err
		}
		return m, nil

	case removedMsg:
		m.statusMsg = fmt.Sprintf("Removed %s", msg.path)
		return m, m.loadEntries()

	case errorMsg:
		m.errorMsg = string(msg)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeConfirm:
			return m.handleConfirmMode(msg)
		case ModeHelp:
			if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
				m.mode = ModeNormal
			}
			return m, nil
		default:
			return m.handleNormalMode(msg)
		}
	}

	if m.mode == ModeConfirm {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.offset = 0
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(m.entries))
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Enter):
		return m, m.enter()

	case key.Matches(msg, m.keys.Back):
		return m, m.goBack()

	case key.Matches(msg, m.keys.Reveal):
		m.revealed = !m.revealed
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadEntries()

	case key.Matches(msg, m.keys.Delete):
		if entry := m.currentEntry(); entry != nil && !entry.IsDir {
			m.mode = ModeConfirm
			m.confirm.Placeholder = fmt.Sprintf("Remove %s? (y/n)", entry.Path)
			m.confirm.SetValue("")
			m.errorMsg = ""
			m.statusMsg = ""
			return m, m.confirm.Focus()
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.endConfirm()
		return m, nil

	case tea.KeyEnter:
		answer := strings.ToLower(strings.TrimSpace(m.confirm.Value()))
		m.endConfirm()
		if answer == "y" || answer == "yes" {
			return m, m.removeCurrent()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.confirm, cmd = m.confirm.Update(msg)
	return m, cmd
}

func (m *Model) endConfirm() {
	m.mode = ModeNormal
	m.confirm.Blur()
	m.confirm.SetValue("")
}

// moveCursor moves the cursor by delta, handling bounds and scrolling
func (m *Model) moveCursor(delta int) {
	if len(m.entries) == 0 {
		return
	}

	m.cursor = max(0, min(m.cursor+delta, len(m.entries)-1))

	visible := m.visibleLines()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

// placeCursor keeps the cursor inside the list after a reload.
func (m *Model) placeCursor() {
	if m.previous != "" {
		for i, entry := range m.entries {
			if entry.Name == m.previous {
				m.cursor = i
				break
			}
		}
		m.previous = ""
	}
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	m.cursor = max(m.cursor, 0)
	m.moveCursor(0)
}

func (m *Model) visibleLines() int {
	// Title, borders, status and help
	return max(m.height-8, 5)
}

func (m *Model) currentEntry() *Entry {
	if m.cursor >= 0 && m.cursor < len(m.entries) {
		return &m.entries[m.cursor]
	}
	return nil
}

type entriesLoadedMsg struct {
	entries []Entry
}

type secretLoadedMsg struct {
	value      string
	err        error
	generation int
}

type removedMsg struct {
	path string
}

type errorMsg string

func (m *Model) loadEntries() tea.Cmd {
	prefix := m.prefix
	return func() tea.Msg {
		if err := m.store.Refresh(); err != nil {
			return errorMsg(fmt.Sprintf("Failed to load secrets: %v", err))
		}

		var entries []Entry
		for _, name := range m.store.Explore(prefix) {
			entries = append(entries, Entry{
				Name:  name,
				Path:  prefix + name,
				IsDir: strings.HasSuffix(name, "/"),
			})
		}
		return entriesLoadedMsg{entries: entries}
	}
}

func (m *Model) updatePreview() tea.Cmd {
	m.previewGen++
	gen := m.previewGen
	m.secret = ""
	m.secretErr = nil

	entry := m.currentEntry()
	if entry == nil || entry.IsDir {
		return nil
	}

	p := entry.Path
	return func() tea.Msg {
		value, err := m.store.Get(m.ctx, p)
		return secretLoadedMsg{value: value, err: err, generation: gen}
	}
}

func (m *Model) enter() tea.Cmd {
	entry := m.currentEntry()
	if entry == nil || !entry.IsDir {
		return nil
	}

	m.prefix = entry.Path
	m.cursor = 0
	m.offset = 0
	m.statusMsg = ""
	return m.loadEntries()
}

func (m *Model) goBack() tea.Cmd {
	if m.prefix == "" {
		return nil
	}

	trimmed := strings.TrimSuffix(m.prefix, "/")
	parent := ""
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		parent = trimmed[:i+1]
	}

	m.previous = strings.TrimPrefix(m.prefix, parent)
	m.prefix = parent
	m.cursor = 0
	m.offset = 0
	return m.loadEntries()
}

func (m *Model) removeCurrent() tea.Cmd {
	entry := m.currentEntry()
	if entry == nil || entry.IsDir {
		return nil
	}

	p := entry.Path
	return func() tea.Msg {
		if err := m.store.Remove(m.ctx, p); err != nil {
			return errorMsg(fmt.Sprintf("Failed to remove %s: %v", p, err))
		}
		return removedMsg{path: p}
	}
}
