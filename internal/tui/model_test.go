package tui

import (
	"context"
	"errors"
	"slices"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/slotvault/internal/pattern"
)

type fakeStore struct {
	secrets map[string]string
}

func (f *fakeStore) Refresh() error { return nil }

func (f *fakeStore) Explore(prefix string) []string {
	keys := make([]string, 0, len(f.secrets))
	for k := range f.secrets {
		keys = append(keys, k)
	}
	return pattern.Explore(keys, prefix)
}

func (f *fakeStore) Get(_ context.Context, p string) (string, error) {
	v, ok := f.secrets[p]
	if !ok {
		return "", errors.New("path does not exist")
	}
	return v, nil
}

func (f *fakeStore) Remove(_ context.Context, p string) error {
	delete(f.secrets, p)
	return nil
}

func newTestModel(t *testing.T) (*Model, *fakeStore) {
	t.Helper()
	store := &fakeStore{secrets: map[string]string{
		"app/db":        "postgres://",
		"app/api/key":   "abc",
		"app/api/token": "xyz",
		"root":          "top",
	}}
	m := NewModel(context.Background(), store)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	run(m, m.Init())
	return m, store
}

// run executes cmd and feeds browser messages back until none remain.
func run(m *Model, cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		switch msg.(type) {
		case entriesLoadedMsg, secretLoadedMsg, removedMsg, errorMsg:
			_, cmd = m.Update(msg)
		default:
			return
		}
	}
}

func press(m *Model, keys ...tea.KeyMsg) {
	for _, k := range keys {
		_, cmd := m.Update(k)
		if m.mode == ModeConfirm {
			continue
		}
		run(m, cmd)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func names(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestBrowseNavigation(t *testing.T) {
	m, _ := newTestModel(t)

	assert.Equal(t, []string{"app/", "root"}, names(m.Entries()))

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "app/", m.Prefix())
	assert.Equal(t, []string{"api/", "db"}, names(m.Entries()))

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "app/api/", m.Prefix())
	assert.Equal(t, []string{"key", "token"}, names(m.Entries()))

	// Entering a secret does not navigate
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "app/api/", m.Prefix())

	press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "app/", m.Prefix())
	require.NotNil(t, m.currentEntry())
	assert.Equal(t, "api/", m.currentEntry().Name)

	press(m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "", m.Prefix())
	assert.Equal(t, "app/", m.currentEntry().Name)
}

func TestCursorBounds(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, runes("k"))
	assert.Equal(t, 0, m.cursor)

	press(m, runes("j"), runes("j"), runes("j"))
	assert.Equal(t, 1, m.cursor)

	press(m, runes("g"))
	assert.Equal(t, 0, m.cursor)
	press(m, runes("G"))
	assert.Equal(t, 1, m.cursor)
}

func TestPreviewLoadsSelectedSecret(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, runes("j"))
	assert.Equal(t, "top", m.secret)
	assert.Contains(t, m.View(), maskedSecret)

	press(m, runes("v"))
	assert.True(t, m.revealed)
	assert.NotContains(t, m.View(), maskedSecret)
}

func TestStalePreviewIgnored(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(secretLoadedMsg{value: "stale", generation: m.previewGen - 1})
	assert.Empty(t, m.secret)
}

func TestRemoveWithConfirmation(t *testing.T) {
	m, store := newTestModel(t)

	press(m, runes("j"), runes("d"))
	require.Equal(t, ModeConfirm, m.mode)

	press(m, runes("n"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeNormal, m.mode)
	assert.Contains(t, store.secrets, "root")

	press(m, runes("d"), runes("y"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotContains(t, store.secrets, "root")
	assert.Equal(t, []string{"app/"}, names(m.Entries()))
	assert.Equal(t, "Removed root", m.statusMsg)
}

func TestDeleteIgnoresFolders(t *testing.T) {
	m, store := newTestModel(t)

	press(m, runes("d"))
	assert.Equal(t, ModeNormal, m.mode)
	assert.Len(t, store.secrets, 4)
}

func TestHelpAndQuit(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, runes("?"))
	assert.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "Help")

	press(m, runes("q"))
	assert.Equal(t, ModeNormal, m.mode)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestEntriesCarryFullPaths(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	var paths []string
	for _, e := range m.Entries() {
		paths = append(paths, e.Path)
	}
	assert.True(t, slices.Equal([]string{"app/api/", "app/db"}, paths))
}
