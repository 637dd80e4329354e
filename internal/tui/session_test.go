package tui

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/slotvault/internal/core"
	"github.com/illarion/slotvault/internal/crypto"
)

func TestModelCommandsShareSession(t *testing.T) {
	dir := t.TempDir()
	vault := core.New(core.Layout{
		LockDir:   filepath.Join(dir, "lock"),
		UnlockDir: filepath.Join(dir, "unlock"),
	}, core.Options{KDF: crypto.Params{KDF: crypto.PBKDF2, Cost: 1000}})
	password := []byte("pw")
	ctx := context.Background()

	require.NoError(t, vault.Set(ctx, "app/db", []byte("postgres://"), password))
	require.NoError(t, vault.Set(ctx, "root", []byte("top"), password))

	session, err := vault.Open(password)
	require.NoError(t, err)
	defer session.Close()

	m := NewModel(ctx, session)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	run(m, m.Init())
	press(m, runes("j"))
	require.Equal(t, "root", m.currentEntry().Path)

	// Commands run on their own goroutines in a real program
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		load := m.loadEntries()
		preview := m.updatePreview()
		require.NotNil(t, preview)

		wg.Add(3)
		go func() {
			defer wg.Done()
			_, ok := load().(entriesLoadedMsg)
			assert.True(t, ok)
		}()
		go func() {
			defer wg.Done()
			msg, ok := preview().(secretLoadedMsg)
			if assert.True(t, ok) {
				assert.NoError(t, msg.err)
				assert.Equal(t, "top", msg.value)
			}
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, session.Set(ctx, "app/extra", []byte("x")))
		}()
	}
	wg.Wait()

	assert.Contains(t, session.Paths(), "app/extra")
}
