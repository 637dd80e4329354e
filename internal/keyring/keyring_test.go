package keyring

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

func TestVaultID(t *testing.T) {
	dir := t.TempDir()

	a, err := VaultID(filepath.Join(dir, "vault-lock"))
	require.NoError(t, err)
	b, err := VaultID(filepath.Join(dir, "x", "..", "vault-lock"))
	require.NoError(t, err)
	c, err := VaultID(filepath.Join(dir, "other-lock"))
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestPasswordLifecycle(t *testing.T) {
	gokeyring.MockInit()

	id, err := VaultID(t.TempDir())
	require.NoError(t, err)

	assert.False(t, HasPassword(id))

	require.NoError(t, SavePassword(id, "hunter2"))
	assert.True(t, HasPassword(id))

	got, err := GetPassword(id)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)

	require.NoError(t, DeletePassword(id))
	assert.False(t, HasPassword(id))

	_, err = GetPassword(id)
	assert.ErrorIs(t, err, gokeyring.ErrNotFound)
}
