package core

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/slotvault/internal/storage"
)

func TestBackupRestore(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	archive := filepath.Join(t.TempDir(), "backups.db")

	require.NoError(t, v.Set(ctx, "a", []byte("alpha"), testPassword))

	snap, err := v.Backup(ctx, archive, "before changes")
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Files)
	assert.True(t, snap.Healthy)
	assert.Equal(t, "before changes", snap.Note)

	require.NoError(t, v.Set(ctx, "b", []byte("beta"), testPassword))
	require.NoError(t, v.Remove(ctx, "a", testPassword))

	restored, err := v.Restore(ctx, archive, snap.ID[:13])
	require.NoError(t, err)
	assert.Equal(t, snap.ID, restored.ID)

	got, err := v.Get(ctx, "a", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got)

	_, err = v.Get(ctx, "b", testPassword)
	assert.ErrorIs(t, err, ErrNonExistentPath)
	assert.NoFileExists(t, filepath.Join(v.Layout().LockDir, "002.vlt"))

	snaps, err := v.Backups(archive)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, snap.ID, snaps[0].ID)

	require.NoError(t, v.DeleteBackup(archive, snap.ID))
	snaps, err = v.Backups(archive)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestBackupEmptyVault(t *testing.T) {
	v := newTestVault(t)

	_, err := v.Backup(context.Background(), filepath.Join(t.TempDir(), "backups.db"), "")
	assert.ErrorIs(t, err, ErrEmptyVault)
}

func TestRestoreUnknownSnapshot(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	archive := filepath.Join(t.TempDir(), "backups.db")

	require.NoError(t, v.Set(ctx, "a", []byte("alpha"), testPassword))
	_, err := v.Backup(ctx, archive, "")
	require.NoError(t, err)

	_, err = v.Restore(ctx, archive, "ffffffff")
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)

	_, err = v.Backups(filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorIs(t, err, ErrIO)
}

func TestArchiveInsideLockDir(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	lockDir := v.Layout().LockDir

	require.NoError(t, v.Set(ctx, "a", []byte("alpha"), testPassword))

	for _, archive := range []string{
		filepath.Join(lockDir, "backups.db"),
		filepath.Join(lockDir, "nested", "backups.db"),
		lockDir,
	} {
		_, err := v.Backup(ctx, archive, "")
		assert.ErrorIs(t, err, ErrInvalidPath, archive)

		_, err = v.Restore(ctx, archive, "0")
		assert.ErrorIs(t, err, ErrInvalidPath, archive)

		_, err = v.Backups(archive)
		assert.ErrorIs(t, err, ErrInvalidPath, archive)

		assert.ErrorIs(t, v.DeleteBackup(archive, "0"), ErrInvalidPath, archive)
	}

	assert.NoFileExists(t, filepath.Join(lockDir, "backups.db"))
	assert.NoError(t, v.Verify(ctx))

	_, err := v.Backup(ctx, filepath.Join(filepath.Dir(lockDir), "lock-backups.db"), "")
	assert.NoError(t, err)
}
