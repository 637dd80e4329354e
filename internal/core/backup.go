package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/illarion/slotvault/internal/ledger"
	"github.com/illarion/slotvault/internal/storage"
)

// Backup copies the lock directory, still encrypted, into a new snapshot
// of the archive at archivePath. A vault failing verification is still
// backed up, with Healthy set to false.
func (v *Vault) Backup(ctx context.Context, archivePath, note string) (storage.Snapshot, error) {
	if err := v.checkArchive(archivePath); err != nil {
		return storage.Snapshot{}, err
	}

	integrity := v.Verify(ctx)
	if integrity != nil && !errors.Is(integrity, ledger.ErrMismatch) {
		return storage.Snapshot{}, integrity
	}

	files, err := v.readLockDir(ctx)
	if err != nil {
		return storage.Snapshot{}, err
	}
	if len(files) == 0 {
		return storage.Snapshot{}, ErrEmptyVault
	}

	archive, err := storage.Open(archivePath)
	if err != nil {
		return storage.Snapshot{}, classify("open archive", err)
	}
	defer archive.Close()

	snap, err := archive.Put(storage.Snapshot{Note: note, Healthy: integrity == nil}, files)
	if err != nil {
		return storage.Snapshot{}, classify("store snapshot", err)
	}

	v.log.Debug("backed up vault", zap.String("snapshot", snap.ID), zap.Int("files", snap.Files))
	return snap, nil
}

// Backups lists the snapshots of the archive, oldest first.
func (v *Vault) Backups(archivePath string) ([]storage.Snapshot, error) {
	if err := v.checkArchive(archivePath); err != nil {
		return nil, err
	}
	if _, err := os.Stat(archivePath); err != nil {
		return nil, classify("open archive", err)
	}

	archive, err := storage.Open(archivePath)
	if err != nil {
		return nil, classify("open archive", err)
	}
	defer archive.Close()

	snaps, err := archive.List()
	if err != nil {
		return nil, classify("list snapshots", err)
	}
	return snaps, nil
}

// DeleteBackup removes a snapshot and compacts the archive.
func (v *Vault) DeleteBackup(archivePath, id string) error {
	if err := v.checkArchive(archivePath); err != nil {
		return err
	}
	archive, err := storage.Open(archivePath)
	if err != nil {
		return classify("open archive", err)
	}
	defer archive.Close()

	if err := archive.Delete(id); err != nil {
		if errors.Is(err, storage.ErrSnapshotNotFound) || errors.Is(err, storage.ErrAmbiguousID) {
			return err
		}
		return classify("delete snapshot", err)
	}
	return classify("compact archive", archive.Compact())
}

// Restore replaces the lock directory with a snapshot, then verifies it.
// Files not present in the snapshot are removed. The staging directory is
// left alone.
func (v *Vault) Restore(ctx context.Context, archivePath, id string) (storage.Snapshot, error) {
	if err := v.checkArchive(archivePath); err != nil {
		return storage.Snapshot{}, err
	}
	if _, err := os.Stat(archivePath); err != nil {
		return storage.Snapshot{}, classify("open archive", err)
	}

	archive, err := storage.Open(archivePath)
	if err != nil {
		return storage.Snapshot{}, classify("open archive", err)
	}
	defer archive.Close()

	snap, files, err := archive.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrSnapshotNotFound) || errors.Is(err, storage.ErrAmbiguousID) {
			return storage.Snapshot{}, err
		}
		return storage.Snapshot{}, classify("read snapshot", err)
	}

	for name := range files {
		if filepath.Base(name) != name || !filepath.IsLocal(name) {
			return storage.Snapshot{}, fmt.Errorf("%w: snapshot file %q", ErrInvalidPath, name)
		}
	}

	if err := ctx.Err(); err != nil {
		return storage.Snapshot{}, err
	}

	if err := os.MkdirAll(v.layout.LockDir, DirPermSecure); err != nil {
		return storage.Snapshot{}, classify("create lock directory", err)
	}

	current, err := v.readLockDir(ctx)
	if err != nil {
		return storage.Snapshot{}, err
	}
	for name := range current {
		if _, keep := files[name]; keep {
			continue
		}
		if err := os.Remove(filepath.Join(v.layout.LockDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return storage.Snapshot{}, classify("remove "+name, err)
		}
	}

	for name, data := range files {
		if err := os.WriteFile(filepath.Join(v.layout.LockDir, name), data, FilePermSecure); err != nil {
			return storage.Snapshot{}, classify("restore "+name, err)
		}
	}

	v.log.Debug("restored vault", zap.String("snapshot", snap.ID), zap.Int("files", len(files)))
	return snap, v.Verify(ctx)
}

// checkArchive rejects archives inside the lock directory, where they
// would be backed up into themselves and removed by a restore.
func (v *Vault) checkArchive(archivePath string) error {
	lockAbs, err := filepath.Abs(v.layout.LockDir)
	if err != nil {
		return classify("resolve lock directory", err)
	}
	archiveAbs, err := filepath.Abs(archivePath)
	if err != nil {
		return classify("resolve archive", err)
	}

	if rel, err := filepath.Rel(lockAbs, archiveAbs); err == nil && filepath.IsLocal(rel) {
		return fmt.Errorf("%w: archive %s is inside the lock directory", ErrInvalidPath, archivePath)
	}
	return nil
}

// readLockDir returns every regular file of the lock directory except OS
// artifacts.
func (v *Vault) readLockDir(ctx context.Context) (map[string][]byte, error) {
	entries, err := os.ReadDir(v.layout.LockDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, classify("read lock directory", err)
	}

	files := make(map[string][]byte)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() || ledger.IsArtifact(entry.Name()) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(v.layout.LockDir, entry.Name()))
		if err != nil {
			return nil, classify("read "+entry.Name(), err)
		}
		files[entry.Name()] = data
	}
	return files, nil
}
