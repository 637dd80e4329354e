package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket    = []byte("config")    // version, timestamps
	SnapshotsBucket = []byte("snapshots") // snapshot id -> Snapshot JSON
	FilesBucket     = []byte("files")     // snapshot id -> nested bucket of file name -> sealed bytes
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrAmbiguousID      = errors.New("snapshot id prefix is ambiguous")
)

// Snapshot describes one copy of a lock directory.
type Snapshot struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Note    string    `json:"note,omitempty"`
	Files   int       `json:"files"`
	Size    int64     `json:"size"`
	Healthy bool      `json:"healthy"` // ledger verified when taken
}

// Archive provides BBolt-based storage for lock directory snapshots
type Archive struct {
	db *bolt.DB
}

// Open opens or creates a snapshot archive
func Open(path string) (*Archive, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	a := &Archive{db: db}
	if err := a.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// Close closes the archive
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) initialize() error {
	return a.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, SnapshotsBucket, FilesBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}

		created, _ := time.Now().MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigModified, created)
	})
}

// Put stores files as a new snapshot. ID, Created, Files and Size are
// filled in; the stored snapshot is returned.
func (a *Archive) Put(snap Snapshot, files map[string][]byte) (Snapshot, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to generate snapshot id: %w", err)
	}

	snap.ID = id.String()
	snap.Created = time.Now().UTC()
	snap.Files = len(files)
	snap.Size = 0
	for _, data := range files {
		snap.Size += int64(len(data))
	}

	meta, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = a.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(SnapshotsBucket).Put([]byte(snap.ID), meta); err != nil {
			return err
		}

		bucket, err := tx.Bucket(FilesBucket).CreateBucket([]byte(snap.ID))
		if err != nil {
			return fmt.Errorf("failed to create snapshot bucket: %w", err)
		}
		for name, data := range files {
			if err := bucket.Put([]byte(name), data); err != nil {
				return fmt.Errorf("failed to store %s: %w", name, err)
			}
		}

		return touch(tx)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// List returns all snapshots, oldest first
func (a *Archive) List() ([]Snapshot, error) {
	var snaps []Snapshot
	err := a.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(SnapshotsBucket).ForEach(func(k, v []byte) error {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return fmt.Errorf("failed to parse snapshot %s: %w", k, err)
			}
			snaps = append(snaps, snap)
			return nil
		})
	})
	return snaps, err
}

// Get returns a snapshot and its files. id may be a unique prefix.
func (a *Archive) Get(id string) (Snapshot, map[string][]byte, error) {
	var snap Snapshot
	files := make(map[string][]byte)

	err := a.db.View(func(tx *bolt.Tx) error {
		key, meta, err := resolve(tx, id)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(meta, &snap); err != nil {
			return fmt.Errorf("failed to parse snapshot %s: %w", key, err)
		}

		bucket := tx.Bucket(FilesBucket).Bucket(key)
		if bucket == nil {
			return fmt.Errorf("%w: %s has no files", ErrSnapshotNotFound, key)
		}
		return bucket.ForEach(func(k, v []byte) error {
			// Make a copy since the slice is only valid during the transaction
			files[string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return Snapshot{}, nil, err
	}
	return snap, files, nil
}

// Delete removes a snapshot. id may be a unique prefix.
func (a *Archive) Delete(id string) error {
	return a.db.Update(func(tx *bolt.Tx) error {
		key, _, err := resolve(tx, id)
		if err != nil {
			return err
		}
		// Copy the key: it points into the page being modified.
		key = append([]byte(nil), key...)

		if err := tx.Bucket(SnapshotsBucket).Delete(key); err != nil {
			return err
		}
		if err := tx.Bucket(FilesBucket).DeleteBucket(key); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		return touch(tx)
	})
}

func resolve(tx *bolt.Tx, id string) ([]byte, []byte, error) {
	if id == "" {
		return nil, nil, ErrSnapshotNotFound
	}

	c := tx.Bucket(SnapshotsBucket).Cursor()
	prefix := []byte(id)

	k, v := c.Seek(prefix)
	if k == nil || !bytes.HasPrefix(k, prefix) {
		return nil, nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if !bytes.Equal(k, prefix) {
		if next, _ := c.Next(); next != nil && bytes.HasPrefix(next, prefix) {
			return nil, nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
		}
	}
	return k, v, nil
}

func touch(tx *bolt.Tx) error {
	modified, _ := time.Now().MarshalBinary()
	return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
}

// Compact creates a compacted copy of the archive, removing unused space.
// Deleted snapshots leave free pages behind until compaction.
func (a *Archive) Compact() error {
	srcPath := a.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact archive: %w", err)
	}

	err = a.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return copyBucket(srcBucket, dstBucket)
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact archive: %w", err)
	}

	if err := a.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source archive: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace archive: %w", err)
	}
	os.Remove(backupPath)

	a.db, err = bolt.Open(srcPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to reopen archive: %w", err)
	}
	return nil
}

func copyBucket(src, dst *bolt.Bucket) error {
	return src.ForEach(func(k, v []byte) error {
		if v != nil {
			return dst.Put(k, v)
		}
		// nil value marks a nested bucket
		child, err := dst.CreateBucketIfNotExists(k)
		if err != nil {
			return err
		}
		return copyBucket(src.Bucket(k), child)
	})
}
