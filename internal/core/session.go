package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/illarion/slotvault/internal/crypto"
	"github.com/illarion/slotvault/internal/index"
	"github.com/illarion/slotvault/internal/ledger"
	"github.com/illarion/slotvault/internal/pattern"
	"github.com/illarion/slotvault/internal/security"
)

// BinaryPlaceholder is returned by Get for payloads that are not UTF-8.
const BinaryPlaceholder = "<byte>"

// Session holds a password-bound cipher and a decrypted index. Reads use
// the index as loaded; mutations reload it from disk first. A Session is
// safe for concurrent use.
type Session struct {
	vault  *Vault
	cipher *crypto.Cipher

	mu    sync.RWMutex
	index *index.Index
}

// Refresh reloads the index from disk.
func (s *Session) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh()
}

func (s *Session) refresh() error {
	idx, err := index.Load(s.vault.layout.IndexFile(), s.cipher)
	if err != nil {
		return classify("load index", err)
	}
	s.index = idx
	return nil
}

// Close destroys the cipher. The session must not be used afterwards.
func (s *Session) Close() {
	s.cipher.Destroy()
}

// Paths returns every secret path in sorted order.
func (s *Session) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Paths()
}

// Explore lists the children one level below prefix; see pattern.Explore.
func (s *Session) Explore(prefix string) []string {
	return pattern.Explore(s.Paths(), prefix)
}

func (s *Session) match(pat pattern.Pattern) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Match(pat)
}

// Get returns the secret at p as text, or BinaryPlaceholder when the
// payload is not valid UTF-8.
func (s *Session) Get(ctx context.Context, p string) (string, error) {
	data, err := s.GetBytes(ctx, p)
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(data)

	if !utf8.Valid(data) {
		return BinaryPlaceholder, nil
	}
	return string(data), nil
}

// GetBytes returns the raw payload at p. The caller should clear it.
func (s *Session) GetBytes(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePath(p); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.index.Lookup(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNonExistentPath, p)
	}
	return s.readSlot(id)
}

// Set stores contents at p, allocating a slot when p is new.
func (s *Session) Set(ctx context.Context, p string, contents []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return err
	}

	_, err := s.store(p, contents)
	return err
}

// Remove deletes the secret at p and frees its slot.
func (s *Session) Remove(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return err
	}

	id, err := s.index.Remove(p)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNonExistentPath, p)
	}

	layout := s.vault.layout
	if err := s.index.Persist(layout.IndexFile(), s.cipher); err != nil {
		return classify("persist index", err)
	}
	if err := os.Remove(layout.SlotFile(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return classify("remove "+id.FileName(), err)
	}
	if err := ledger.UpdateOne(id.FileName(), layout.LockDir); err != nil {
		return classify("update ledger", err)
	}

	s.vault.log.Debug("removed secret", zap.Uint32("slot", uint32(id)))
	return nil
}

// List returns the paths matching pat in sorted order.
func (s *Session) List(ctx context.Context, pat string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.match(pattern.Parse(pat)), nil
}

// GetFiles exports every secret matching pat into the unlock directory.
// It stops at the first failure and returns the paths already written.
func (s *Session) GetFiles(ctx context.Context, pat string) ([]string, error) {
	paths := s.match(pattern.Parse(pat))
	if len(paths) == 0 {
		return nil, ctx.Err()
	}

	staging, err := security.New(s.vault.layout.UnlockDir)
	if err != nil {
		return nil, classify("open unlock directory", err)
	}
	defer staging.Close()

	var done []string
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		data, err := s.GetBytes(ctx, p)
		if err != nil {
			return done, err
		}
		err = staging.WriteFile(p, data)
		crypto.ClearBytes(data)
		if err != nil {
			return done, classify("export "+p, err)
		}
		done = append(done, p)
	}

	s.vault.log.Debug("exported secrets", zap.Int("count", len(done)))
	return done, nil
}

// SetFiles imports every staged file matching pat into the vault. It
// stops at the first failure and returns the paths already stored.
func (s *Session) SetFiles(ctx context.Context, pat string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := pattern.Parse(pat).MatchFiles(s.vault.layout.UnlockDir)
	if err != nil {
		return nil, classify("match staged files", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return nil, err
	}

	staging, err := security.New(s.vault.layout.UnlockDir)
	if err != nil {
		return nil, classify("open unlock directory", err)
	}
	defer staging.Close()

	var done []string
	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := validatePath(p); err != nil {
			return done, err
		}

		data, err := staging.ReadFile(p)
		if err != nil {
			return done, classify("read staged "+p, err)
		}
		_, err = s.store(p, data)
		crypto.ClearBytes(data)
		if err != nil {
			return done, err
		}
		done = append(done, p)
	}

	s.vault.log.Debug("imported secrets", zap.Int("count", len(done)))
	return done, nil
}

// store maps p to a slot, persists the index, then writes the slot and
// records its checksum. A crash between the index and slot writes leaves
// an index entry whose slot fails verification. s.mu must be held for
// writing.
func (s *Session) store(p string, contents []byte) (index.SlotID, error) {
	layout := s.vault.layout

	id, allocated := s.index.AllocateOrGet(p)
	if err := s.index.Persist(layout.IndexFile(), s.cipher); err != nil {
		return 0, classify("persist index", err)
	}
	if err := crypto.WriteFile(layout.SlotFile(id), contents, s.cipher); err != nil {
		return 0, classify("write "+id.FileName(), err)
	}
	if err := ledger.UpdateOne(id.FileName(), layout.LockDir); err != nil {
		return 0, classify("update ledger", err)
	}

	s.vault.log.Debug("stored secret", zap.Uint32("slot", uint32(id)), zap.Bool("allocated", allocated))
	return id, nil
}

// readSlot verifies the slot against the ledger, then decrypts it. s.mu
// must be held.
func (s *Session) readSlot(id index.SlotID) ([]byte, error) {
	layout := s.vault.layout

	if err := ledger.CheckOne(id.FileName(), layout.LockDir); err != nil {
		return nil, classify("verify "+id.FileName(), err)
	}

	data, found, err := crypto.ReadFile(layout.SlotFile(id), s.cipher)
	if err != nil {
		return nil, classify("read "+id.FileName(), err)
	}
	if !found {
		return nil, &IOError{Op: "read " + id.FileName(), Err: fs.ErrNotExist}
	}
	return data, nil
}
