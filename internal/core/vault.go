package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/illarion/slotvault/internal/crypto"
	"github.com/illarion/slotvault/internal/index"
	"github.com/illarion/slotvault/internal/ledger"
	"github.com/illarion/slotvault/internal/pattern"
)

const (
	DirPermSecure  = 0700 // Directory: owner rwx only
	FilePermSecure = 0600 // File: owner rw only

	stagedSuffix = ".tmp" // new blobs awaiting rename during a password change
)

// Options configures a Vault.
type Options struct {
	KDF    crypto.Params // parameters for newly sealed blobs; zero means defaults
	Logger *zap.Logger   // nil disables logging
}

// Vault is a secret store rooted at a Layout. Its operations load state
// fresh from disk, apply one change, persist it and return.
type Vault struct {
	layout Layout
	kdf    crypto.Params
	log    *zap.Logger
}

// New creates a Vault. Nothing is read or written until an operation runs.
func New(layout Layout, opts Options) *Vault {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Vault{
		layout: layout,
		kdf:    opts.KDF,
		log:    log.Named("vault"),
	}
}

// Layout returns the directories of the vault.
func (v *Vault) Layout() Layout {
	return v.layout
}

// Open decrypts the index with password and returns a session. A missing
// index is an empty vault, which any password opens.
func (v *Vault) Open(password []byte) (*Session, error) {
	c, err := crypto.NewCipher(password, v.kdf)
	if err != nil {
		return nil, classify("create cipher", err)
	}

	s := &Session{vault: v, cipher: c}
	if err := s.Refresh(); err != nil {
		c.Destroy()
		return nil, err
	}

	v.log.Debug("opened session", zap.Int("secrets", len(s.Paths())))
	return s, nil
}

func (v *Vault) withSession(password []byte, fn func(*Session) error) error {
	s, err := v.Open(password)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// VerifyPassword checks that password opens the index.
func (v *Vault) VerifyPassword(password []byte) error {
	return v.withSession(password, func(*Session) error { return nil })
}

// Get returns the secret at p.
func (v *Vault) Get(ctx context.Context, p string, password []byte) (string, error) {
	var out string
	err := v.withSession(password, func(s *Session) error {
		var err error
		out, err = s.Get(ctx, p)
		return err
	})
	return out, err
}

// GetBytes returns the raw payload at p. The caller should clear it.
func (v *Vault) GetBytes(ctx context.Context, p string, password []byte) ([]byte, error) {
	var out []byte
	err := v.withSession(password, func(s *Session) error {
		var err error
		out, err = s.GetBytes(ctx, p)
		return err
	})
	return out, err
}

// Set stores contents at p.
func (v *Vault) Set(ctx context.Context, p string, contents, password []byte) error {
	return v.withSession(password, func(s *Session) error {
		return s.Set(ctx, p, contents)
	})
}

// Remove deletes the secret at p.
func (v *Vault) Remove(ctx context.Context, p string, password []byte) error {
	return v.withSession(password, func(s *Session) error {
		return s.Remove(ctx, p)
	})
}

// List returns the secret paths matching pat.
func (v *Vault) List(ctx context.Context, pat string, password []byte) ([]string, error) {
	var out []string
	err := v.withSession(password, func(s *Session) error {
		var err error
		out, err = s.List(ctx, pat)
		return err
	})
	return out, err
}

// GetFiles exports the secrets matching pat into the unlock directory.
func (v *Vault) GetFiles(ctx context.Context, pat string, password []byte) ([]string, error) {
	var out []string
	err := v.withSession(password, func(s *Session) error {
		var err error
		out, err = s.GetFiles(ctx, pat)
		return err
	})
	return out, err
}

// SetFiles imports the staged files matching pat.
func (v *Vault) SetFiles(ctx context.Context, pat string, password []byte) ([]string, error) {
	var out []string
	err := v.withSession(password, func(s *Session) error {
		var err error
		out, err = s.SetFiles(ctx, pat)
		return err
	})
	return out, err
}

// ClearFiles deletes the staged plaintext files matching pat and prunes
// empty directories. The lock directory is never touched.
func (v *Vault) ClearFiles(ctx context.Context, pat string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	removed, err := pattern.Parse(pat).RemoveFiles(v.layout.UnlockDir)
	if err != nil {
		return removed, classify("clear staged files", err)
	}

	v.log.Debug("cleared staged files", zap.Int("count", len(removed)))
	return removed, nil
}

// Verify checks every file of the lock directory against the ledger.
func (v *Vault) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify("verify ledger", ledger.CheckAll(v.layout.LockDir, index.FileName))
}

// ResealResult summarizes a ledger rebuild.
type ResealResult struct {
	Slots   int      // slots verified by decryption
	Orphans []string // slot files no secret refers to
}

// Reseal decrypts every referenced slot, then rebuilds the ledger from
// the files on disk. Use it after an interrupted operation has left the
// ledger out of step with slots that are otherwise intact.
func (v *Vault) Reseal(ctx context.Context, password []byte) (*ResealResult, error) {
	result := &ResealResult{}

	err := v.withSession(password, func(s *Session) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		referenced := make(map[string]bool)
		for _, p := range s.index.Paths() {
			if err := ctx.Err(); err != nil {
				return err
			}

			id, _ := s.index.Lookup(p)
			data, found, err := crypto.ReadFile(v.layout.SlotFile(id), s.cipher)
			if err != nil {
				return fmt.Errorf("slot %s of %s: %w", id.FileName(), p, classify("read "+id.FileName(), err))
			}
			if !found {
				return &IOError{Op: "read " + id.FileName() + " of " + p, Err: fs.ErrNotExist}
			}
			crypto.ClearBytes(data)
			referenced[id.FileName()] = true
			result.Slots++
		}

		orphans, err := v.orphans(referenced)
		if err != nil {
			return err
		}
		result.Orphans = orphans

		return classify("rebuild ledger", ledger.UpdateAll(v.layout.LockDir, index.FileName))
	})
	if err != nil {
		return nil, err
	}

	v.log.Debug("resealed ledger", zap.Int("slots", result.Slots), zap.Int("orphans", len(result.Orphans)))
	return result, nil
}

// ChangePassword re-encrypts the index and every slot under newPassword.
// All slots are decrypted and verified before the first write, and every
// new blob is written to a staged copy before any file is replaced. A
// failure before the replacement step leaves the vault untouched.
func (v *Vault) ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error {
	return v.withSession(oldPassword, func(s *Session) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		newCipher, err := crypto.NewCipher(newPassword, v.kdf)
		if err != nil {
			return classify("create cipher", err)
		}
		defer newCipher.Destroy()

		type slot struct {
			id   index.SlotID
			data []byte
		}
		var slots []slot
		// Ensure all decrypted data is cleared from memory on all exit paths
		defer func() {
			for i := range slots {
				crypto.ClearBytes(slots[i].data)
			}
		}()

		for _, p := range s.index.Paths() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, _ := s.index.Lookup(p)
			data, err := s.readSlot(id)
			if err != nil {
				return err
			}
			slots = append(slots, slot{id: id, data: data})
		}

		var staged []string
		defer func() {
			for _, tmp := range staged {
				os.Remove(tmp)
			}
		}()

		for _, sl := range slots {
			tmp := v.layout.SlotFile(sl.id) + stagedSuffix
			if err := crypto.WriteFile(tmp, sl.data, newCipher); err != nil {
				return classify("stage "+sl.id.FileName(), err)
			}
			staged = append(staged, tmp)
		}
		tmpIndex := v.layout.IndexFile() + stagedSuffix
		if err := s.index.Persist(tmpIndex, newCipher); err != nil {
			return classify("stage index", err)
		}
		staged = append(staged, tmpIndex)

		if err := ctx.Err(); err != nil {
			return err
		}

		// From here on a failure leaves files under both passwords
		for i, tmp := range staged {
			if err := os.Rename(tmp, strings.TrimSuffix(tmp, stagedSuffix)); err != nil {
				staged = staged[i:]
				return classify("replace "+filepath.Base(tmp), err)
			}
		}
		staged = nil

		if err := ledger.UpdateAll(v.layout.LockDir, index.FileName); err != nil {
			return classify("rebuild ledger", err)
		}

		v.log.Debug("changed password", zap.Int("slots", len(slots)))
		return nil
	})
}

// slotFiles lists the slot file names present in the lock directory.
func (v *Vault) slotFiles() ([]os.DirEntry, error) {
	entries, err := os.ReadDir(v.layout.LockDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, classify("read lock directory", err)
	}

	var out []os.DirEntry
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || filepath.Ext(name) != ".vlt" || name == index.FileName {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (v *Vault) orphans(referenced map[string]bool) ([]string, error) {
	entries, err := v.slotFiles()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, entry := range entries {
		if !referenced[entry.Name()] {
			out = append(out, entry.Name())
		}
	}
	slices.Sort(out)
	return out, nil
}
