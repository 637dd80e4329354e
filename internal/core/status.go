package core

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/illarion/slotvault/internal/crypto"
	"github.com/illarion/slotvault/internal/git"
	"github.com/illarion/slotvault/internal/ledger"
	"github.com/illarion/slotvault/internal/pattern"
)

// StatusInfo contains status information
type StatusInfo struct {
	Initialized  bool // index file present
	HasLedger    bool
	SlotCount    int
	TotalSize    int64
	LastModified time.Time
	Algorithm    string
	KDF          crypto.Params
	Integrity    error    // nil when the ledger verifies
	Staged       []string // plaintext files in the unlock directory
	GitStatus    *git.Status
}

// Status reports on the vault without a password.
func (v *Vault) Status(ctx context.Context) (*StatusInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status := &StatusInfo{Algorithm: "AES-256-GCM"}

	info, err := os.Stat(v.layout.IndexFile())
	switch {
	case err == nil:
		status.Initialized = true
		status.LastModified = info.ModTime()
		status.TotalSize += info.Size()
	case !errors.Is(err, fs.ErrNotExist):
		return nil, classify("stat index", err)
	}

	ledgerInfo, err := os.Stat(v.layout.LedgerFile())
	switch {
	case err == nil:
		status.HasLedger = true
		status.TotalSize += ledgerInfo.Size()
	case !errors.Is(err, fs.ErrNotExist):
		return nil, classify("stat ledger", err)
	}

	if status.Initialized {
		blob, err := os.ReadFile(v.layout.IndexFile())
		if err != nil {
			return nil, classify("read index", err)
		}
		// Not critical: a damaged header shows up in Integrity too
		if params, err := crypto.Inspect(blob); err == nil {
			status.KDF = params
		}
	}

	slots, err := v.slotFiles()
	if err != nil {
		return nil, err
	}
	for _, entry := range slots {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		status.SlotCount++
		status.TotalSize += info.Size()
		if info.ModTime().After(status.LastModified) {
			status.LastModified = info.ModTime()
		}
	}

	if err := v.Verify(ctx); err != nil {
		if !errors.Is(err, ledger.ErrMismatch) {
			return nil, err
		}
		status.Integrity = err
	}

	staged, err := pattern.Parse("**").MatchFiles(v.layout.UnlockDir)
	if err != nil {
		return nil, classify("list staged files", err)
	}
	status.Staged = staged

	gitStatus, err := git.Check(ctx, v.layout.LockDir, v.layout.UnlockDir, staged)
	if err == nil && gitStatus.IsRepo {
		status.GitStatus = gitStatus
	}

	return status, nil
}
