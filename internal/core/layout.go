package core

import (
	"path/filepath"

	"github.com/illarion/slotvault/internal/index"
	"github.com/illarion/slotvault/internal/ledger"
)

// Layout names the two directories a vault lives in: LockDir holds the
// encrypted slots, the index and the ledger; UnlockDir holds plaintext
// files staged for import or produced by export.
type Layout struct {
	LockDir   string
	UnlockDir string
}

func (l Layout) IndexFile() string {
	return filepath.Join(l.LockDir, index.FileName)
}

func (l Layout) LedgerFile() string {
	return filepath.Join(l.LockDir, ledger.FileName)
}

func (l Layout) SlotFile(id index.SlotID) string {
	return filepath.Join(l.LockDir, id.FileName())
}
