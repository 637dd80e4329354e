package index

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/btree"

	"github.com/illarion/slotvault/internal/crypto"
	"github.com/illarion/slotvault/internal/pattern"
)

// FileName is the encrypted index inside the lock directory.
const FileName = "index.vlt"

var ErrNotFound = errors.New("path not found in index")

// SlotID numbers an encrypted slot file. Valid ids start at 1.
type SlotID uint32

// FileName returns the slot file name, e.g. "007.vlt".
func (id SlotID) FileName() string {
	return fmt.Sprintf("%03d.vlt", uint32(id))
}

// Index maps secret paths to slot ids, ordered by path.
type Index struct {
	paths *btree.Map[string, SlotID]
}

// New returns an empty index.
func New() *Index {
	return &Index{paths: btree.NewMap[string, SlotID](0)}
}

// Load decrypts the index at path. A missing file yields an empty index;
// a wrong password yields crypto.ErrAuthFailed.
func Load(path string, c *crypto.Cipher) (*Index, error) {
	var raw map[string]SlotID
	found, err := crypto.ReadJSON(path, &raw, c)
	if err != nil {
		return nil, err
	}

	idx := New()
	if !found {
		return idx, nil
	}
	owners := make(map[SlotID]string, len(raw))
	for p, id := range raw {
		if id == 0 {
			return nil, fmt.Errorf("invalid slot id 0 for %q", p)
		}
		if other, dup := owners[id]; dup {
			a, b := min(p, other), max(p, other)
			return nil, fmt.Errorf("slot %s shared by %q and %q", id.FileName(), a, b)
		}
		owners[id] = p
		idx.paths.Set(p, id)
	}
	return idx, nil
}

// Persist encrypts the whole index and overwrites path.
func (idx *Index) Persist(path string, c *crypto.Cipher) error {
	raw := make(map[string]SlotID, idx.paths.Len())
	idx.paths.Scan(func(p string, id SlotID) bool {
		raw[p] = id
		return true
	})
	return crypto.WriteJSON(path, raw, c)
}

// Lookup returns the slot of p.
func (idx *Index) Lookup(p string) (SlotID, bool) {
	return idx.paths.Get(p)
}

// AllocateOrGet returns the slot of p, assigning the smallest free id when
// p is new. The second result reports whether a slot was allocated.
func (idx *Index) AllocateOrGet(p string) (SlotID, bool) {
	if id, ok := idx.paths.Get(p); ok {
		return id, false
	}

	next := SlotID(1)
	for _, id := range idx.Slots() {
		if id != next {
			break
		}
		next++
	}

	idx.paths.Set(p, next)
	return next, true
}

// Remove drops p and returns the freed slot.
func (idx *Index) Remove(p string) (SlotID, error) {
	id, ok := idx.paths.Delete(p)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return id, nil
}

// Paths returns every path in sorted order.
func (idx *Index) Paths() []string {
	out := make([]string, 0, idx.paths.Len())
	idx.paths.Scan(func(p string, _ SlotID) bool {
		out = append(out, p)
		return true
	})
	return out
}

// Match returns the sorted paths matching pat, scanning only the range
// that shares its prefix.
func (idx *Index) Match(pat pattern.Pattern) []string {
	var out []string
	idx.paths.Ascend(pat.Prefix, func(p string, _ SlotID) bool {
		if !strings.HasPrefix(p, pat.Prefix) {
			return false
		}
		if pat.Match(p) {
			out = append(out, p)
		}
		return true
	})
	return out
}

// Slots returns the occupied slot ids in ascending order.
func (idx *Index) Slots() []SlotID {
	ids := make([]SlotID, 0, idx.paths.Len())
	idx.paths.Scan(func(_ string, id SlotID) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	return ids
}

func (idx *Index) Len() int {
	return idx.paths.Len()
}
