package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// FileName is the ledger file inside the directory it covers.
const FileName = "index.crc"

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ErrMismatch is matched by every *MismatchError.
var ErrMismatch = errors.New("checksum mismatch")

// Reasons reported in MismatchError.
const (
	ReasonUntracked = "no ledger entry"
	ReasonChanged   = "checksum differs"
	ReasonVanished  = "file missing"
)

// MismatchError reports the first file failing verification.
type MismatchError struct {
	File   string
	Reason string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: %s", e.File, e.Reason)
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

// Sums maps file names to their CRC32-Castagnoli checksum.
type Sums map[string]uint32

// IsArtifact reports whether name is an OS-generated file that never
// belongs to a vault.
func IsArtifact(name string) bool {
	switch name {
	case ".DS_Store", "Thumbs.db", "desktop.ini":
		return true
	}
	return false
}

// Checksum computes the CRC32-Castagnoli of the whole file.
func Checksum(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := crc32.New(castagnoli)
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return h.Sum32(), nil
}

// ComputeAll checksums the regular files directly inside dir, skipping the
// ledger itself, OS artifacts and the names in exclude.
func ComputeAll(dir string, exclude ...string) (Sums, error) {
	names, err := candidates(dir, exclude)
	if err != nil {
		return nil, err
	}

	sums := make(Sums, len(names))
	for _, name := range names {
		sum, err := Checksum(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to checksum %s: %w", name, err)
		}
		sums[name] = sum
	}
	return sums, nil
}

// Load reads the ledger of dir. A missing ledger is empty.
func Load(dir string) (Sums, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Sums{}, nil
		}
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	sums := Sums{}
	if err := json.Unmarshal(data, &sums); err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}
	return sums, nil
}

// Save overwrites the ledger of dir.
func Save(dir string, sums Sums) error {
	if sums == nil {
		sums = Sums{}
	}
	data, err := json.Marshal(sums)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0600); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

// CheckOne verifies a single file against the ledger of dir.
func CheckOne(name, dir string) error {
	sums, err := Load(dir)
	if err != nil {
		return err
	}

	want, ok := sums[name]
	if !ok {
		return &MismatchError{File: name, Reason: ReasonUntracked}
	}

	got, err := Checksum(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &MismatchError{File: name, Reason: ReasonVanished}
		}
		return fmt.Errorf("failed to checksum %s: %w", name, err)
	}
	if got != want {
		return &MismatchError{File: name, Reason: ReasonChanged}
	}
	return nil
}

// CheckAll verifies the whole directory against its ledger and returns the
// first failure in file name order. Files without an entry, files whose
// checksum differs and entries whose file is gone all fail.
func CheckAll(dir string, exclude ...string) error {
	sums, err := Load(dir)
	if err != nil {
		return err
	}

	actual, err := ComputeAll(dir, exclude...)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(actual)+len(sums))
	for name := range actual {
		names = append(names, name)
	}
	for name := range sums {
		if _, ok := actual[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	for _, name := range names {
		want, tracked := sums[name]
		got, exists := actual[name]
		switch {
		case !exists:
			return &MismatchError{File: name, Reason: ReasonVanished}
		case !tracked:
			return &MismatchError{File: name, Reason: ReasonUntracked}
		case got != want:
			return &MismatchError{File: name, Reason: ReasonChanged}
		}
	}
	return nil
}

// UpdateOne recomputes the entry for name, dropping it when the file no
// longer exists.
func UpdateOne(name, dir string) error {
	sums, err := Load(dir)
	if err != nil {
		return err
	}

	sum, err := Checksum(filepath.Join(dir, name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		delete(sums, name)
	case err != nil:
		return fmt.Errorf("failed to checksum %s: %w", name, err)
	default:
		sums[name] = sum
	}

	return Save(dir, sums)
}

// UpdateAll rebuilds the ledger of dir from scratch.
func UpdateAll(dir string, exclude ...string) error {
	sums, err := ComputeAll(dir, exclude...)
	if err != nil {
		return err
	}
	return Save(dir, sums)
}

func candidates(dir string, exclude []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || name == FileName || IsArtifact(name) || slices.Contains(exclude, name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
