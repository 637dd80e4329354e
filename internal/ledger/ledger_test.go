package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}

func TestChecksumCastagnoli(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "001.vlt", "123456789")

	sum, err := Checksum(filepath.Join(dir, "001.vlt"))
	require.NoError(t, err)
	// Standard check value for CRC-32C.
	assert.Equal(t, uint32(0xe3069283), sum)
}

func TestComputeAllSkips(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "001.vlt", "a")
	writeFile(t, dir, "index.vlt", "idx")
	writeFile(t, dir, FileName, "{}")
	writeFile(t, dir, ".DS_Store", "junk")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0700))

	sums, err := ComputeAll(dir, "index.vlt")
	require.NoError(t, err)
	assert.Len(t, sums, 1)
	assert.Contains(t, sums, "001.vlt")
}

func TestLoadMissingIsEmpty(t *testing.T) {
	sums, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, sums)
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "not json")

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestUpdateAllThenCheckAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "001.vlt", "a")
	writeFile(t, dir, "002.vlt", "b")

	require.NoError(t, UpdateAll(dir))
	require.NoError(t, CheckAll(dir))

	sums, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, sums, 2)
}

func TestCheckAllFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, dir string)
		file   string
		reason string
	}{
		{
			name:   "changed file",
			mutate: func(t *testing.T, dir string) { writeFile(t, dir, "002.vlt", "tampered") },
			file:   "002.vlt",
			reason: ReasonChanged,
		},
		{
			name:   "untracked file",
			mutate: func(t *testing.T, dir string) { writeFile(t, dir, "003.vlt", "c") },
			file:   "003.vlt",
			reason: ReasonUntracked,
		},
		{
			name: "vanished file",
			mutate: func(t *testing.T, dir string) {
				require.NoError(t, os.Remove(filepath.Join(dir, "001.vlt")))
			},
			file:   "001.vlt",
			reason: ReasonVanished,
		},
		{
			name: "first failure in name order",
			mutate: func(t *testing.T, dir string) {
				writeFile(t, dir, "002.vlt", "tampered")
				writeFile(t, dir, "000.vlt", "new")
			},
			file:   "000.vlt",
			reason: ReasonUntracked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "001.vlt", "a")
			writeFile(t, dir, "002.vlt", "b")
			require.NoError(t, UpdateAll(dir))

			tt.mutate(t, dir)

			err := CheckAll(dir)
			require.ErrorIs(t, err, ErrMismatch)

			var mismatch *MismatchError
			require.True(t, errors.As(err, &mismatch))
			assert.Equal(t, tt.file, mismatch.File)
			assert.Equal(t, tt.reason, mismatch.Reason)
		})
	}
}

func TestCheckAllIgnoresArtifactsAndExcluded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "001.vlt", "a")
	require.NoError(t, UpdateAll(dir, "index.vlt"))

	writeFile(t, dir, "Thumbs.db", "junk")
	writeFile(t, dir, "index.vlt", "changes on every write")

	assert.NoError(t, CheckAll(dir, "index.vlt"))
}

func TestCheckOne(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "001.vlt", "a")

	err := CheckOne("001.vlt", dir)
	assert.ErrorIs(t, err, ErrMismatch, "missing entry")

	require.NoError(t, UpdateOne("001.vlt", dir))
	require.NoError(t, CheckOne("001.vlt", dir))

	writeFile(t, dir, "001.vlt", "b")
	var mismatch *MismatchError
	require.ErrorAs(t, CheckOne("001.vlt", dir), &mismatch)
	assert.Equal(t, ReasonChanged, mismatch.Reason)
}

func TestUpdateOneDropsVanished(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "001.vlt", "a")
	writeFile(t, dir, "002.vlt", "b")
	require.NoError(t, UpdateAll(dir))

	require.NoError(t, os.Remove(filepath.Join(dir, "001.vlt")))
	require.NoError(t, UpdateOne("001.vlt", dir))

	sums, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"002.vlt"}, keys(sums))
	assert.NoError(t, CheckAll(dir))
}

func keys(s Sums) []string {
	var out []string
	for k := range s {
		out = append(out, k)
	}
	return out
}
