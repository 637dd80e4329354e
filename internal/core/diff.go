package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/slotvault/internal/crypto"
	"github.com/illarion/slotvault/internal/pattern"
	"github.com/illarion/slotvault/internal/security"
)

const (
	BinarySampleSize   = 8192 // Bytes to sample for text/binary detection
	BinaryThresholdPct = 10   // Max % non-printable chars for text files
)

// DiffStatus classifies one path in a staged-versus-vault comparison.
type DiffStatus string

const (
	DiffModified   DiffStatus = "modified"
	DiffStagedOnly DiffStatus = "staged only"
	DiffVaultOnly  DiffStatus = "vault only"
)

// DiffEntry describes a path whose staged copy differs from the vault.
type DiffEntry struct {
	Path   string
	Status DiffStatus
	Text   string // unified diff or binary notice, for DiffModified
}

// Diff compares the staged plaintext files matching pat with the vault
// contents. Identical paths are omitted.
func (v *Vault) Diff(ctx context.Context, pat string, password []byte) ([]DiffEntry, error) {
	var entries []DiffEntry

	err := v.withSession(password, func(s *Session) error {
		p := pattern.Parse(pat)
		vaultPaths := s.match(p)
		staged, err := p.MatchFiles(v.layout.UnlockDir)
		if err != nil {
			return classify("match staged files", err)
		}

		all := slices.Concat(vaultPaths, staged)
		slices.Sort(all)
		all = slices.Compact(all)

		var staging *security.PathValidator
		if len(staged) > 0 {
			staging, err = security.New(v.layout.UnlockDir)
			if err != nil {
				return classify("open unlock directory", err)
			}
			defer staging.Close()
		}

		for _, path := range all {
			if err := ctx.Err(); err != nil {
				return err
			}

			inVault := slices.Contains(vaultPaths, path)
			inStage := slices.Contains(staged, path)
			switch {
			case inVault && !inStage:
				entries = append(entries, DiffEntry{Path: path, Status: DiffVaultOnly})
				continue
			case !inVault:
				entries = append(entries, DiffEntry{Path: path, Status: DiffStagedOnly})
				continue
			}

			vaultData, err := s.GetBytes(ctx, path)
			if err != nil {
				return err
			}
			localData, err := staging.ReadFile(path)
			if err != nil {
				crypto.ClearBytes(vaultData)
				return classify("read staged "+path, err)
			}

			text, err := GenerateUnifiedDiff(path, vaultData, localData)
			crypto.ClearBytes(vaultData)
			crypto.ClearBytes(localData)
			if err != nil {
				return fmt.Errorf("cannot generate diff for %s: %w", path, err)
			}
			if text != "" {
				entries = append(entries, DiffEntry{Path: path, Status: DiffModified, Text: text})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// DetectFileType determines if a file is likely text or binary.
// Returns true if the file appears to be text.
//
// Detection heuristic (in order):
//  1. Null bytes present → binary (executables, images, etc.)
//  2. Invalid UTF-8 → binary
//  3. >10% non-printable control chars → binary
func DetectFileType(data []byte) bool {
	if len(data) == 0 {
		return true
	}

	if bytes.IndexByte(data, 0) != -1 {
		return false
	}

	sample := data[:min(len(data), BinarySampleSize)]

	if !utf8.Valid(sample) {
		return false
	}

	nonPrintable := 0
	for _, b := range sample {
		// Allow common whitespace: tab, newline, carriage return
		if (b < 32 && b != 9 && b != 10 && b != 13) || b == 127 {
			nonPrintable++
		}
	}

	threshold := len(sample) * BinaryThresholdPct / 100
	return nonPrintable <= threshold
}

// CompareFiles checks if two contents are identical by SHA-256 hash
func CompareFiles(a, b []byte) bool {
	ha := sha256.Sum256(a)
	hb := sha256.Sum256(b)
	return bytes.Equal(ha[:], hb[:])
}

// GenerateUnifiedDiff generates a unified diff using go-diff library
// Returns the diff output, or empty string if contents are identical
func GenerateUnifiedDiff(path string, vaultData, localData []byte) (string, error) {
	if CompareFiles(vaultData, localData) {
		return "", nil
	}

	if !DetectFileType(vaultData) || !DetectFileType(localData) {
		return fmt.Sprintf("Binary secret %s has changed\n", path), nil
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff for better output
	vaultStr, localStr := string(vaultData), string(localData)
	a, b, lineArray := dmp.DiffLinesToChars(vaultStr, localStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(vaultStr, diffs)
	if len(patches) == 0 {
		return "", nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- vault/%s\n", path))
	result.WriteString(fmt.Sprintf("+++ staged/%s\n", path))
	result.WriteString(dmp.PatchToText(patches))

	return result.String(), nil
}
