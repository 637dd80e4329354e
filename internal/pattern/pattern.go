package pattern

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/illarion/slotvault/internal/ledger"
)

var ErrEscapesRoot = errors.New("pattern escapes root directory")

// Kind selects how a pattern prefix is compared with a path.
type Kind int

const (
	// Exact matches the prefix itself and nothing else.
	Exact Kind = iota
	// SameLevel matches paths starting with the prefix at the same depth.
	SameLevel
	// Recursive matches every path starting with the prefix.
	Recursive
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case SameLevel:
		return "same-level"
	case Recursive:
		return "recursive"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Pattern is a parsed path pattern. Only a trailing "*" or "**" is
// special; any other '*' is literal text of the prefix.
type Pattern struct {
	Prefix string
	Kind   Kind
}

// Parse classifies s by its trailing wildcard.
func Parse(s string) Pattern {
	switch {
	case strings.HasSuffix(s, "**"):
		return Pattern{Prefix: strings.TrimSuffix(s, "**"), Kind: Recursive}
	case strings.HasSuffix(s, "*"):
		return Pattern{Prefix: strings.TrimSuffix(s, "*"), Kind: SameLevel}
	default:
		return Pattern{Prefix: s, Kind: Exact}
	}
}

func (p Pattern) String() string {
	switch p.Kind {
	case SameLevel:
		return p.Prefix + "*"
	case Recursive:
		return p.Prefix + "**"
	default:
		return p.Prefix
	}
}

// Match reports whether the '/'-separated key matches p.
func (p Pattern) Match(key string) bool {
	switch p.Kind {
	case Exact:
		return key == p.Prefix
	case SameLevel:
		return strings.HasPrefix(key, p.Prefix) &&
			strings.Count(key, "/") == strings.Count(p.Prefix, "/")
	case Recursive:
		return strings.HasPrefix(key, p.Prefix)
	default:
		return false
	}
}

// MatchFiles returns the regular files under root matching p, as sorted
// '/'-separated paths relative to root. OS artifacts never match and a
// missing directory yields no matches.
func (p Pattern) MatchFiles(root string) ([]string, error) {
	if p.Kind == Exact {
		return p.matchExact(root)
	}

	dir := ""
	if i := strings.LastIndex(p.Prefix, "/"); i >= 0 {
		dir = p.Prefix[:i]
	}
	if dir != "" && !filepath.IsLocal(filepath.FromSlash(dir)) {
		return nil, fmt.Errorf("%w: %s", ErrEscapesRoot, p)
	}

	base := filepath.Join(root, filepath.FromSlash(dir))
	var out []string

	visit := func(abs string, d fs.DirEntry) error {
		if !d.Type().IsRegular() || ledger.IsArtifact(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return err
		}
		if key := filepath.ToSlash(rel); p.Match(key) {
			out = append(out, key)
		}
		return nil
	}

	if p.Kind == SameLevel {
		entries, err := os.ReadDir(base)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read %s: %w", base, err)
		}
		for _, entry := range entries {
			if err := visit(filepath.Join(base, entry.Name()), entry); err != nil {
				return nil, err
			}
		}
	} else {
		err := filepath.WalkDir(base, func(abs string, d fs.DirEntry, err error) error {
			if err != nil {
				if abs == base && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipAll
				}
				return err
			}
			return visit(abs, d)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", base, err)
		}
	}

	slices.Sort(out)
	return out, nil
}

func (p Pattern) matchExact(root string) ([]string, error) {
	if p.Prefix == "" {
		return nil, nil
	}
	if !filepath.IsLocal(filepath.FromSlash(p.Prefix)) {
		return nil, fmt.Errorf("%w: %s", ErrEscapesRoot, p)
	}
	if ledger.IsArtifact(path.Base(p.Prefix)) {
		return nil, nil
	}

	info, err := os.Lstat(filepath.Join(root, filepath.FromSlash(p.Prefix)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", p.Prefix, err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}
	return []string{p.Prefix}, nil
}

// RemoveFiles deletes the files under root matching p, then prunes every
// directory left empty, root included. It returns the removed paths.
func (p Pattern) RemoveFiles(root string) ([]string, error) {
	matches, err := p.MatchFiles(root)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, rel := range matches {
		if err := os.Remove(filepath.Join(root, filepath.FromSlash(rel))); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("failed to remove %s: %w", rel, err)
		}
		removed = append(removed, rel)
	}

	if _, err := pruneEmpty(root); err != nil {
		return removed, err
	}
	return removed, nil
}

// pruneEmpty removes dir when, after pruning its subdirectories, it holds
// nothing but OS artifacts.
func pruneEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var artifacts []string
	empty := true
	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			gone, err := pruneEmpty(child)
			if err != nil {
				return false, err
			}
			empty = empty && gone
		case ledger.IsArtifact(entry.Name()):
			artifacts = append(artifacts, child)
		default:
			empty = false
		}
	}
	if !empty {
		return false, nil
	}

	for _, artifact := range artifacts {
		if err := os.Remove(artifact); err != nil {
			return false, fmt.Errorf("failed to remove %s: %w", artifact, err)
		}
	}
	if err := os.Remove(dir); err != nil {
		return false, fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	return true, nil
}

// Explore lists the distinct children one level below prefix. Children
// that have descendants of their own carry a trailing '/'.
func Explore(keys []string, prefix string) []string {
	start := strings.LastIndex(prefix, "/") + 1
	depth := strings.Count(prefix, "/")

	seen := make(map[string]struct{})
	var out []string
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if n := strings.Count(key, "/"); n != depth && n != depth+1 {
			continue
		}

		child := key[start:]
		if i := strings.IndexByte(child, '/'); i >= 0 {
			child = child[:i+1]
		}
		if _, ok := seen[child]; ok {
			continue
		}
		seen[child] = struct{}{}
		out = append(out, child)
	}

	slices.Sort(out)
	return out
}
