package security

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrPathEscapes   = errors.New("path escapes root directory")
	ErrAbsolutePath  = errors.New("absolute paths are not allowed")
	ErrEmptyPath     = errors.New("empty path not allowed")
	ErrTrailingSlash = errors.New("path must not end with '/'")
	ErrWildcard      = errors.New("path must not contain '*'")
)

const (
	dirPerm  = 0700
	filePerm = 0600
)

// ValidateSecretPath checks a '/'-separated secret path. It rejects:
// - Empty paths
// - Absolute paths
// - Paths ending in '/'
// - Paths containing '*', which is reserved for patterns
// - Paths that escape their root (using ..) or are not local
func ValidateSecretPath(p string) error {
	switch {
	case p == "":
		return ErrEmptyPath
	case strings.HasPrefix(p, "/") || filepath.IsAbs(p):
		return fmt.Errorf("%w: %s", ErrAbsolutePath, p)
	case strings.HasSuffix(p, "/"):
		return fmt.Errorf("%w: %s", ErrTrailingSlash, p)
	case strings.Contains(p, "*"):
		return fmt.Errorf("%w: %s", ErrWildcard, p)
	}

	if !filepath.IsLocal(filepath.FromSlash(p)) || path.Clean(p) == "." {
		return fmt.Errorf("%w: %s", ErrPathEscapes, p)
	}
	return nil
}

// PathValidator confines plaintext file operations to one directory
// using os.Root, so neither ".." nor symlinks can reach outside it.
type PathValidator struct {
	root *os.Root
}

// New opens dir as the confinement root, creating it when missing.
func New(dir string) (*PathValidator, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", absPath, err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open root %s: %w", absPath, err)
	}

	return &PathValidator{root: root}, nil
}

// Close releases the root handle.
func (pv *PathValidator) Close() error {
	if pv.root != nil {
		return pv.root.Close()
	}
	return nil
}

// WriteFile writes data to the '/'-separated path p below the root,
// creating parent directories with owner-only permissions.
func (pv *PathValidator) WriteFile(p string, data []byte) error {
	if err := ValidateSecretPath(p); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	platformPath := filepath.FromSlash(p)
	if dir := filepath.Dir(platformPath); dir != "." {
		if err := pv.root.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}

	return pv.root.WriteFile(platformPath, data, filePerm)
}

// ReadFile reads the '/'-separated path p below the root.
func (pv *PathValidator) ReadFile(p string) ([]byte, error) {
	if err := ValidateSecretPath(p); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return pv.root.ReadFile(filepath.FromSlash(p))
}

