package security

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestValidateSecretPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		errType error
	}{
		// Valid paths
		{"simple name", "token", nil},
		{"nested", "dir1/fil1", nil},
		{"deep", "a/b/c/secret", nil},
		{"hidden", "config/.env", nil},
		{"inner dots", "a/../b", nil},

		// Rejected
		{"empty path", "", ErrEmptyPath},
		{"absolute path", "/etc/passwd", ErrAbsolutePath},
		{"trailing slash", "dir1/", ErrTrailingSlash},
		{"wildcard", "dir1/*", ErrWildcard},
		{"inner wildcard", "a*b", ErrWildcard},
		{"parent directory", "../secret", ErrPathEscapes},
		{"nested parent", "a/../../secret", ErrPathEscapes},
		{"dot", ".", ErrPathEscapes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSecretPath(tt.input)
			if tt.errType == nil {
				if err != nil {
					t.Errorf("Unexpected error for input %q: %v", tt.input, err)
				}
				return
			}
			if !errors.Is(err, tt.errType) {
				t.Errorf("Expected %v for input %q, got %v", tt.errType, tt.input, err)
			}
		})
	}
}

func TestNewCreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "unlock")

	validator, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	defer validator.Close()

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Root was not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("Root should be a directory")
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != dirPerm {
		t.Errorf("Root permissions = %o, want %o", info.Mode().Perm(), dirPerm)
	}
}

func TestPathValidator_WriteFile(t *testing.T) {
	tmpDir := t.TempDir()

	validator, err := New(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	defer validator.Close()

	tests := []struct {
		name      string
		path      string
		shouldErr bool
	}{
		{"top level", "token", false},
		{"creates parents", "dir1/sub/fil1", false},
		{"path traversal", "../escape", true},
		{"absolute path", "/tmp/escape", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.WriteFile(tt.path, []byte("value"))
			if tt.shouldErr {
				if err == nil {
					t.Errorf("Expected error for path %q, got none", tt.path)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for path %q: %v", tt.path, err)
			}

			content, err := os.ReadFile(filepath.Join(tmpDir, filepath.FromSlash(tt.path)))
			if err != nil {
				t.Fatalf("Failed to read written file: %v", err)
			}
			if string(content) != "value" {
				t.Errorf("Content = %q, want %q", content, "value")
			}

			info, err := os.Stat(filepath.Join(tmpDir, filepath.FromSlash(tt.path)))
			if err != nil {
				t.Fatalf("Stat failed: %v", err)
			}
			if runtime.GOOS != "windows" && info.Mode().Perm() != filePerm {
				t.Errorf("File permissions = %o, want %o", info.Mode().Perm(), filePerm)
			}
		})
	}
}

func TestPathValidator_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}

	tmpDir := t.TempDir()
	outside := t.TempDir()

	root := filepath.Join(tmpDir, "unlock")
	validator, err := New(root)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	defer validator.Close()

	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	if err := validator.WriteFile("link/secret", []byte("value")); err == nil {
		t.Errorf("Expected write through symlink to fail")
	}
	if _, err := os.Stat(filepath.Join(outside, "secret")); !os.IsNotExist(err) {
		t.Errorf("File escaped the root: %v", err)
	}
}

func TestPathValidator_ReadFile(t *testing.T) {
	tmpDir := t.TempDir()

	validator, err := New(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	defer validator.Close()

	if err := os.WriteFile(filepath.Join(tmpDir, "token"), []byte("abc"), 0600); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	content, err := validator.ReadFile("token")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(content) != "abc" {
		t.Errorf("Content = %q, want %q", content, "abc")
	}

	if _, err := validator.ReadFile("../token"); err == nil {
		t.Errorf("Expected error reading outside root")
	}
	if _, err := validator.ReadFile("missing"); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
