package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	DirPerm  = 0700
	FilePerm = 0600
)

// WriteFile seals data and writes it to path, creating parent directories.
func WriteFile(path string, data []byte, c *Cipher) error {
	blob, err := c.Seal(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	if err := os.WriteFile(path, blob, FilePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads and opens the blob at path. A missing file is reported
// through found rather than as an error.
func ReadFile(path string, c *Cipher) (data []byte, found bool, err error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data, err = c.Open(blob)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

// WriteJSON marshals v and writes it sealed to path.
func WriteJSON(path string, v any, c *Cipher) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	defer ClearBytes(data)

	return WriteFile(path, data, c)
}

// ReadJSON opens path and unmarshals it into v. found is false when the
// file does not exist, in which case v is left untouched.
func ReadJSON(path string, v any, c *Cipher) (found bool, err error) {
	data, found, err := ReadFile(path, c)
	if err != nil || !found {
		return found, err
	}
	defer ClearBytes(data)

	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return true, nil
}
