// Package keyring caches vault passwords in the OS keyring.
package keyring

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const serviceName = "slotvault"

// VaultID derives a stable keyring account name from the absolute lock
// directory, so each vault on the machine gets its own entry.
func VaultID(lockDir string) (string, error) {
	abs, err := filepath.Abs(lockDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", lockDir, err)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:16]), nil
}

// SavePassword stores a password in the OS keyring
func SavePassword(vaultID string, password string) error {
	return keyring.Set(serviceName, vaultID, password)
}

// GetPassword retrieves a password from the OS keyring
func GetPassword(vaultID string) (string, error) {
	return keyring.Get(serviceName, vaultID)
}

// DeletePassword removes a password from the OS keyring
func DeletePassword(vaultID string) error {
	return keyring.Delete(serviceName, vaultID)
}

// HasPassword checks if a password is stored in the keyring
func HasPassword(vaultID string) bool {
	_, err := keyring.Get(serviceName, vaultID)
	return err == nil
}
