// Package config resolves slotvault settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/illarion/slotvault/internal/crypto"
)

// Environment variables
const (
	EnvLockDir   = "VAULT_LOCK_DIR"
	EnvUnlockDir = "VAULT_UNLOCK_DIR"
	EnvPassword  = "VAULT_PASSWORD"
	EnvKDF       = "VAULT_KDF"
	EnvKDFCost   = "VAULT_KDF_COST"
	EnvLogLevel  = "VAULT_LOG_LEVEL"
	EnvLogFile   = "VAULT_LOG_FILE"
)

const (
	DefaultLockDir   = "vault-lock"
	DefaultUnlockDir = "vault-unlock"
)

// Config holds every setting a command needs before touching the vault.
type Config struct {
	LockDir   string
	UnlockDir string
	Password  []byte // from VAULT_PASSWORD; nil when unset
	KDF       crypto.Params
	LogLevel  string
	LogFile   string
}

// Load reads the environment over built-in defaults.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		LockDir:   DefaultLockDir,
		UnlockDir: DefaultUnlockDir,
		LogLevel:  getenv(EnvLogLevel),
		LogFile:   getenv(EnvLogFile),
	}

	if v := getenv(EnvLockDir); v != "" {
		cfg.LockDir = v
	}
	if v := getenv(EnvUnlockDir); v != "" {
		cfg.UnlockDir = v
	}
	if v := getenv(EnvPassword); v != "" {
		cfg.Password = []byte(v)
	}

	kdf, err := crypto.ParseKDF(getenv(EnvKDF))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvKDF, err)
	}
	cfg.KDF = crypto.Params{KDF: kdf}

	if v := getenv(EnvKDFCost); v != "" {
		cost, err := strconv.ParseUint(v, 10, 32)
		if err != nil || cost == 0 {
			return nil, fmt.Errorf("invalid %s: %q", EnvKDFCost, v)
		}
		cfg.KDF.Cost = uint32(cost)
	}

	return cfg, nil
}

// TakePassword returns the environment password and forgets it, so the
// caller owns the only copy and can clear it.
func (c *Config) TakePassword() []byte {
	pw := c.Password
	c.Password = nil
	return pw
}
