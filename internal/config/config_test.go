package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/slotvault/internal/crypto"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(env(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultLockDir, cfg.LockDir)
	assert.Equal(t, DefaultUnlockDir, cfg.UnlockDir)
	assert.Nil(t, cfg.Password)
	assert.Equal(t, crypto.PBKDF2, cfg.KDF.KDF)
	assert.Zero(t, cfg.KDF.Cost)
	assert.Empty(t, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(env(map[string]string{
		EnvLockDir:   "secrets/lock",
		EnvUnlockDir: "secrets/plain",
		EnvPassword:  "hunter2",
		EnvKDF:       "argon2id",
		EnvKDFCost:   "4",
		EnvLogLevel:  "debug",
		EnvLogFile:   "/tmp/slotvault.log",
	}))
	require.NoError(t, err)

	assert.Equal(t, "secrets/lock", cfg.LockDir)
	assert.Equal(t, "secrets/plain", cfg.UnlockDir)
	assert.Equal(t, crypto.Params{KDF: crypto.Argon2id, Cost: 4}, cfg.KDF)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/slotvault.log", cfg.LogFile)

	pw := cfg.TakePassword()
	assert.Equal(t, "hunter2", string(pw))
	assert.Nil(t, cfg.TakePassword())
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"unknown kdf", map[string]string{EnvKDF: "md5"}},
		{"non numeric cost", map[string]string{EnvKDFCost: "lots"}},
		{"zero cost", map[string]string{EnvKDFCost: "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(env(tt.vars))
			assert.Error(t, err)
		})
	}
}
