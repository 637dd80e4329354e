package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/illarion/slotvault/internal/config"
	"github.com/illarion/slotvault/internal/core"
	"github.com/illarion/slotvault/internal/crypto"
	"github.com/illarion/slotvault/internal/keyring"
	"github.com/illarion/slotvault/internal/ledger"
	"github.com/illarion/slotvault/internal/logging"
	"github.com/illarion/slotvault/internal/storage"
)

// Options carries the flags shared by every command. Empty fields fall
// back to the environment.
type Options struct {
	LockDir   string
	UnlockDir string
	Password  string
}

// env is everything a command needs once flags and environment are merged.
type env struct {
	opts    Options
	cfg     *config.Config
	log     *zap.Logger
	vault   *core.Vault
	vaultID string // keyring account; empty when it cannot be derived
}

// setup resolves configuration, builds the logger and the vault, or exits.
func setup(opts Options) *env {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if opts.LockDir != "" {
		cfg.LockDir = opts.LockDir
	}
	if opts.UnlockDir != "" {
		cfg.UnlockDir = opts.UnlockDir
	}

	log, _, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	vault := core.New(core.Layout{LockDir: cfg.LockDir, UnlockDir: cfg.UnlockDir}, core.Options{
		KDF:    cfg.KDF,
		Logger: log,
	})

	vaultID, err := keyring.VaultID(cfg.LockDir)
	if err != nil {
		log.Debug("keyring disabled", zap.Error(err))
	}

	return &env{opts: opts, cfg: cfg, log: log, vault: vault, vaultID: vaultID}
}

func (e *env) close() {
	_ = e.log.Sync()
}

type passwordSource int

const (
	sourcePrompt passwordSource = iota
	sourceFlag
	sourceEnv
	sourceKeyring
)

func (s passwordSource) String() string {
	switch s {
	case sourceFlag:
		return "flag"
	case sourceEnv:
		return "environment"
	case sourceKeyring:
		return "keyring"
	default:
		return "prompt"
	}
}

// Prompts, swapped out in tests
var (
	readPassword        = core.ReadPassword
	readPasswordConfirm = core.ReadPasswordConfirm
)

// lookupPassword returns the first non-interactive password: the flag,
// then VAULT_PASSWORD, then the keyring. It returns sourcePrompt and nil
// when none is available.
func lookupPassword(e *env) ([]byte, passwordSource) {
	if e.opts.Password != "" {
		return []byte(e.opts.Password), sourceFlag
	}
	if pw := e.cfg.TakePassword(); pw != nil {
		return pw, sourceEnv
	}
	if e.vaultID != "" {
		if pw, err := keyring.GetPassword(e.vaultID); err == nil && pw != "" {
			return []byte(pw), sourceKeyring
		}
	}
	return nil, sourcePrompt
}

// initialized reports whether the vault already has an index.
func (e *env) initialized() bool {
	_, err := os.Stat(e.vault.Layout().IndexFile())
	return err == nil
}

// GetPassword resolves the vault password and checks it against the index.
// A stale keyring entry falls back to the prompt. A brand new vault asks
// for the password twice.
// The caller is responsible for calling crypto.ClearBytes on the result.
func (e *env) GetPassword(prompt string) ([]byte, error) {
	password, source := lookupPassword(e)
	if source != sourcePrompt {
		err := e.vault.VerifyPassword(password)
		switch {
		case err == nil:
			e.log.Debug("password resolved", zap.Stringer("source", source))
			return password, nil
		case source == sourceKeyring && errors.Is(err, core.ErrIncorrectPassword):
			crypto.ClearBytes(password)
			fmt.Fprintln(os.Stderr, "Stored keyring password is outdated")
		default:
			crypto.ClearBytes(password)
			return nil, err
		}
	}

	if !e.initialized() {
		return readPasswordConfirm(prompt)
	}

	password, err := readPassword(prompt)
	if err != nil {
		return nil, err
	}
	if err := e.vault.VerifyPassword(password); err != nil {
		crypto.ClearBytes(password)
		return nil, err
	}
	return password, nil
}

// GetPasswordOrExit is like GetPassword but exits on error
func (e *env) GetPasswordOrExit(prompt string) []byte {
	password, err := e.GetPassword(prompt)
	if err != nil {
		HandleError(err)
	}
	return password
}

// errorMessage renders err for the terminal, with a hint where one helps.
func errorMessage(err error) string {
	var mismatch *ledger.MismatchError
	switch {
	case errors.Is(err, core.ErrIncorrectPassword):
		return "Error: incorrect password"
	case errors.As(err, &mismatch):
		return fmt.Sprintf("Error: integrity check failed for %s (%s)\n"+
			"Run 'slotvault reseal' if an operation was interrupted, or restore a backup", mismatch.File, mismatch.Reason)
	case errors.Is(err, core.ErrNonExistentPath):
		return fmt.Sprintf("Error: %s\nUse 'slotvault ls' to see stored secrets", err)
	case errors.Is(err, core.ErrEmptyVault):
		return "Error: vault is empty\nRun 'slotvault set <path>' to add a secret"
	case errors.Is(err, storage.ErrSnapshotNotFound), errors.Is(err, storage.ErrAmbiguousID):
		return fmt.Sprintf("Error: %s\nUse 'slotvault backups <archive>' to list snapshots", err)
	case errors.Is(err, context.Canceled):
		return "Error: interrupted"
	default:
		return fmt.Sprintf("Error: %s", err)
	}
}

// HandleError prints err and exits with status 1
func HandleError(err error) {
	fmt.Fprintln(os.Stderr, errorMessage(err))
	os.Exit(1)
}

// reportPartial prints the items a bulk operation finished before failing.
func reportPartial(verb string, done []string, err error) {
	if err != nil && len(done) > 0 {
		fmt.Fprintf(os.Stderr, "%s %d item(s) before the error\n", verb, len(done))
	}
}
