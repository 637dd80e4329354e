package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/slotvault/internal/crypto"
	"github.com/illarion/slotvault/internal/keyring"
)

// KeyringSave saves the password to the OS keyring
func KeyringSave(opts Options) {
	e := setup(opts)
	defer e.close()

	if e.vaultID == "" {
		fmt.Fprintf(os.Stderr, "Error: cannot derive a keyring entry for %s\n", e.cfg.LockDir)
		os.Exit(1)
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	// Verify password is correct
	if err := e.vault.VerifyPassword(password); err != nil {
		HandleError(err)
	}

	if err := keyring.SavePassword(e.vaultID, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save to keyring: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("Password saved to keyring")
}

// KeyringDelete removes the password from the OS keyring
func KeyringDelete(opts Options) {
	e := setup(opts)
	defer e.close()

	if e.vaultID == "" || keyring.DeletePassword(e.vaultID) != nil {
		fmt.Println("No password stored in keyring")
		return
	}

	fmt.Println("Password removed from keyring")
}

// KeyringStatus checks if a password is stored in the keyring
func KeyringStatus(opts Options) {
	e := setup(opts)
	defer e.close()

	if e.vaultID != "" && keyring.HasPassword(e.vaultID) {
		fmt.Println("Password: stored in keyring")
	} else {
		fmt.Println("Password: not stored")
	}
}

// Keyring dispatches the keyring subcommands
func Keyring(opts Options, sub string) {
	switch sub {
	case "save":
		KeyringSave(opts)
	case "delete":
		KeyringDelete(opts)
	case "status":
		KeyringStatus(opts)
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\nSupported: save, delete, status\n", sub)
		os.Exit(1)
	}
}

