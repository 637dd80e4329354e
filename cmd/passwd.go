package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/slotvault/internal/crypto"
	"github.com/illarion/slotvault/internal/keyring"
)

// Passwd re-encrypts the vault under a new password
func Passwd(ctx context.Context, opts Options) {
	e := setup(opts)
	defer e.close()

	if !e.initialized() {
		fmt.Fprintf(os.Stderr, "Error: no vault in %s\n", e.cfg.LockDir)
		os.Exit(1)
	}

	currentPassword := e.GetPasswordOrExit("Enter current password: ")
	defer crypto.ClearBytes(currentPassword)

	newPassword, err := readPasswordConfirm("Enter new password: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(newPassword)

	if err := e.vault.ChangePassword(ctx, currentPassword, newPassword); err != nil {
		HandleError(err)
	}

	// Keep an existing keyring entry in step with the vault
	if e.vaultID != "" && keyring.HasPassword(e.vaultID) {
		if err := keyring.SavePassword(e.vaultID, string(newPassword)); err == nil {
			fmt.Println("Keyring updated with new password")
		}
	}

	fmt.Println("password changed successfully")
}
