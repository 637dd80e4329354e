package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/illarion/slotvault/internal/git"
	"github.com/illarion/slotvault/internal/keyring"
)

// Status shows the state of the vault. No password is needed.
func Status(ctx context.Context, opts Options) {
	e := setup(opts)
	defer e.close()

	status, err := e.vault.Status(ctx)
	if err != nil {
		HandleError(err)
	}

	if !status.Initialized {
		fmt.Printf("No vault found in %s\n", e.cfg.LockDir)
		fmt.Println("Run 'slotvault set <path>' to create one")
		return
	}

	fmt.Printf("Vault: %s\n", e.cfg.LockDir)
	fmt.Printf("   Secrets:       %d\n", status.SlotCount)
	fmt.Printf("   Size:          %s\n", humanize.Bytes(uint64(status.TotalSize)))
	fmt.Printf("   Last modified: %s (%s)\n", status.LastModified.Format(time.RFC3339), humanize.Time(status.LastModified))
	fmt.Printf("   Encryption:    %s, %s (cost %s)\n", status.Algorithm, status.KDF.KDF, humanize.Comma(int64(status.KDF.Cost)))

	if e.vaultID != "" && keyring.HasPassword(e.vaultID) {
		fmt.Println("   Keyring:       password stored")
	}

	if !status.HasLedger {
		fmt.Println("   Ledger:        missing, run 'slotvault reseal' to rebuild it")
	}
	if status.Integrity != nil {
		fmt.Printf("   Integrity:     FAILED: %s\n", status.Integrity)
	} else {
		fmt.Println("   Integrity:     ok")
	}

	if len(status.Staged) > 0 {
		fmt.Printf("\nPlaintext staged in %s: %d file(s)\n", e.cfg.UnlockDir, len(status.Staged))
		for _, p := range status.Staged {
			fmt.Printf("   %s\n", p)
		}
		fmt.Println("Run 'slotvault import' to store changes, 'slotvault clear' to remove them")
	}

	fmt.Print(git.FormatStatus(status.GitStatus, e.cfg.LockDir, e.cfg.UnlockDir))
}
