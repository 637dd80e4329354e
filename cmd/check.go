package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/slotvault/internal/crypto"
)

// Check verifies the lock directory against its checksum ledger. No
// password is needed.
func Check(ctx context.Context, opts Options) {
	e := setup(opts)
	defer e.close()

	if err := e.vault.Verify(ctx); err != nil {
		HandleError(err)
	}
	fmt.Println("ok: all files match the ledger")
}

// Reseal decrypts every slot and rebuilds the ledger.
func Reseal(ctx context.Context, opts Options) {
	e := setup(opts)
	defer e.close()

	// Reseal exists to repair a failing ledger, so skip the usual check
	password, source := lookupPassword(e)
	if source == sourcePrompt {
		var err error
		if password, err = readPassword("Enter password: "); err != nil {
			HandleError(err)
		}
	}
	defer crypto.ClearBytes(password)

	result, err := e.vault.Reseal(ctx, password)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Ledger rebuilt: %d slot(s) verified\n", result.Slots)
	if len(result.Orphans) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d slot file(s) not referenced by any secret:\n", len(result.Orphans))
		for _, name := range result.Orphans {
			fmt.Fprintf(os.Stderr, "  - %s\n", name)
		}
	}
}
