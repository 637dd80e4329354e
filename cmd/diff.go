package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/slotvault/internal/core"
	"github.com/illarion/slotvault/internal/crypto"
)

// Diff compares staged files with the vault contents
func Diff(ctx context.Context, opts Options, pattern string) {
	if pattern == "" {
		pattern = "**"
	}

	e := setup(opts)
	defer e.close()

	password := e.GetPasswordOrExit("Enter password: ")
	defer crypto.ClearBytes(password)

	entries, err := e.vault.Diff(ctx, pattern, password)
	if err != nil {
		HandleError(err)
	}

	if len(entries) == 0 {
		fmt.Println("No differences found")
		return
	}

	for _, entry := range entries {
		switch entry.Status {
		case core.DiffModified:
			fmt.Print(entry.Text)
		case core.DiffStagedOnly:
			fmt.Printf("Staged only: %s\n", entry.Path)
		case core.DiffVaultOnly:
			fmt.Printf("Vault only: %s\n", entry.Path)
		}
	}
}
