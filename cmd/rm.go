package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/slotvault/internal/crypto"
)

// Remove removes secrets from the vault
func Remove(ctx context.Context, opts Options, paths []string) {
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "Error: rm requires at least one path argument\n")
		fmt.Fprintf(os.Stderr, "Usage: slotvault rm <path> [path...]\n")
		os.Exit(1)
	}

	e := setup(opts)
	defer e.close()

	password := e.GetPasswordOrExit("Enter password: ")
	defer crypto.ClearBytes(password)

	for _, path := range paths {
		if err := e.vault.Remove(ctx, path, password); err != nil {
			HandleError(err)
		}
		fmt.Printf("removed %s\n", path)
	}
}
