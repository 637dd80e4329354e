package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/slotvault/internal/crypto"
)

// Export writes the secrets matching pattern into the unlock directory.
func Export(ctx context.Context, opts Options, pattern string) {
	e := setup(opts)
	defer e.close()

	password := e.GetPasswordOrExit("Enter password: ")
	defer crypto.ClearBytes(password)

	done, err := e.vault.GetFiles(ctx, pattern, password)
	printPaths("exported", done)
	reportPartial("Exported", done, err)
	if err != nil {
		HandleError(err)
	}
	if len(done) == 0 {
		fmt.Printf("No secrets match %s\n", pattern)
		return
	}
	fmt.Printf("\nPlaintext written to %s; run 'slotvault clear' when done\n", e.cfg.UnlockDir)
}

// Import stores the staged files matching pattern.
func Import(ctx context.Context, opts Options, pattern string) {
	e := setup(opts)
	defer e.close()

	password := e.GetPasswordOrExit("Enter password: ")
	defer crypto.ClearBytes(password)

	done, err := e.vault.SetFiles(ctx, pattern, password)
	printPaths("imported", done)
	reportPartial("Imported", done, err)
	if err != nil {
		HandleError(err)
	}
	if len(done) == 0 {
		fmt.Printf("No staged files in %s match %s\n", e.cfg.UnlockDir, pattern)
	}
}

// Clear deletes the staged plaintext files matching pattern. No password
// is needed: the vault is not touched.
func Clear(ctx context.Context, opts Options, pattern string) {
	e := setup(opts)
	defer e.close()

	done, err := e.vault.ClearFiles(ctx, pattern)
	printPaths("cleared", done)
	reportPartial("Cleared", done, err)
	if err != nil {
		HandleError(err)
	}
}

func printPaths(verb string, paths []string) {
	for _, p := range paths {
		fmt.Printf("%s %s\n", verb, p)
	}
}
