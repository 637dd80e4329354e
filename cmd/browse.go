package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/slotvault/internal/core"
	"github.com/illarion/slotvault/internal/crypto"
	"github.com/illarion/slotvault/internal/tui"
)

// Browse opens the interactive secret browser
func Browse(ctx context.Context, opts Options) {
	if !core.IsTerminal() {
		fmt.Fprintln(os.Stderr, "Error: browse needs an interactive terminal")
		os.Exit(1)
	}

	e := setup(opts)
	defer e.close()

	password := e.GetPasswordOrExit("Enter password: ")
	defer crypto.ClearBytes(password)

	session, err := e.vault.Open(password)
	if err != nil {
		HandleError(err)
	}
	defer session.Close()

	if err := tui.Run(ctx, session); err != nil {
		HandleError(err)
	}
}
