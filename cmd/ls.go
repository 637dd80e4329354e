package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/slotvault/internal/crypto"
)

// List prints the secret paths matching pattern, all of them by default.
func List(ctx context.Context, opts Options, pattern string) {
	if pattern == "" {
		pattern = "**"
	}

	e := setup(opts)
	defer e.close()

	password := e.GetPasswordOrExit("Enter password: ")
	defer crypto.ClearBytes(password)

	paths, err := e.vault.List(ctx, pattern, password)
	if err != nil {
		HandleError(err)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}
