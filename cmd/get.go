package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/slotvault/internal/crypto"
)

// Get prints the secret at path. With raw, the payload is written to
// stdout unchanged, binary included.
func Get(ctx context.Context, opts Options, path string, raw bool) {
	e := setup(opts)
	defer e.close()

	password := e.GetPasswordOrExit("Enter password: ")
	defer crypto.ClearBytes(password)

	if raw {
		data, err := e.vault.GetBytes(ctx, path, password)
		if err != nil {
			HandleError(err)
		}
		defer crypto.ClearBytes(data)
		if _, err := os.Stdout.Write(data); err != nil {
			HandleError(err)
		}
		return
	}

	value, err := e.vault.Get(ctx, path, password)
	if err != nil {
		HandleError(err)
	}
	fmt.Println(value)
}
