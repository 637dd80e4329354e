package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/illarion/slotvault/internal/crypto"
)

// Set stores a secret. Without a value argument the contents are read
// from stdin.
func Set(ctx context.Context, opts Options, path string, value []string) {
	if len(value) > 1 {
		fmt.Fprintf(os.Stderr, "Error: set takes a single value; quote it or pipe it on stdin\n")
		os.Exit(1)
	}

	var contents []byte
	if len(value) == 1 {
		contents = []byte(value[0])
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			HandleError(fmt.Errorf("failed to read stdin: %w", err))
		}
		contents = data
	}
	defer crypto.ClearBytes(contents)

	e := setup(opts)
	defer e.close()

	password := e.GetPasswordOrExit("Enter password: ")
	defer crypto.ClearBytes(password)

	if err := e.vault.Set(ctx, path, contents, password); err != nil {
		HandleError(err)
	}
	fmt.Printf("stored %s\n", path)
}
