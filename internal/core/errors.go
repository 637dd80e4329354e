package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/slotvault/internal/crypto"
	"github.com/illarion/slotvault/internal/ledger"
	"github.com/illarion/slotvault/internal/pattern"
	"github.com/illarion/slotvault/internal/security"
)

var (
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrNonExistentPath   = errors.New("path does not exist")
	ErrInvalidPath       = errors.New("invalid path")
	ErrIO                = errors.New("storage failure")
	ErrEmptyVault        = errors.New("vault is empty")
)

// IOError reports a failed filesystem or storage operation. It matches
// ErrIO and unwraps to the underlying cause.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// classify maps lower-level errors onto the engine's error taxonomy.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, crypto.ErrAuthFailed):
		return ErrIncorrectPassword
	case errors.Is(err, ErrIncorrectPassword),
		errors.Is(err, ErrNonExistentPath),
		errors.Is(err, ErrInvalidPath),
		errors.Is(err, ledger.ErrMismatch),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, pattern.ErrEscapesRoot),
		errors.Is(err, security.ErrPathEscapes),
		errors.Is(err, security.ErrAbsolutePath),
		errors.Is(err, security.ErrEmptyPath),
		errors.Is(err, security.ErrTrailingSlash),
		errors.Is(err, security.ErrWildcard):
		return fmt.Errorf("%w: %w", ErrInvalidPath, err)
	default:
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			return err
		}
		return &IOError{Op: op, Err: err}
	}
}

func validatePath(p string) error {
	if err := security.ValidateSecretPath(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	return nil
}
