// Package git provides git hygiene checks for a vault.
//
// Checks performed:
//   - Whether the lock directory is tracked by git (should be)
//   - Whether the unlock directory is in .gitignore (should be)
//   - Whether any staged plaintext file is tracked by git (should not be)
//
// These checks help users avoid accidentally committing exported secrets.
package git
