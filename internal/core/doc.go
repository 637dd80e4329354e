// Package core is the secret store engine.
//
// A vault lives in two directories. The lock directory holds one encrypted
// slot file per secret (001.vlt, 002.vlt, ...), the encrypted index mapping
// secret paths to slots (index.vlt) and the checksum ledger (index.crc).
// The unlock directory holds plaintext copies produced by GetFiles or
// staged for SetFiles.
//
// Every operation opens a Session with the password, loads the index fresh
// from disk, applies one change and persists it:
//   - Get/GetBytes/Set/Remove: single secrets
//   - List: paths matching a pattern ("dir/name", "dir/*", "dir/**")
//   - GetFiles/SetFiles/ClearFiles: bulk export, import and cleanup
//   - Verify/Reseal: ledger check and rebuild
//   - ChangePassword: re-encrypt everything under a new password
//   - Backup/Restore: snapshots of the lock directory in a bbolt archive
package core
