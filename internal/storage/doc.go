// Package storage provides the BBolt snapshot archive used for backups.
//
// Database structure uses three buckets:
//   - config: version and timestamps
//   - snapshots: snapshot metadata as JSON, keyed by a UUIDv7 id
//   - files: one nested bucket per snapshot, file name to file bytes
//
// Snapshots hold the lock directory exactly as found on disk. Slot files
// and the index are already encrypted, so the archive needs no password.
// UUIDv7 ids sort by creation time, which keeps List ordered.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
