// Package ledger keeps a plaintext CRC32-Castagnoli checksum per file of a
// directory in a JSON file named index.crc.
//
// The ledger detects accidental corruption, files dropped in by hand and
// operations interrupted between writing a file and recording it. It is
// not a cryptographic MAC: an attacker who can write the directory can
// rewrite the ledger too. Confidentiality and tamper resistance of the
// contents come from the AEAD layer.
package ledger
