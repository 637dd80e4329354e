// Package index maps secret paths to numbered slot files.
//
// The index is held in an ordered B-tree and stored as a single encrypted
// JSON object ("index.vlt"). It is rewritten in full on every change.
// Freed slot ids are reused, smallest first.
package index
