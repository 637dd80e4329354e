// Package tui implements an interactive browser over the secrets of an
// open vault session, one path level at a time.
package tui
