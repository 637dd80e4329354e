// Package pattern implements the path pattern dialect used for listing and
// bulk import and export.
//
// A pattern is a prefix followed by an optional wildcard:
//
//	dir/name   exact path
//	dir/na*    paths starting with "dir/na" at the same depth
//	dir/**     every path starting with "dir/"
//
// The same predicate is applied to index keys and to files of a staging
// directory.
package pattern
