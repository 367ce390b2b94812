// Package walk yields the entries of a directory tree one at a time,
// following symbolic links and skipping anything that cannot be read.
package walk
