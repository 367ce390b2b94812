// Package notice renders the one-line announcements printed before each
// digest is computed. Lines are built from a fasttemplate format with
// single-brace placeholders and written atomically to a shared writer.
package notice
