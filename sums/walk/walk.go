package walk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
)

// Entry is a single traversal result. Regular reports
// whether the entry, after resolving symbolic links, is
// a regular file.
type Entry struct {
	Path    string
	Name    string
	Regular bool
}

// Func receives each entry as it is discovered. A
// non-nil error stops the walk and is returned by Walk.
type Func func(Entry) error

// Walk traverses root in no particular order, calling fn
// for every entry including root itself. Unreadable
// directories, broken links and links back to an
// ancestor directory are skipped. The walk stops early
// when ctx is cancelled or fn fails.
func Walk(ctx context.Context, root string, fn Func) error {
	const errCtx = "walking tree"

	root = filepath.Clean(root)

	var stopErr error

	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted:            true,
		FollowSymbolicLinks: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				stopErr = err

				return err
			}

			entry, ok, loop := resolve(root, path, de)
			if loop {
				return godirwalk.SkipThis
			}

			if !ok {
				return nil
			}

			if err := fn(entry); err != nil {
				stopErr = err

				return err
			}

			return nil
		},
		ErrorCallback: func(
			path string,
			err error,
		) godirwalk.ErrorAction {
			if stopErr != nil {
				return godirwalk.Halt
			}

			if errors.Is(err, godirwalk.SkipThis) {
				return godirwalk.SkipNode
			}

			slog.Debug(
				"skipping unreadable entry",
				"path", path,
				"error", err,
			)

			return godirwalk.SkipNode
		},
	})
	if stopErr != nil {
		return fmt.Errorf("%s: %w", errCtx, stopErr)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// resolve builds the Entry for de. Symbolic links are
// stat'ed so Regular reflects the target; a dangling
// link yields ok=false. loop reports a link to a
// directory that is already one of its ancestors.
func resolve(
	root string,
	path string,
	de *godirwalk.Dirent,
) (entry Entry, ok bool, loop bool) {
	entry = Entry{
		Path:    path,
		Name:    de.Name(),
		Regular: de.IsRegular(),
	}

	if !de.IsSymlink() {
		return entry, true, false
	}

	fi, err := os.Stat(path)
	if err != nil {
		slog.Debug(
			"skipping broken link",
			"path", path,
			"error", err,
		)

		return Entry{}, false, false
	}

	if fi.IsDir() && path != root && isAncestor(root, path, fi) {
		slog.Debug("skipping link loop", "path", path)

		return Entry{}, false, true
	}

	entry.Regular = fi.Mode().IsRegular()

	return entry, true, false
}

// isAncestor reports whether target is the same
// directory as any parent of path up to and including
// root.
func isAncestor(
	root string,
	path string,
	target os.FileInfo,
) bool {
	dir := filepath.Dir(path)

	for {
		if fi, err := os.Stat(dir); err == nil &&
			os.SameFile(fi, target) {
			return true
		}

		parent := filepath.Dir(dir)
		if dir == root || parent == dir {
			return false
		}

		dir = parent
	}
}
