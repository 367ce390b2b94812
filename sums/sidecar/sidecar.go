package sidecar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/byte4ever/repo_checksums/sums/digest"
	"github.com/byte4ever/repo_checksums/sums/walk"
)

// FileMode is applied to every written sidecar.
const FileMode os.FileMode = 0o644

// Path returns the sidecar path of file for alg, i.e.
// file with ".<alg>" appended after its own extension.
func Path(file string, alg digest.Algorithm) string {
	return file + "." + alg.Ext()
}

// IsSidecar reports whether name already ends in one of
// the recognised sidecar extensions.
func IsSidecar(name string) bool {
	for _, alg := range digest.All {
		if strings.HasSuffix(name, "."+alg.Ext()) {
			return true
		}
	}

	return false
}

// Policy decides which sidecars an entry still lacks.
type Policy struct {
	// Fs is consulted for sidecar existence.
	Fs afero.Fs

	// Algorithms limits the sidecars produced. Empty
	// means digest.All.
	Algorithms []digest.Algorithm
}

// Missing returns, in configured order, the algorithms
// whose sidecar does not exist yet. Entries that are not
// regular files, and sidecar files themselves, yield
// nil.
func (po Policy) Missing(
	e walk.Entry,
) ([]digest.Algorithm, error) {
	const errCtx = "checking sidecars"

	if !e.Regular || IsSidecar(e.Name) {
		return nil, nil
	}

	algs := po.Algorithms
	if len(algs) == 0 {
		algs = digest.All
	}

	var missing []digest.Algorithm

	for _, alg := range algs {
		ok, err := afero.Exists(po.Fs, Path(e.Path, alg))
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %s: %w", errCtx, e.Path, err,
			)
		}

		if !ok {
			missing = append(missing, alg)
		}
	}

	return missing, nil
}

// Write stores sum at path. The content goes to a
// temporary file in the same directory which is then
// renamed over path, so readers never observe a partial
// sidecar. The temporary name keeps the sidecar
// extension last so a concurrent walk skips it.
func Write(fs afero.Fs, path string, sum string) (retErr error) {
	const errCtx = "writing sidecar"

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	ext := filepath.Ext(base)
	pattern := "." + strings.TrimSuffix(base, ext) + ".tmp-*" + ext

	tmp, err := afero.TempFile(fs, dir, pattern)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	tmpName := tmp.Name()

	defer func() {
		if retErr == nil {
			return
		}

		if rmErr := fs.Remove(tmpName); rmErr != nil &&
			!errors.Is(rmErr, os.ErrNotExist) {
			retErr = errors.Join(retErr, rmErr)
		}
	}()

	if _, err := tmp.WriteString(sum); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := fs.Chmod(tmpName, FileMode); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
