package sidecar_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/repo_checksums/sums/digest"
	"github.com/byte4ever/repo_checksums/sums/sidecar"
	"github.com/byte4ever/repo_checksums/sums/walk"
)

func entry(path string) walk.Entry {
	return walk.Entry{
		Path:    path,
		Name:    filepath.Base(path),
		Regular: true,
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file string
		alg  digest.Algorithm
		want string
	}{
		{"repo/lib-1.0.jar", digest.MD5, "repo/lib-1.0.jar.md5"},
		{"repo/lib-1.0.pom", digest.SHA1, "repo/lib-1.0.pom.sha1"},
		{"a.tar.gz", digest.SHA256, "a.tar.gz.sha256"},
		{"LICENSE", digest.SHA512, "LICENSE.sha512"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sidecar.Path(tt.file, tt.alg))
	}
}

func TestIsSidecar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"artifact.jar.sha256", true},
		{"artifact.jar.md5", true},
		{"artifact.jar.sha1", true},
		{"artifact.jar.sha512", true},
		{"artifact.jar", false},
		{"artifact.jar.asc", false},
		{"sha256sum.txt", false},
		{"notes.md5x", false},
		{"md5", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sidecar.IsSidecar(tt.name), tt.name)
	}
}

func TestPolicy_all_missing(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/r/a.jar", []byte("x"), 0o644))

	got, err := sidecar.Policy{Fs: fs}.Missing(entry("/r/a.jar"))

	require.NoError(t, err)
	assert.Equal(t, digest.All, got)
}

func TestPolicy_partial(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/r/a.jar", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/r/a.jar.md5", []byte("old"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/r/a.jar.sha512", []byte("old"), 0o644))

	got, err := sidecar.Policy{Fs: fs}.Missing(entry("/r/a.jar"))

	require.NoError(t, err)
	assert.Equal(
		t, []digest.Algorithm{digest.SHA1, digest.SHA256}, got,
	)
}

func TestPolicy_complete(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	for _, alg := range digest.All {
		require.NoError(t, afero.WriteFile(
			fs, sidecar.Path("/r/a.jar", alg), nil, 0o644,
		))
	}

	got, err := sidecar.Policy{Fs: fs}.Missing(entry("/r/a.jar"))

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPolicy_excludes_non_targets(t *testing.T) {
	t.Parallel()

	po := sidecar.Policy{Fs: afero.NewMemMapFs()}

	got, err := po.Missing(walk.Entry{
		Path: "/r/dir", Name: "dir", Regular: false,
	})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = po.Missing(entry("/r/artifact.jar.sha256"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPolicy_algorithm_subset(t *testing.T) {
	t.Parallel()

	po := sidecar.Policy{
		Fs:         afero.NewMemMapFs(),
		Algorithms: []digest.Algorithm{digest.SHA256},
	}

	got, err := po.Missing(entry("/r/a.jar"))

	require.NoError(t, err)
	assert.Equal(t, []digest.Algorithm{digest.SHA256}, got)
}

func TestWrite_creates_and_overwrites(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/r", 0o755))

	require.NoError(t, sidecar.Write(fs, "/r/a.jar.md5", "first"))
	require.NoError(t, sidecar.Write(fs, "/r/a.jar.md5", "second"))

	got, err := afero.ReadFile(fs, "/r/a.jar.md5")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	names, err := afero.ReadDir(fs, "/r")
	require.NoError(t, err)
	assert.Len(t, names, 1, "temporary file left behind")
}

func TestWrite_os_mode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pa := filepath.Join(dir, "lib.jar.sha1")

	require.NoError(t, sidecar.Write(afero.NewOsFs(), pa, "abc"))

	fi, err := os.Stat(pa)
	require.NoError(t, err)
	assert.Equal(t, sidecar.FileMode, fi.Mode().Perm())

	got, err := os.ReadFile(pa) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestWrite_read_only_fs(t *testing.T) {
	t.Parallel()

	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/r", 0o755))

	err := sidecar.Write(
		afero.NewReadOnlyFs(base), "/r/a.jar.md5", "x",
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing sidecar")

	ok, err := afero.Exists(base, "/r/a.jar.md5")
	require.NoError(t, err)
	assert.False(t, ok)
}

func FuzzIsSidecar(f *testing.F) {
	f.Add("a.jar")
	f.Add("a.jar.md5")
	f.Add("")

	f.Fuzz(func(t *testing.T, name string) {
		for _, alg := range digest.All {
			assert.True(t, sidecar.IsSidecar(sidecar.Path(name, alg)))
		}
	})
}
