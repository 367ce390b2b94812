package digest

import (
	"crypto/md5"  //nolint:gosec // md5 sidecars are a repository convention
	"crypto/sha1" //nolint:gosec // sha1 sidecars are a repository convention
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"
)

// ChunkSize is the size of the read buffer used while
// streaming a source into the hash states.
const ChunkSize = 32 * 1024

// Algorithm identifies one of the supported digest
// algorithms. The set is closed: only the constants
// below are valid values.
type Algorithm uint8

const (
	// MD5 produces a 32 character digest.
	MD5 Algorithm = iota
	// SHA1 produces a 40 character digest.
	SHA1
	// SHA256 produces a 64 character digest.
	SHA256
	// SHA512 produces a 128 character digest.
	SHA512
)

type algorithmSpec struct {
	ext     string
	newHash func() hash.Hash
}

var specs = [...]algorithmSpec{
	MD5:    {ext: "md5", newHash: md5.New},
	SHA1:   {ext: "sha1", newHash: sha1.New},
	SHA256: {ext: "sha256", newHash: sha256.New},
	SHA512: {ext: "sha512", newHash: sha512.New},
}

// All lists every algorithm in canonical order.
var All = []Algorithm{MD5, SHA1, SHA256, SHA512}

// ErrUnknownAlgorithm is returned by ParseAlgorithm for
// names outside the supported set.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Digests maps each computed algorithm to its lowercase
// hex digest.
type Digests map[Algorithm]string

// String returns the algorithm name, which is also the
// sidecar file extension.
func (a Algorithm) String() string {
	return a.Ext()
}

// Ext returns the sidecar extension without a leading
// dot.
func (a Algorithm) Ext() string {
	return specs[a].ext
}

// New returns a fresh hash state for the algorithm.
// Values outside the closed set panic.
func (a Algorithm) New() hash.Hash {
	return specs[a].newHash()
}

// Size returns the length of the hex encoded digest.
func (a Algorithm) Size() int {
	return hex.EncodedLen(a.New().Size())
}

// ParseAlgorithm maps a case-insensitive name such as
// "sha256" to its Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	const errCtx = "parsing algorithm"

	want := strings.ToLower(strings.TrimSpace(name))

	for _, alg := range All {
		if alg.Ext() == want {
			return alg, nil
		}
	}

	return 0, fmt.Errorf(
		"%s: %w: %q", errCtx, ErrUnknownAlgorithm, name,
	)
}

// ParseAlgorithms parses a list of names, dropping
// duplicates while keeping the first occurrence order.
// An empty list yields All.
func ParseAlgorithms(names []string) ([]Algorithm, error) {
	if len(names) == 0 {
		return All, nil
	}

	seen := make(map[Algorithm]struct{}, len(names))
	algs := make([]Algorithm, 0, len(names))

	for _, name := range names {
		alg, err := ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}

		if _, ok := seen[alg]; ok {
			continue
		}

		seen[alg] = struct{}{}
		algs = append(algs, alg)
	}

	return algs, nil
}

// Sum streams r through a single algorithm and returns
// its lowercase hex digest.
func Sum(r io.Reader, alg Algorithm) (string, error) {
	const errCtx = "computing digest"

	sums, _, err := SumAll(r, alg)
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", errCtx, alg, err)
	}

	return sums[alg], nil
}

// SumAll reads r once in ChunkSize pieces, folding each
// chunk into every requested hash state, and returns the
// digests together with the number of bytes consumed. A
// read failure aborts all digests.
func SumAll(
	r io.Reader,
	algs ...Algorithm,
) (Digests, int64, error) {
	const errCtx = "computing digests"

	states := make([]hash.Hash, len(algs))
	writers := make([]io.Writer, len(algs))

	for i, alg := range algs {
		states[i] = alg.New()
		writers[i] = states[i]
	}

	buf := make([]byte, ChunkSize)

	// Hide any WriterTo/ReaderFrom so the copy always
	// goes through buf.
	n, err := io.CopyBuffer(
		io.MultiWriter(writers...),
		struct{ io.Reader }{r},
		buf,
	)
	if err != nil {
		return nil, n, fmt.Errorf("%s: %w", errCtx, err)
	}

	sums := make(Digests, len(algs))
	for i, alg := range algs {
		sums[alg] = hex.EncodeToString(states[i].Sum(nil))
	}

	return sums, n, nil
}
