// Package digest computes streaming file digests for the closed set of
// sidecar algorithms (md5, sha1, sha256, sha512). Digests are always
// rendered as lowercase hexadecimal, and SumAll feeds every requested
// algorithm from a single pass over the input.
package digest
