// Package checksums generates missing checksum sidecars for every regular
// file below a repository root. It walks the tree, hands one task per entry
// to a bounded worker pool, and for each file computes only the digests
// whose sidecar is absent, reading the file once.
//
// The main entry point is Run, which accepts a Config struct with all
// parameters for the run. Per-file failures are logged and never abort the
// run; re-running the tool picks up whatever was left behind.
package checksums
