// Package sidecar names, detects and writes checksum sidecar files. A
// sidecar for lib-1.0.jar and sha256 is lib-1.0.jar.sha256 and holds the
// bare lowercase hex digest. The presence of a sidecar is the only
// completeness signal; existing content is never read back.
package sidecar
