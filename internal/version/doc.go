// Package version exposes build metadata for the lock binaries.
//
// Version, Commit and BuildTime are injected with -ldflags "-X" and keep
// placeholder values in local builds.
package version
