// Package common holds helpers shared by the panel-side services.
//
// It provides the protocol client that talks to the control node over the
// serial link with bounded response waits, the operator detection used for
// the session audit line, and the single-session guard.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
