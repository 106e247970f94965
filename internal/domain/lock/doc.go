// Package lock contains core domain types for the door-lock access control.
//
// It defines the Credential (the 5-digit access code), the Timeout that the
// strike stays open for, the operator SessionState machine states and the
// Operator that runs a panel session.
package lock
