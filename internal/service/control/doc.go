// Package control implements the control node: the protocol engine that owns
// the credential, the unlock timeout and the configured flag, and drives the
// strike and buzzer in response to panel commands.
//
// The engine reads one line at a time into a fixed buffer, runs the matching
// handler to completion and answers with a single byte. Unknown or malformed
// lines are dropped without an answer.
package control
