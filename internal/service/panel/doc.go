// Package panel implements the operator panel: the keypad and display state
// machine that logs the operator in, runs the menu flows and forwards typed
// credentials to the control node.
//
// The panel never stores a credential. Every decision about it is made by the
// control node; the panel only counts rejections so that three in a row within
// one flow sound the alarm and lock the keypad for a fixed cooldown.
package panel
