// Package store implements the control node's persistent storage.
//
// The credential, the unlock timeout and the "configured" marker live in a
// small fixed-layout image modelled on the node's EEPROM:
//
//	0x00  credential, 5 ASCII digits in an 8-byte slot
//	0x10  timeout seconds, uint32 little endian
//	0x20  configured flag, uint32 little endian, 0x55 when set
//
// Unwritten bytes hold 0xFF. Every write replaces the whole image atomically,
// so a crash never leaves a half-written credential behind.
package store
