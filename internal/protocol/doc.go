// Package protocol defines the ASCII wire grammar spoken between the panel
// and the control node.
//
// Commands travel panel to control node as one line each, terminated by '\n'
// or '\r':
//
//	STS          -> '1' configured, '0' not configured
//	SET:DDDDD    -> '1' stored, '0' rejected
//	CHK:DDDDD    -> '1' match, '0' mismatch
//	PWD:DDDDD    -> '1' match (unlock cycle follows), '0' mismatch
//	ALM          -> no response, alarm pattern
//	TMO:NN       -> '1' stored, '0' out of range
//
// Responses are a single unterminated byte. Unknown or malformed lines get
// no response at all and the sender times out.
package protocol
