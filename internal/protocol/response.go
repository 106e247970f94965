package protocol

// Response is the single byte the control node answers with.
type Response byte

const (
	// ResponseFail rejects the command.
	ResponseFail Response = '0'
	// ResponseOK accepts the command.
	ResponseOK Response = '1'
	// NoResponse is the panel-side sentinel for a wait that expired.
	// It never travels on the wire.
	NoResponse Response = 'X'
)

// ResponseFromByte returns the response for b when it is '0' or '1'.
func ResponseFromByte(b byte) (Response, bool) {
	switch Response(b) {
	case ResponseFail, ResponseOK:
		return Response(b), true
	default:
		return NoResponse, false
	}
}

// OK reports whether the command was accepted.
func (r Response) OK() bool {
	return r == ResponseOK
}

// Byte returns the wire representation.
func (r Response) Byte() byte {
	return byte(r)
}

// String returns a readable name for logs.
func (r Response) String() string {
	switch r {
	case ResponseOK:
		return "ok"
	case ResponseFail:
		return "fail"
	case NoResponse:
		return "no_response"
	default:
		return "invalid"
	}
}

// FromBool maps a boolean outcome to a response.
func FromBool(ok bool) Response {
	if ok {
		return ResponseOK
	}

	return ResponseFail
}
