package lock

// Operator identifies who runs a panel session.
type Operator struct {
	// Hostname is the machine the panel runs on.
	Hostname string
	// Username is the system user that started the panel.
	Username string
}

// String renders the operator as username@hostname.
func (o *Operator) String() string {
	if o == nil {
		return "<unknown>"
	}

	return o.Username + "@" + o.Hostname
}
