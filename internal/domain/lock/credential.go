package lock

import (
	"crypto/subtle"
	"errors"
)

// CredentialLength is the exact number of digits in a credential.
const CredentialLength = 5

// ErrInvalidCredential is returned when a credential is not exactly CredentialLength digits.
var ErrInvalidCredential = errors.New("credential must be exactly 5 digits")

// Credential is the access code shared by the operator and the control node.
type Credential string

// ParseCredential validates s and returns it as a Credential.
func ParseCredential(s string) (Credential, error) {
	if !isDigits(s) || len(s) != CredentialLength {
		return "", ErrInvalidCredential
	}

	return Credential(s), nil
}

// Valid reports whether the credential has the right length and only digits.
func (c Credential) Valid() bool {
	return len(c) == CredentialLength && isDigits(string(c))
}

// Equal compares two credentials in constant time.
// Invalid credentials never match anything.
func (c Credential) Equal(other Credential) bool {
	if !c.Valid() || !other.Valid() {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(c), []byte(other)) == 1
}

// String masks the digits so credentials never end up in logs.
func (c Credential) String() string {
	return "*****"
}

func isDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
