//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"

	"github.com/oshokin/door-lock/internal/domain/lock"
)

// DetectOperator gathers host and user information for the session audit line.
func DetectOperator() (*lock.Operator, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &lock.Operator{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
