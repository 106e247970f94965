//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// ErrSessionRunning is returned when another panel process already owns the link.
var ErrSessionRunning = errors.New("another panel session is already running")

// EnsureSingleSession fails when another process runs the same executable.
// The protocol has exactly one operator, so two panels on one port would interleave commands.
func EnsureSingleSession() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("detect executable: %w", err)
	}

	return ensureSingleProcess(filepath.Base(executable), os.Getpid())
}

func ensureSingleProcess(name string, self int) error {
	processList, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == self {
			continue
		}

		if process.Executable() == name {
			return fmt.Errorf("%w (pid %d)", ErrSessionRunning, process.Pid())
		}
	}

	return nil
}
