package logger

import (
	"errors"
	"fmt"
)

var errUnknownLevel = errors.New("unknown log level")

// Setup configures the global logger from the level name and optional file path.
// With an empty path the stdout logger is kept and only its level changes.
// The returned function releases the log file, if any.
func Setup(levelName, path string) (func() error, error) {
	level, ok := ParseLogLevel(levelName)
	if levelName != "" && !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownLevel, levelName)
	}

	if path == "" {
		SetLevel(level)

		return func() error { return nil }, nil
	}

	sink, closeFn, err := OpenFileSink(path)
	if err != nil {
		return nil, err
	}

	SetLogger(NewWithSink(nil, sink, WithLevel(level)))

	return closeFn, nil
}
