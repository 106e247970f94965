package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, defaults and level validation.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing port.
	settings := new(Config)

	err := Validate(settings)
	require.ErrorIs(t, err, errSerialPortRequired)

	// Bad level.
	settings = &Config{
		SerialPort: "/dev/ttyUSB0",
		LogLevel:   "chatty",
	}

	err = Validate(settings)
	require.ErrorIs(t, err, errInvalidLogLevel)

	// Defaults applied.
	settings = &Config{
		SerialPort: "/dev/ttyUSB0",
	}

	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultBaudRate, settings.BaudRate)
	require.Equal(t, DefaultResponseTimeout, settings.ResponseTimeout)
	require.Equal(t, DefaultStoreFilename, settings.StoreFile)
	require.Equal(t, DefaultLogLevel, settings.LogLevel)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		SerialPort:      "/dev/ttyACM0",
		BaudRate:        115200,
		ResponseTimeout: 3 * time.Second,
		LogLevel:        "debug",
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.SerialPort, loaded.SerialPort)
	require.Equal(t, settings.BaudRate, loaded.BaudRate)
	require.Equal(t, 3*time.Second, loaded.ResponseTimeout)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_DurationFromYAML parses human-readable durations.
func TestLoad_DurationFromYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := "serial_port: /dev/ttyUSB1\nresponse_timeout: 1500ms\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1500*time.Millisecond, loaded.ResponseTimeout)
}

// TestLoadOrDefault returns defaults when no file exists.
func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Empty(t, cfg.SerialPort)
	require.Equal(t, DefaultResponseTimeout, cfg.ResponseTimeout)
}
