package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/door-lock/internal/logger"
)

// Config holds the settings shared by the lock binaries.
type Config struct {
	// SerialPort is the device path of the link between the panel and the control node.
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the link speed, 8N1 framing is always used.
	BaudRate int `yaml:"baud_rate"`
	// StoreFile is where the control node keeps its persistent image.
	StoreFile string `yaml:"store_file"`
	// ResponseTimeout bounds how long the panel waits for a one-byte answer.
	ResponseTimeout time.Duration `yaml:"response_timeout"`
	// LogLevel is the minimum level written to the log.
	LogLevel string `yaml:"log_level"`
	// LogFile redirects logs away from stdout when set.
	LogFile string `yaml:"log_file,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "door-lock-settings.yaml"

	// DefaultStoreFilename is the default filename of the control node's persistent image.
	DefaultStoreFilename = "door-lock-store.bin"

	// DefaultBaudRate is the link speed both boards are flashed with.
	DefaultBaudRate = 9600

	// DefaultResponseTimeout is the default bound on waiting for an answer.
	DefaultResponseTimeout = 5 * time.Second

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for config and store files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errSerialPortRequired is returned when the serial port is missing.
	errSerialPortRequired = errors.New("serial port must be provided")
	// errInvalidBaudRate is returned for negative baud rates.
	errInvalidBaudRate = errors.New("baud rate must be positive")
	// errInvalidLogLevel is returned for level names zap does not know.
	errInvalidLogLevel = errors.New("invalid log level")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads the file when it exists and returns defaults otherwise.
// The simulator uses it because it does not need a serial port.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	if _, err := os.Stat(filepath.Clean(path)); errors.Is(err, os.ErrNotExist) {
		cfg := new(Config)
		applyDefaults(cfg)

		return cfg, nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(settings *Config) error {
	if settings.SerialPort == "" {
		return errSerialPortRequired
	}

	if settings.BaudRate < 0 {
		return errInvalidBaudRate
	}

	applyDefaults(settings)

	return validateLevel(settings.LogLevel)
}

func applyDefaults(settings *Config) {
	if settings.BaudRate == 0 {
		settings.BaudRate = DefaultBaudRate
	}

	if settings.ResponseTimeout <= 0 {
		settings.ResponseTimeout = DefaultResponseTimeout
	}

	if settings.StoreFile == "" {
		settings.StoreFile = DefaultStoreFilename
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}
}

func validateLevel(level string) error {
	if _, ok := logger.ParseLogLevel(level); !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, level)
	}

	return nil
}
