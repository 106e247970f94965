package control

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/oshokin/door-lock/internal/config"
	"github.com/oshokin/door-lock/internal/logger"
	"github.com/oshokin/door-lock/internal/transport"
)

// ConfigureOptions contains inputs for writing a settings file.
type ConfigureOptions struct {
	// ConfigPath is where the settings are written (defaults to config.DefaultConfigFilename).
	ConfigPath string
	// SerialPort is the link device. The first detected port is used when empty.
	SerialPort string
	// BaudRate is the link speed, zero means config.DefaultBaudRate.
	BaudRate int
	// StoreFile is the persistent image location, empty means config.DefaultStoreFilename.
	StoreFile string
	// LogLevel is the minimum log level, empty means config.DefaultLogLevel.
	LogLevel string
}

// errNoSerialPorts is returned when no port was given and none can be detected.
var errNoSerialPorts = errors.New("no serial ports found, pass one explicitly")

// portLister enumerates serial devices.
type portLister func() ([]string, error)

// Configure writes a settings file shared by the lock binaries.
func Configure(ctx context.Context, opts *ConfigureOptions) error {
	return configure(ctx, opts, transport.ListPorts)
}

func configure(ctx context.Context, opts *ConfigureOptions, listPorts portLister) error {
	ctx = logger.WithName(ctx, "lock-control")

	serialPort := opts.SerialPort
	if serialPort == "" {
		ports, err := listPorts()
		if err != nil {
			return err
		}

		if len(ports) == 0 {
			return errNoSerialPorts
		}

		serialPort = ports[0]
		logger.InfoKV(ctx, "Using first detected serial port", "serial_port", serialPort, "detected", len(ports))
	}

	settings := &config.Config{
		SerialPort: serialPort,
		BaudRate:   opts.BaudRate,
		StoreFile:  opts.StoreFile,
		LogLevel:   opts.LogLevel,
	}

	if err := config.Save(opts.ConfigPath, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	logger.InfoKV(ctx, "Settings saved", "serial_port", settings.SerialPort,
		"baud_rate", settings.BaudRate, "store_file", settings.StoreFile)

	return nil
}

// PrintPorts writes the serial ports known to the OS, one per line.
func PrintPorts(out io.Writer) error {
	return printPorts(out, transport.ListPorts)
}

func printPorts(out io.Writer, listPorts portLister) error {
	ports, err := listPorts()
	if err != nil {
		return err
	}

	if len(ports) == 0 {
		_, err = fmt.Fprintln(out, "No serial ports found")

		return err
	}

	for _, port := range ports {
		if _, err = fmt.Fprintln(out, port); err != nil {
			return err
		}
	}

	return nil
}
