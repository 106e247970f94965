package control

import (
	"context"
	"fmt"

	"github.com/oshokin/door-lock/internal/config"
	"github.com/oshokin/door-lock/internal/hardware"
	"github.com/oshokin/door-lock/internal/logger"
	"github.com/oshokin/door-lock/internal/repository/store"
	"github.com/oshokin/door-lock/internal/service/actuator"
	"github.com/oshokin/door-lock/internal/transport"
	"github.com/oshokin/door-lock/internal/version"
)

// Options controls the lock-control process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// SerialPort overrides the serial port from the configuration.
	SerialPort string
	// StoreFile overrides the persistent image location from the configuration.
	StoreFile string
}

// Run opens the store and the serial port and serves commands until the context is canceled.
func Run(ctx context.Context, opts *Options) error {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	closeLog, err := logger.Setup(settings.LogLevel, settings.LogFile)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	defer func() {
		_ = closeLog()
	}()

	// Setup may replace the global logger, so the name is attached afterwards.
	ctx = logger.WithName(ctx, "lock-control")

	// Command line options override config values.
	serialPort := settings.SerialPort
	if opts.SerialPort != "" {
		serialPort = opts.SerialPort
	}

	storeFile := settings.StoreFile
	if opts.StoreFile != "" {
		storeFile = opts.StoreFile
	}

	repo := store.NewFileRepository(storeFile)
	if err = repo.Init(ctx); err != nil {
		return fmt.Errorf("initialise store: %w", err)
	}

	link, err := transport.OpenSerial(serialPort, settings.BaudRate)
	if err != nil {
		return err
	}

	defer func() {
		_ = link.Close()
	}()

	sequencer := actuator.New(hardware.NewLoggingMotor(), hardware.NewLoggingBuzzer())
	engine := NewEngine(link, repo, sequencer)

	logger.InfoKV(ctx, "Control node ready", append(version.LogKV(),
		"serial_port", serialPort, "baud_rate", settings.BaudRate, "store_file", storeFile)...)

	if err = engine.Serve(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Control node stopped")

	return nil
}
