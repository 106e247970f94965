package panel

import (
	"context"
	"fmt"
	"io"

	"github.com/oshokin/door-lock/internal/config"
	"github.com/oshokin/door-lock/internal/hardware"
	"github.com/oshokin/door-lock/internal/logger"
	"github.com/oshokin/door-lock/internal/service/common"
	"github.com/oshokin/door-lock/internal/version"
)

// DefaultLogFile receives the panel logs when the configuration names none.
const DefaultLogFile = "lock-panel.log"

// Options controls the lock-panel process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// SerialPort overrides the serial port from the configuration.
	SerialPort string
}

// Run connects to the control node and runs the operator session on the terminal
// until the context is canceled or Ctrl-C is pressed.
func Run(ctx context.Context, opts *Options) error {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// The terminal belongs to the panel, so logs never go to stdout.
	logFile := settings.LogFile
	if logFile == "" {
		logFile = DefaultLogFile
	}

	closeLog, err := logger.Setup(settings.LogLevel, logFile)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	defer func() {
		_ = closeLog()
	}()

	// Setup may replace the global logger, so the name is attached afterwards.
	ctx = logger.WithName(ctx, "lock-panel")

	if err = common.EnsureSingleSession(); err != nil {
		return err
	}

	operator, err := common.DetectOperator()
	if err != nil {
		return fmt.Errorf("detect operator: %w", err)
	}

	serialPort := settings.SerialPort
	if opts.SerialPort != "" {
		serialPort = opts.SerialPort
	}

	client, err := common.Dial(ctx, serialPort, settings.BaudRate, common.WithCallTimeout(settings.ResponseTimeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	console, err := hardware.OpenTerminal(stop)
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}

	defer func() {
		_ = console.Close()
	}()

	logger.InfoKV(ctx, "Panel session started", append(version.LogKV(),
		"operator", operator.String(), "serial_port", serialPort)...)

	controller := NewController(client, Devices{
		Keypad:  console,
		Display: console,
		Dial:    console,
		LEDs:    console,
	})

	if err = controller.Run(ctx); err != nil && !IsShutdown(err) {
		return err
	}

	logger.InfoKV(ctx, "Panel session ended", "operator", operator.String())

	return nil
}

// Status sends a single status query and prints whether the control node is configured.
func Status(ctx context.Context, opts *Options, out io.Writer) error {
	ctx = logger.WithName(ctx, "lock-panel-status")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	serialPort := settings.SerialPort
	if opts.SerialPort != "" {
		serialPort = opts.SerialPort
	}

	client, err := common.Dial(ctx, serialPort, settings.BaudRate, common.WithCallTimeout(settings.ResponseTimeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	return printStatus(ctx, client, serialPort, out)
}

// statusQuerier is the part of the client printStatus uses.
type statusQuerier interface {
	Status(ctx context.Context) (bool, error)
}

func printStatus(ctx context.Context, client statusQuerier, serialPort string, out io.Writer) error {
	configured, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("query status on %s: %w", serialPort, err)
	}

	state := "not configured"
	if configured {
		state = "configured"
	}

	_, err = fmt.Fprintf(out, "control node on %s: %s\n", serialPort, state)

	return err
}
