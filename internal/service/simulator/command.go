package simulator

import (
	"context"
	"fmt"

	"github.com/oshokin/door-lock/internal/config"
	"github.com/oshokin/door-lock/internal/hardware"
	"github.com/oshokin/door-lock/internal/logger"
	"github.com/oshokin/door-lock/internal/repository/store"
	"github.com/oshokin/door-lock/internal/service/actuator"
	"github.com/oshokin/door-lock/internal/service/panel"
	"github.com/oshokin/door-lock/internal/version"
)

// DefaultLogFile receives the simulator logs when the configuration names none.
const DefaultLogFile = "lock-sim.log"

// Options controls the lock-sim process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file; a missing file means defaults.
	ConfigPath string
	// StoreFile overrides the persistent image location from the configuration.
	StoreFile string
	// Memory keeps the persistent image in memory, so every run starts unconfigured.
	Memory bool
}

// Run starts both nodes and drives the panel from the terminal until Ctrl-C.
func Run(ctx context.Context, opts *Options) error {
	settings, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

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
	ctx = logger.WithName(ctx, "lock-sim")

	storeFile := settings.StoreFile
	if opts.StoreFile != "" {
		storeFile = opts.StoreFile
	}

	var repo *store.ImageRepository
	if opts.Memory {
		repo = store.NewMemoryRepository()
		storeFile = "memory"
	} else {
		repo = store.NewFileRepository(storeFile)
	}

	if err = repo.Init(ctx); err != nil {
		return fmt.Errorf("initialise store: %w", err)
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	console, err := hardware.OpenTerminal(stop)
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}

	defer func() {
		_ = console.Close()
	}()

	sequencer := actuator.New(hardware.NewLoggingMotor(), hardware.NewLoggingBuzzer())
	rig := NewRig(repo, sequencer, panel.Devices{
		Keypad:  console,
		Display: console,
		Dial:    console,
		LEDs:    console,
	}, &RigOptions{ResponseTimeout: settings.ResponseTimeout})

	logger.InfoKV(ctx, "Simulator started", append(version.LogKV(), "store", storeFile)...)

	if err = rig.Run(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Simulator stopped")

	return nil
}
