package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/door-lock/internal/config"
	"github.com/oshokin/door-lock/internal/service/control"
	"github.com/oshokin/door-lock/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// storeFile path of the persistent image.
	storeFile string

	// rootCmd represents the base command for running the control node.
	rootCmd = &cobra.Command{
		Use:   "lock-control [serial-port]",
		Short: "Run the door lock control node.",
		Long: `Starts the control node that owns the credential and drives the strike and buzzer.

Commands arrive from the panel over the serial port, one per line, and each is
answered with a single character. The credential, the unlock hold time and the
configured flag are kept in a fixed-layout image file that is replaced atomically.
The serial port can be provided as argument to override config (e.g., /dev/ttyUSB0).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use serial port argument if provided, otherwise rely on config.
			var serialPort string
			if len(args) > 0 {
				serialPort = args[0]
			}

			options := &control.Options{
				ConfigPath: configPath,
				SerialPort: serialPort,
				StoreFile:  storeFile,
			}

			return control.Run(ctx, options)
		},
	}

	// baudRate for the generated settings file.
	baudRate int
	// logLevel for the generated settings file.
	logLevel string

	// initConfigCmd writes a settings file for both nodes.
	initConfigCmd = &cobra.Command{
		Use:   "init-config [serial-port]",
		Short: "Write a settings file for the lock binaries.",
		Long: `Writes the settings file read by lock-control, lock-panel and lock-sim.
Without a serial port argument the first port reported by the OS is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			options := &control.ConfigureOptions{
				ConfigPath: configPath,
				BaudRate:   baudRate,
				StoreFile:  storeFile,
				LogLevel:   logLevel,
			}

			if len(args) > 0 {
				options.SerialPort = args[0]
			}

			return control.Configure(context.Background(), options)
		},
	}

	// portsCmd lists the serial ports that can carry the link.
	portsCmd = &cobra.Command{
		Use:   "ports",
		Short: "List the serial ports known to the OS.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return control.PrintPorts(cmd.OutOrStdout())
		},
	}
)

// Execute runs the lock-control CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&storeFile, "store-file", "s", "", "path of the persistent image (overrides config)")

	initConfigCmd.Flags().IntVarP(&baudRate, "baud", "b", config.DefaultBaudRate, "link speed")
	initConfigCmd.Flags().StringVarP(&logLevel, "log-level", "l", config.DefaultLogLevel, "minimum log level")

	rootCmd.AddCommand(initConfigCmd, portsCmd)
}
