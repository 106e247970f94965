package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/door-lock/internal/config"
	"github.com/oshokin/door-lock/internal/service/panel"
	"github.com/oshokin/door-lock/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for running the operator panel.
	rootCmd = &cobra.Command{
		Use:   "lock-panel [serial-port]",
		Short: "Run the door lock operator panel in the terminal.",
		Long: `Starts the operator panel: a 16x2 display, status LEDs and a keypad in the terminal.

Digits enter the password, '#' clears the entry. In the menu 'A' opens the door,
'B' changes the password and '*' sets the unlock hold time with the '[' and ']' dial,
confirmed with '#'. Three wrong passwords in a row sound the alarm and lock the panel.
Logs are written to a file so they do not disturb the display. Press Ctrl-C to quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return panel.Run(ctx, options(args))
		},
	}

	// statusCmd asks the control node once whether it is configured.
	statusCmd = &cobra.Command{
		Use:   "status [serial-port]",
		Short: "Query whether the control node holds a password.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return panel.Status(ctx, options(args), cmd.OutOrStdout())
		},
	}
)

func options(args []string) *panel.Options {
	// Use serial port argument if provided, otherwise rely on config.
	var serialPort string
	if len(args) > 0 {
		serialPort = args[0]
	}

	return &panel.Options{
		ConfigPath: configPath,
		SerialPort: serialPort,
	}
}

// Execute runs the lock-panel CLI and exits with non-zero status on error.
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
	rootCmd.AddCommand(statusCmd)
}
