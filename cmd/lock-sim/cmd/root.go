package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/door-lock/internal/config"
	"github.com/oshokin/door-lock/internal/service/simulator"
	"github.com/oshokin/door-lock/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// storeFile path of the persistent image.
	storeFile string
	// memory keeps the image in memory.
	memory bool

	// rootCmd represents the base command for running both nodes in one process.
	rootCmd = &cobra.Command{
		Use:   "lock-sim",
		Short: "Run the control node and the operator panel together without hardware.",
		Long: `Runs the control node and the operator panel in one process joined by an in-memory link.

The panel is drawn in the terminal and the strike and buzzer are written to the log.
The configuration file is optional; without it defaults are used. With --memory the
persistent image lives in memory and every run starts unconfigured.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &simulator.Options{
				ConfigPath: configPath,
				StoreFile:  storeFile,
				Memory:     memory,
			}

			return simulator.Run(ctx, options)
		},
	}
)

// Execute runs the lock-sim CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&storeFile, "store-file", "s", "", "path of the persistent image (overrides config)")
	rootCmd.Flags().BoolVarP(&memory, "memory", "m", false, "keep the persistent image in memory")
}
