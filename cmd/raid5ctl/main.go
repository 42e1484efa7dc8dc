// Command raid5ctl assembles, drives, and observes a software RAID-5
// volume backed by plain device files, the CLI surface for the
// internal/raid volume manager.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information, set at build time with -ldflags (same pair the
// teacher's proxy and host agent binaries carry).
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	devicesFlag string
	sectorsFlag int
	logLevel    string
)

// log is the process logger, built from --log-level once flags are
// parsed (PersistentPreRunE below) so every subcommand shares one
// configured *zerolog.Logger rather than each constructing its own.
var log zerolog.Logger

var rootCmd = &cobra.Command{
	Use:     "raid5ctl",
	Short:   "raid5ctl manages a software RAID-5 volume",
	Long:    "raid5ctl assembles, drives, and observes a software RAID-5 volume backed by plain device files.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = newLogger()
		return nil
	},
}

func init() {
	// Load .env before the flag defaults below read the environment.
	bootstrap := newLogger()
	loadDotEnv(&bootstrap)

	rootCmd.PersistentFlags().StringVar(&devicesFlag, "devices", envOrDefault("RAID5_DEVICES", ""), "comma-separated device file paths")
	rootCmd.PersistentFlags().IntVar(&sectorsFlag, "sectors", envIntOrDefault("RAID5_SECTORS", 0), "sectors per device (required for create)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOrDefault("LOG_LEVEL", "info"), "log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newResyncCmd())
	rootCmd.AddCommand(newReadCmd())
	rootCmd.AddCommand(newWriteCmd())
	rootCmd.AddCommand(newServeCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := parseLogLevel(logLevel)
	zerolog.SetGlobalLevel(level)
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func devicePaths() ([]string, error) {
	paths := parseDevices(devicesFlag)
	if len(paths) == 0 {
		return nil, fmt.Errorf("--devices (or RAID5_DEVICES) must list at least one device file path")
	}
	return paths, nil
}
