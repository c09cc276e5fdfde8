package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theorangealliance/streamline-control/internal/config"
)

var (
	configFile string
	logLevel   string
	logToFile  bool
	logDir     string
	surface    string
	host       string
	ports      []int
	dataDir    string

	version = "development" // This will be injected by -ldflags during build
)

func main() {
	rootCmd := newRootCommand()

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if !exitErr.silent {
				fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.err)
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitCodeGeneralError)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "Streamline Control - run and update the local Streamline server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, "")
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Configuration file path")
	flags.StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	flags.BoolVar(&logToFile, "log-to-file", false, "Enable logging to file in standard OS location")
	flags.StringVar(&logDir, "log-dir", "", "Custom log directory path (overrides standard OS location)")
	flags.StringVar(&surface, "surface", config.SurfaceAuto, "Control surface (auto, tray, tui, none)")
	flags.StringVar(&host, "host", "127.0.0.1", "Address the server binds to")
	flags.IntSliceVar(&ports, "ports", config.DefaultPorts, "Candidate ports; the last free one is used")
	flags.StringVarP(&dataDir, "data-dir", "d", "", "Data directory path (default: per-user config directory)")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newUpdateCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// loadConfig loads configuration with changed flags taking precedence
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, &exitError{code: ExitCodeConfigError, err: err}
	}
	return cfg, nil
}
