// Package main provides the cmap CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/conceptmap/pkg/config"
	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/version"
)

// Exit codes.
const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitConfigError = 2
	ExitDataError   = 3
)

var (
	configPath string
	debugFlag  bool

	// cfg is loaded once per invocation by the root command.
	cfg config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "cmap",
	Short: "Concept-map layout, filtering and overlay renderer",
	Long: `cmap lays out curriculum concept maps radially, filters them by zoom
level, node type and expertise, and draws freehand area regions behind the
graph.

Datasets are named by catalog label, file path, http(s) URL or SQLite file.
Without a name the configured default dataset is used.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/cmap/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log debug output to stderr")
	rootCmd.Version = version.String()
}

// setup loads .env from the working directory, then the config file.
// Variables already set in the environment win over .env.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		debug.Log("cmap: ignoring .env: %v", err)
	}
	if debugFlag {
		debug.SetEnabled(true)
	}

	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return &exitError{code: ExitConfigError, err: fmt.Errorf("loading config: %w", err)}
	}
	return nil
}

// configFile is the config path in effect.
func configFile() string {
	if configPath != "" {
		return configPath
	}
	return config.ConfigPath()
}

// exitError carries a process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func dataError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: ExitDataError, err: err}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitError
}
