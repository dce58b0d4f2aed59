// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     cmd
// Description: Root command, configuration and logging setup
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/livescribe/pkg/core/config"
	"github.com/msto63/livescribe/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "livescribe",
	Short: "Live microphone transcription",
	Long: `livescribe records from the microphone and transcribes the audio
while it is being captured, using a local Whisper model.

Commands:
  record      - capture and transcribe until Ctrl-C
  transcribe  - transcribe a WAV file
  devices     - list input devices
  transcripts - show stored transcripts`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $LIVESCRIBE_CONFIG or ./configs/livescribe.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration and installs the logging defaults
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultLoggerConfig("livescribe")
	logCfg.Level = cfg.General.LogLevel
	logCfg.Format = cfg.General.LogFormat
	logCfg.File = cfg.General.LogFile
	if verbose {
		logCfg.Level = "debug"
	}
	logging.Configure(logCfg)

	return cfg, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
