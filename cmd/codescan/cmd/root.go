package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/codescan/internal/config"
	"github.com/MeKo-Tech/codescan/internal/version"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitNotFound = 2
)

// ErrNotFound is returned by scanning commands that completed without
// finding a symbol. It maps to ExitNotFound.
var ErrNotFound = errors.New("no barcode found")

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "codescan",
	Short: "Barcode decode pipeline with orientation fallback",
	Long: `codescan extracts machine-readable codes (QR, Aztec, Data Matrix, PDF417,
MaxiCode and 1-D barcodes) from images and PDFs.

Each image is tried at 0°, 90° clockwise, 90° counter-clockwise and 180°
until a decoder succeeds. The payload, the bounding polygon in original
image coordinates and an annotated copy of the image are produced.

Decoders:
- local: in-process gozxing
- cli:   the ZXing CommandLineRunner via docker, then java

Exit codes: 0 found, 2 no barcode found, 1 failure.

Examples:
  codescan image label.png
  codescan image scan.jpg --engine cli --fields --format json
  codescan pdf document.pdf --pages 1-3
  codescan batch scans/ --recursive --format csv
  codescan serve --port 8080`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.Flags().GetBool("version")
		if v {
			_, err := fmt.Fprint(cmd.OutOrStdout(), version.String())
			return err
		}
		return cmd.Help()
	},
}

// Execute runs the root command and returns the process exit code.
// This is called by main.main().
func Execute() int {
	err := rootCmd.Execute()
	code := ExitCode(err)
	if code == ExitFailure {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return code
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	default:
		return ExitFailure
	}
}

// GetRootCommand returns the root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/codescan, /etc/codescan)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().String("temp-dir", "", "parent directory for per-scan candidate files (default: system temp)")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	registerBindings(rootCmd, true,
		flagBinding{"verbose", "verbose"},
		flagBinding{"log_level", "log-level"},
		flagBinding{"log_format", "log-format"},
		flagBinding{"temp_dir", "temp-dir"},
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := bindCommandFlags(cmd); err != nil {
			return err
		}
		if globalConfig == nil {
			if err := initConfig(); err != nil {
				return err
			}
		}
		setupLogging(globalConfig, cmd.ErrOrStderr())
		return nil
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	configLoader = GetConfigLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	return nil
}

// GetConfig returns the global configuration.
func GetConfig() *config.Config {
	if globalConfig == nil {
		if err := initConfig(); err != nil {
			slog.Error("Configuration unavailable, using defaults", "error", err)
			def := config.DefaultConfig()
			return &def
		}
	}

	// Re-read so values set after the initial load are included.
	var cfg config.Config
	if err := GetConfigLoader().GetViper().Unmarshal(&cfg); err != nil {
		slog.Error("Error unmarshaling updated configuration", "error", err)
		return globalConfig
	}
	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}

// resetConfig drops the loaded configuration and every viper binding.
func resetConfig() {
	viper.Reset()
	configLoader = nil
	globalConfig = nil
	cfgFile = ""
}

// setupLogging installs the default slog handler from the configuration.
func setupLogging(cfg *config.Config, w io.Writer) {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch strings.ToLower(cfg.LogLevel) {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
