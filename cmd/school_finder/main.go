// Package main provides the entry point for the school finder CLI and HTTP API server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonathan/school-finder/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "school_finder",
	Short: "High school search with AI advice",
	Long: `School Finder filters and sorts a catalogue of high schools by funding type,
course category and credit system, and asks an LLM for advice about the visible list.

Configuration can be loaded from a JSON or YAML file using --config. Command-line
flags override config file values.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

var (
	configPath  string
	verbose     bool
	datasetPath string
	loadLatency time.Duration

	// Set by setup before any command runs.
	appConfig config.Config
	logger    = zap.NewNop()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (.json, .yaml or .yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&datasetPath, "dataset", "", "School dataset file overriding the embedded one")
	rootCmd.PersistentFlags().DurationVar(&loadLatency, "load-latency", config.DefaultLoadLatency, "Simulated dataset load latency (0 disables)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup resolves configuration and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	appConfig = cfg

	l, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger = l
	if configPath != "" {
		logger.Debug("loaded config", zap.String("path", configPath))
	}
	return nil
}

// resolveConfig merges the config file, explicitly set flags, environment
// and built-in defaults, in that order of priority after flags.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if configPath != "" {
		loadedCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("dataset") {
		cfg.DatasetPath = datasetPath
	}
	if flags.Changed("load-latency") {
		latency := config.Duration(loadLatency)
		cfg.LoadLatency = &latency
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("api-key") {
		cfg.APIKey = apiKeyFlag
	}
	if flags.Changed("model") {
		cfg.Model = modelFlag
	}
	if flags.Changed("port") {
		cfg.Port = servePort
	}

	// Step 3: Validate before defaults so errors name what the user wrote
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	// Step 4: Apply environment and built-in defaults for unset values
	return cfg.MergeWithDefaults(config.Config{APIKey: os.Getenv("GEMINI_API_KEY")}), nil
}

// newLogger builds the process logger; logs go to stderr so command output
// stays clean.
func newLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.DisableStacktrace = true
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return zcfg.Build()
}
