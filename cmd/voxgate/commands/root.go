package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/voxgate/internal/config"
	"github.com/ekisa-team/voxgate/internal/env"
	"github.com/ekisa-team/voxgate/internal/envvar"
	"github.com/ekisa-team/voxgate/internal/logger"
)

var (
	// Global flags
	cfgFile    string
	schemaFile string
	envFile    string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voxgate",
	Short: "Text to speech and speech to text gateway",
	Long: `voxgate serves a synthesis model and a recognition model over HTTP.

Models are loaded lazily on first use (or at startup when preload is set) and
shared by all requests. The config file is YAML, validated against a JSON
schema, and reloaded on change.

Examples:
  # Run the API with the default config file
  voxgate serve

  # Synthesize once without starting a server
  voxgate synth "Hello world" -o hello.wav

  # Transcribe a recording and print JSON
  voxgate transcribe recording.webm`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		slog.SetDefault(logger.New(env.FromEnv(), logger.WithLevel(baseLevel(""))))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $VOXGATE_CONFIG or "+config.DefaultConfigFile()+")")
	rootCmd.PersistentFlags().StringVar(&schemaFile, "schema", "", "JSON schema overriding the embedded one")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before anything else")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(versionCmd)
}

// configPath resolves the config file from the flag, the environment or the
// per-OS default.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := os.Getenv(envvar.VoxgateConfig); p != "" {
		return p
	}
	return config.DefaultConfigFile()
}

// loadConfig loads the config and reconfigures the default logger from it.
func loadConfig() (*config.Config, error) {
	path := configPath()

	cfg, err := config.LoadAndValidate(path, schemaFile)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	setupLogger(cfg)
	slog.Debug("Config loaded", "path", path, "environment", cfg.Environment)
	return cfg, nil
}

func setupLogger(cfg *config.Config) {
	l := cfg.Logging
	slog.SetDefault(logger.New(env.Parse(cfg.Environment),
		logger.WithLevel(baseLevel(l.Level)),
		logger.WithLogToFile(l.File != ""),
		logger.WithLogFile(l.File),
		logger.WithRotation(l.MaxSizeMB, l.MaxBackups, l.MaxAgeDays),
	))
}

func baseLevel(configured string) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if configured == "" {
		return slog.LevelInfo
	}
	return logger.ParseLevel(configured)
}
