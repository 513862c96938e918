package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shineum/contact-relay/internal/config"
)

// options holds values shared by all subcommands.
type options struct {
	configPath string
	envFile    string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "contact-relay",
		Short:         "Relay contact-form submissions to a fixed mailbox",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envErr := loadEnvFile(opts.envFile)

			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				slog.Error("failed to load configuration", "error", err)
				return err
			}
			setupLogger(cfg.Logging.Level)

			if envErr != nil {
				slog.Warn("failed to load env file", "path", opts.envFile, "error", envErr)
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML configuration file (optional)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		serveCmd(opts),
		lambdaCmd(opts),
		sendCmd(opts),
		previewCmd(opts),
	)
	return root
}

// loadEnvFile loads a dotenv file without overriding variables that are
// already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// warnMissing logs required settings that are not set. Requests fail until
// they are provided, but the process still starts.
func warnMissing(cfg *config.Config) {
	if missing := cfg.Missing(); len(missing) > 0 {
		slog.Warn("required settings are missing; requests will be rejected",
			"missing", strings.Join(missing, ","),
		)
	}
}
