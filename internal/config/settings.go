package config

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/localrivet/configurator"

	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
)

// Settings holds the process-level knobs that live outside config.yaml and params.yaml.
type Settings struct {
	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`

		// File receives a copy of every entry; empty disables the file sink.
		File string `json:"file" env:"LOG_FILE"`

		// MaxSizeMB is the size at which the log file is rotated.
		MaxSizeMB int `json:"max_size_mb" env:"LOG_MAX_SIZE_MB" validate:"min:1"`
	} `json:"logging"`

	// Model describes how to reach the model-serving backend.
	Model struct {
		BaseURL        string `json:"base_url" env:"MODEL_BASE_URL" validate:"required"`
		Device         string `json:"device" env:"MODEL_DEVICE"`
		TimeoutSeconds int    `json:"timeout_seconds" env:"MODEL_TIMEOUT_SECONDS" validate:"min:1"`

		// HubToken authenticates tokenizer downloads from the Hugging Face hub.
		HubToken string `json:"hub_token" env:"HF_TOKEN"`
	} `json:"model"`

	// Trainer is the external command that runs the training loop.
	Trainer struct {
		Command string `json:"command" env:"TRAINER_COMMAND" validate:"required"`
	} `json:"trainer"`

	// Tracking configures the run history database.
	Tracking struct {
		// SQLitePath is the path to the SQLite database file; empty disables tracking.
		SQLitePath string `json:"sqlite_path" env:"SQLITE_PATH"`
	} `json:"tracking"`

	settingsPath string
}

// Default settings values
const (
	DefaultSettingsFilename = ".textsummarizerconfig"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultModelBaseURL     = "http://127.0.0.1:8080"
	DefaultDevice           = "cpu"
	DefaultTrainerCommand   = "python -m textsummarizer_trainer"
	DefaultSQLitePath       = "artifacts/tracking.db"
	EnvPrefix               = "TEXTSUMMARIZER"
)

// NewSettings creates a new Settings instance with default values
func NewSettings() *Settings {
	s := &Settings{}
	s.Logging.Level = DefaultLogLevel
	s.Logging.Format = DefaultLogFormat
	s.Logging.File = logger.DefaultLogFile
	s.Logging.MaxSizeMB = 10
	s.Model.BaseURL = DefaultModelBaseURL
	s.Model.Device = DefaultDevice
	s.Model.TimeoutSeconds = 600
	s.Trainer.Command = DefaultTrainerCommand
	s.Tracking.SQLitePath = DefaultSQLitePath
	return s
}

// LoadSettings loads defaults, then the settings file at path if it exists,
// then TEXTSUMMARIZER_* environment overrides.
func LoadSettings(ctx context.Context, path string) (*Settings, error) {
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	s := NewSettings()

	if path == "" {
		path = DefaultSettingsFilename
	}
	if path == DefaultSettingsFilename {
		if found, err := configurator.FindConfigFile(path); err == nil {
			path = found
		}
	}

	loader := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider())
	if _, err := os.Stat(path); err == nil {
		loader = loader.WithProvider(configurator.NewFileProvider(path))
	}
	loader = loader.
		WithProvider(configurator.NewEnvProvider(EnvPrefix)).
		WithValidator(configurator.NewDefaultValidator())

	if err := loader.Load(ctx, s); err != nil {
		return nil, errortypes.ConfigError(err, "failed to load settings").WithField("path", path)
	}

	s.settingsPath = path
	return s, nil
}

// Path returns the settings file that was consulted.
func (s *Settings) Path() string {
	return s.settingsPath
}

// TrainerCommand splits the configured trainer command into argv form.
func (s *Settings) TrainerCommand() []string {
	return strings.Fields(s.Trainer.Command)
}

// LoggerConfig returns the logger configuration described by the settings.
func (s *Settings) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.ParseLevel(s.Logging.Level)
	cfg.Format = logger.ParseFormat(s.Logging.Format)
	cfg.FilePath = s.Logging.File
	if s.Logging.MaxSizeMB > 0 {
		cfg.MaxSizeMB = s.Logging.MaxSizeMB
	}
	return cfg
}

// NewLogger creates the process logger described by the settings.
func (s *Settings) NewLogger() *logger.Logger {
	return logger.New(s.LoggerConfig())
}
