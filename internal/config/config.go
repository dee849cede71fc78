package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir           string
	DBPath            string
	LogPath           string
	SettingsPath      string
	UserWorkoutDir    string
	ProjectWorkoutDir string

	Settings Settings
}

// Settings are the user-editable values read from config.yaml.
type Settings struct {
	LogLevel           string        `yaml:"log_level"`
	DefaultRestSeconds int           `yaml:"default_rest_seconds"`
	TickInterval       time.Duration `yaml:"tick_interval"`
}

func defaultSettings() Settings {
	return Settings{
		LogLevel:           "info",
		DefaultRestSeconds: 60,
		TickInterval:       time.Second,
	}
}

// New resolves paths under GYM_DATA_DIR (default ~/.gym), loads <data>/.env
// without overriding variables that are already set, then reads the optional
// <data>/config.yaml. GYM_LOG_LEVEL overrides the configured log level.
func New() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dataDir := getEnv("GYM_DATA_DIR", filepath.Join(homeDir, ".gym"))
	if err := loadDotEnv(filepath.Join(dataDir, ".env")); err != nil {
		return nil, err
	}
	// .env may point the data dir elsewhere.
	dataDir = getEnv("GYM_DATA_DIR", dataDir)

	c := &Config{
		DataDir:           dataDir,
		DBPath:            filepath.Join(dataDir, "gym.db"),
		LogPath:           filepath.Join(dataDir, "gym.log"),
		SettingsPath:      filepath.Join(dataDir, "config.yaml"),
		UserWorkoutDir:    filepath.Join(dataDir, "workouts"),
		ProjectWorkoutDir: filepath.Join(".gym", "workouts"),
		Settings:          defaultSettings(),
	}

	if err := c.loadSettings(); err != nil {
		return nil, err
	}
	applyEnvOverrides(c)

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return c, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func (c *Config) loadSettings() error {
	data, err := os.ReadFile(c.SettingsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c.Settings); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("GYM_LOG_LEVEL"); v != "" {
		c.Settings.LogLevel = v
	}
}

func (c *Config) validate() error {
	if _, err := parseLevel(c.Settings.LogLevel); err != nil {
		return err
	}
	if c.Settings.DefaultRestSeconds <= 0 {
		return fmt.Errorf("default_rest_seconds must be positive, got %d", c.Settings.DefaultRestSeconds)
	}
	if c.Settings.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.Settings.TickInterval)
	}
	return nil
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Settings.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
}

// WorkoutDirs lists the definition directories in load order. Files in the
// user directory replace project files with the same name.
func (c *Config) WorkoutDirs() []string {
	return []string{c.ProjectWorkoutDir, c.UserWorkoutDir}
}

func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backups")
}

func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(c.UserWorkoutDir, 0755); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
