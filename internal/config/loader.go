package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures configuration values for the notes database.
type Config struct {
	SQLitePath  string
	BusyTimeout time.Duration
	JournalMode string
	Logging     Logging
}

// Logging configures the structured logger.
type Logging struct {
	Level     string `toml:"level"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

// fileConfig mirrors Config in the TOML file. Durations are strings such as "5s".
type fileConfig struct {
	SQLitePath  *string  `toml:"sqlite_path"`
	BusyTimeout *string  `toml:"busy_timeout"`
	JournalMode *string  `toml:"journal_mode"`
	Logging     *Logging `toml:"logging"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		SQLitePath:  "notes.sqlite",
		BusyTimeout: 30 * time.Second,
		JournalMode: "WAL",
		Logging: Logging{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// Load parses configuration values from the current process environment.
//
// When NOTESDB_CONFIG names a TOML file its values are applied first, then
// environment variables override them. Invalid values are reported together.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with an explicit environment lookup.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(getenv("NOTESDB_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := applyFile(&cfg, data); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	invalid := make([]string, 0, 4)

	if path := strings.TrimSpace(getenv("NOTESDB_SQLITE_PATH")); path != "" {
		cfg.SQLitePath = path
	}

	if value := strings.TrimSpace(getenv("NOTESDB_BUSY_TIMEOUT")); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil || timeout < 0 {
			invalid = append(invalid, "NOTESDB_BUSY_TIMEOUT")
		} else {
			cfg.BusyTimeout = timeout
		}
	}

	if mode := strings.TrimSpace(getenv("NOTESDB_JOURNAL_MODE")); mode != "" {
		cfg.JournalMode = strings.ToUpper(mode)
	}

	if value := strings.TrimSpace(getenv("NOTESDB_LOG_LEVEL")); value != "" {
		level, ok := NormalizeLevel(value)
		if !ok {
			invalid = append(invalid, "NOTESDB_LOG_LEVEL")
		} else {
			cfg.Logging.Level = level
		}
	}

	if file := strings.TrimSpace(getenv("NOTESDB_LOG_FILE")); file != "" {
		cfg.Logging.File = file
	}

	if value := strings.TrimSpace(getenv("NOTESDB_LOG_MAX_SIZE_MB")); value != "" {
		size, err := strconv.Atoi(value)
		if err != nil || size <= 0 {
			invalid = append(invalid, "NOTESDB_LOG_MAX_SIZE_MB")
		} else {
			cfg.Logging.MaxSizeMB = size
		}
	}

	if value := strings.TrimSpace(getenv("NOTESDB_LOG_MAX_FILES")); value != "" {
		files, err := strconv.Atoi(value)
		if err != nil || files <= 0 {
			invalid = append(invalid, "NOTESDB_LOG_MAX_FILES")
		} else {
			cfg.Logging.MaxFiles = files
		}
	}

	if cfg.SQLitePath == "" {
		return Config{}, fmt.Errorf("required configuration is missing: NOTESDB_SQLITE_PATH")
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func applyFile(cfg *Config, data []byte) error {
	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.SQLitePath != nil {
		cfg.SQLitePath = strings.TrimSpace(*raw.SQLitePath)
	}
	if raw.BusyTimeout != nil {
		timeout, err := time.ParseDuration(*raw.BusyTimeout)
		if err != nil || timeout < 0 {
			return fmt.Errorf("busy_timeout: invalid duration %q", *raw.BusyTimeout)
		}
		cfg.BusyTimeout = timeout
	}
	if raw.JournalMode != nil {
		cfg.JournalMode = strings.ToUpper(*raw.JournalMode)
	}
	if raw.Logging != nil {
		if raw.Logging.Level != "" {
			level, ok := NormalizeLevel(raw.Logging.Level)
			if !ok {
				return fmt.Errorf("logging.level: unknown log level %q", raw.Logging.Level)
			}
			cfg.Logging.Level = level
		}
		if raw.Logging.File != "" {
			cfg.Logging.File = raw.Logging.File
		}
		if raw.Logging.MaxSizeMB > 0 {
			cfg.Logging.MaxSizeMB = raw.Logging.MaxSizeMB
		}
		if raw.Logging.MaxFiles > 0 {
			cfg.Logging.MaxFiles = raw.Logging.MaxFiles
		}
	}

	return nil
}

// NormalizeLevel returns the canonical name of a log level: debug, info, warn
// or error. "warning" is accepted as warn.
func NormalizeLevel(name string) (string, bool) {
	switch level := strings.ToLower(strings.TrimSpace(name)); level {
	case "debug", "info", "warn", "error":
		return level, true
	case "warning":
		return "warn", true
	default:
		return "", false
	}
}
