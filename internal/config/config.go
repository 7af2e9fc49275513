package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Environment overrides, also read from a .env file by the CLI
const (
	EnvDatabasePath = "FLASHCARDS_DB"
	EnvLogLevel     = "FLASHCARDS_LOG_LEVEL"
)

// Config represents the application configuration
type Config struct {
	DefaultList  string `toml:"default_list"`
	LogLevel     string `toml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	DatabasePath string `toml:"database_path"`
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetDefaultDatabasePath returns where the card database lives unless configured otherwise
func GetDefaultDatabasePath() string {
	return filepath.Join(GetXDGDataHome(), "flashcards", "flashcards.db")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "flashcards", "config.toml")
}

// LoadConfig loads the config file, creating it with defaults on first use,
// and applies environment overrides
func LoadConfig() (*Config, error) {
	configPath := GetConfigFilePath()

	var config *Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config, err = createDefaultConfig()
		if err != nil {
			return nil, err
		}
	} else {
		config = &Config{}
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	applyEnv(config)
	if config.DatabasePath == "" {
		config.DatabasePath = GetDefaultDatabasePath()
	}
	if config.LogLevel == "" {
		config.LogLevel = "warn"
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return config, nil
}

func applyEnv(config *Config) {
	if v := os.Getenv(EnvDatabasePath); v != "" {
		config.DatabasePath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = v
	}
}

// createDefaultConfig creates a default config file
func createDefaultConfig() (*Config, error) {
	config := &Config{LogLevel: "warn"}
	if err := writeConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func writeConfig(config *Config) error {
	configPath := GetConfigFilePath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return nil
}

// SetDefaultList sets the default list in the config file.
// Environment overrides are not written back.
func SetDefaultList(name string) error {
	configPath := GetConfigFilePath()

	config := &Config{}
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return fmt.Errorf("error decoding config file: %w", err)
		}
	}

	config.DefaultList = name
	return writeConfig(config)
}
