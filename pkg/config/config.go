package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DefaultGreeting is the first agent message shown in a fresh chat view
const DefaultGreeting = "Namaste! 🙏 I'm CodeSherpa. How can I help you today? I can review your PRs or explain code in Hindi/English."

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	API      APIConfig      `mapstructure:"api"`
	UI       UIConfig       `mapstructure:"ui"`
	History  HistoryConfig  `mapstructure:"history"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the chat channel settings
type ServerConfig struct {
	URL                 string        `mapstructure:"url"`
	SessionID           string        `mapstructure:"session_id"`
	HandshakeTimeout    time.Duration `mapstructure:"-"`
	HandshakeTimeoutStr string        `mapstructure:"handshake_timeout"`
	PingInterval        time.Duration `mapstructure:"-"`
	PingIntervalStr     string        `mapstructure:"ping_interval"`
}

// APIConfig holds REST settings for the backend
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"-"`
	TimeoutStr string        `mapstructure:"timeout"`
}

// UIConfig holds presentation settings
type UIConfig struct {
	MarkdownStyle        string        `mapstructure:"markdown_style"`
	WordWrap             int           `mapstructure:"word_wrap"`
	ShowTimestamps       bool          `mapstructure:"show_timestamps"`
	Greeting             string        `mapstructure:"greeting"`
	ReconnectInterval    time.Duration `mapstructure:"-"`
	ReconnectIntervalStr string        `mapstructure:"reconnect_interval"`
}

// HistoryConfig holds transcript persistence settings
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"`
}

// HeadlessConfig holds one-shot runner settings
type HeadlessConfig struct {
	Timeout    time.Duration `mapstructure:"-"`
	TimeoutStr string        `mapstructure:"timeout"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.sherpa")
		viper.AddConfigPath(filepath.Join(xdgConfigHome, ".sherpa"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.AutomaticEnv()
	bindEnvironmentVariables()

	// A missing file is fine, defaults apply.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := processDurations(loaded); err != nil {
		return nil, fmt.Errorf("failed to process durations: %w", err)
	}

	cfg = loaded
	return cfg, nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("server.url", "ws://localhost:8000/ws")
	viper.SetDefault("server.session_id", "demo-session-1")
	viper.SetDefault("server.handshake_timeout", "10s")
	viper.SetDefault("server.ping_interval", "30s")

	viper.SetDefault("api.base_url", "http://localhost:8000")
	viper.SetDefault("api.timeout", "5s")

	viper.SetDefault("ui.markdown_style", "dark")
	viper.SetDefault("ui.word_wrap", 100)
	viper.SetDefault("ui.show_timestamps", true)
	viper.SetDefault("ui.greeting", DefaultGreeting)
	viper.SetDefault("ui.reconnect_interval", "3s")

	viper.SetDefault("history.enabled", false)
	viper.SetDefault("history.file", "./.sherpa/chat_history.json")

	viper.SetDefault("headless.timeout", "2m")

	viper.SetDefault("logging.log_file", "./.sherpa/system.log")
	viper.SetDefault("logging.preserve", false)
	viper.SetDefault("logging.level", "info")
}

// bindEnvironmentVariables binds SHERPA_ environment variables to viper keys
func bindEnvironmentVariables() {
	viper.BindEnv("server.url", "SHERPA_SERVER_URL")
	viper.BindEnv("server.session_id", "SHERPA_SESSION_ID")
	viper.BindEnv("server.handshake_timeout", "SHERPA_HANDSHAKE_TIMEOUT")
	viper.BindEnv("server.ping_interval", "SHERPA_PING_INTERVAL")
	viper.BindEnv("api.base_url", "SHERPA_API_URL")
	viper.BindEnv("api.timeout", "SHERPA_API_TIMEOUT")
	viper.BindEnv("ui.markdown_style", "SHERPA_MARKDOWN_STYLE")
	viper.BindEnv("history.enabled", "SHERPA_HISTORY_ENABLED")
	viper.BindEnv("history.file", "SHERPA_HISTORY_FILE")
	viper.BindEnv("headless.timeout", "SHERPA_HEADLESS_TIMEOUT")
	viper.BindEnv("logging.log_file", "SHERPA_LOG_FILE")
	viper.BindEnv("logging.level", "SHERPA_LOG_LEVEL")
	viper.BindEnv("logging.preserve", "SHERPA_LOG_PRESERVE")
}

// processDurations converts string durations to time.Duration
func processDurations(c *Config) error {
	fields := []struct {
		key      string
		raw      string
		target   *time.Duration
		fallback time.Duration
	}{
		{"server.handshake_timeout", c.Server.HandshakeTimeoutStr, &c.Server.HandshakeTimeout, 10 * time.Second},
		{"server.ping_interval", c.Server.PingIntervalStr, &c.Server.PingInterval, 30 * time.Second},
		{"api.timeout", c.API.TimeoutStr, &c.API.Timeout, 5 * time.Second},
		{"ui.reconnect_interval", c.UI.ReconnectIntervalStr, &c.UI.ReconnectInterval, 3 * time.Second},
		{"headless.timeout", c.Headless.TimeoutStr, &c.Headless.Timeout, 2 * time.Minute},
	}

	for _, f := range fields {
		if f.raw == "" {
			if *f.target == 0 {
				*f.target = f.fallback
			}
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.key, err)
		}
		*f.target = d
	}

	return nil
}

// GetConfigFileUsed returns the path to the config file being used
func GetConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// transientKeys are command-line only and never written to settings
var transientKeys = map[string]bool{
	"prompt":   true,
	"headless": true,
	"continue": true,
}

// ErrSettingsExist is returned by WriteDefaults when path already exists
var ErrSettingsExist = errors.New("settings file already exists")

// WriteDefaults writes the current settings, defaults included, to path
func WriteDefaults(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrSettingsExist, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for _, key := range viper.AllKeys() {
		if transientKeys[key] {
			continue
		}
		v.Set(key, viper.Get(key))
	}

	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write default configuration: %w", err)
	}
	return nil
}
