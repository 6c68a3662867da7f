package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`

	Report struct {
		WeeklyLimit int `yaml:"weekly_limit"`
	} `yaml:"report"`

	WS struct {
		URL            string `yaml:"url"`
		Token          string `yaml:"token"`
		HeartbeatSec   int    `yaml:"heartbeat_sec"`
		ReadTimeoutSec int    `yaml:"read_timeout_sec"`
		Reconnect      struct {
			Enabled     bool `yaml:"enabled"`
			MaxRetries  int  `yaml:"max_retries"`
			BaseSeconds int  `yaml:"base_seconds"`
			MaxSeconds  int  `yaml:"max_seconds"`
		} `yaml:"reconnect"`
	} `yaml:"ws"`

	Listen struct {
		OwnerID       string   `yaml:"owner_id"`
		InWords       []string `yaml:"in_words"`
		OutWords      []string `yaml:"out_words"`
		StaleAfterSec int      `yaml:"stale_after_sec"`
	} `yaml:"listen"`
}

func (c Config) Heartbeat() time.Duration   { return time.Duration(c.WS.HeartbeatSec) * time.Second }
func (c Config) ReadTimeout() time.Duration { return time.Duration(c.WS.ReadTimeoutSec) * time.Second }
func (c Config) StaleAfter() time.Duration {
	return time.Duration(c.Listen.StaleAfterSec) * time.Second
}

func Default() Config {
	var cfg Config
	cfg.App.LogLevel = "warn"
	cfg.Store.Path = "clock_data.txt"
	cfg.Report.WeeklyLimit = 10
	cfg.WS.HeartbeatSec = 30
	cfg.WS.Reconnect.Enabled = true
	cfg.WS.Reconnect.BaseSeconds = 1
	cfg.WS.Reconnect.MaxSeconds = 30
	cfg.Listen.InWords = []string{"in"}
	cfg.Listen.OutWords = []string{"out"}
	cfg.Listen.StaleAfterSec = 120
	return cfg
}

// Load reads the yaml file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("yaml: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadEnvFile loads .env from the working directory if there is one.
func LoadEnvFile() {
	_ = godotenv.Load()
}

func (c *Config) applyEnv() {
	setString(&c.Store.Path, "TIMECLOCK_FILE")
	setString(&c.App.LogLevel, "TIMECLOCK_LOG_LEVEL")
	setString(&c.WS.URL, "TIMECLOCK_WS_URL")
	setString(&c.WS.Token, "TIMECLOCK_WS_TOKEN")
	setString(&c.Listen.OwnerID, "TIMECLOCK_OWNER_ID")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	var problems []string

	if c.Store.Path == "" {
		problems = append(problems, "store path cannot be empty")
	}
	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.App.LogLevel))
	}
	if c.Report.WeeklyLimit < 0 {
		problems = append(problems, fmt.Sprintf("invalid weekly limit %d: must not be negative", c.Report.WeeklyLimit))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// ValidateListen checks the extra settings the listen command needs.
func (c Config) ValidateListen() error {
	var problems []string

	if c.WS.URL == "" {
		problems = append(problems, "ws url is required")
	} else if u, err := url.Parse(c.WS.URL); err != nil {
		problems = append(problems, fmt.Sprintf("invalid ws url '%s': %v", c.WS.URL, err))
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		problems = append(problems, fmt.Sprintf("invalid ws url scheme '%s': must be 'ws' or 'wss'", u.Scheme))
	}
	if c.Listen.OwnerID == "" {
		problems = append(problems, "listen owner_id is required")
	}
	if len(c.Listen.InWords) == 0 || len(c.Listen.OutWords) == 0 {
		problems = append(problems, "listen in_words and out_words cannot be empty")
	}
	if c.WS.Reconnect.Enabled && c.WS.Reconnect.BaseSeconds > c.WS.Reconnect.MaxSeconds {
		problems = append(problems, fmt.Sprintf("reconnect base_seconds %d exceeds max_seconds %d", c.WS.Reconnect.BaseSeconds, c.WS.Reconnect.MaxSeconds))
	}

	if len(problems) > 0 {
		return fmt.Errorf("listen configuration invalid:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
