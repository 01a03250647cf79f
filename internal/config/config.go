// Load envs from .env
// Load YAML config
// Override with env vars
// Provide default values
// Validate config

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	Port        string `yaml:"port" env:"PORT"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	Development bool   `yaml:"development" env:"DEVELOPMENT"`

	//Crawling
	SourcesFile   string        `yaml:"sources_file" env:"SOURCES_FILE"`
	CrawlInterval time.Duration `yaml:"crawl_interval" env:"CRAWL_INTERVAL"`
	Browser       Browser       `yaml:"browser"`

	//Notifications
	Telegram Telegram `yaml:"telegram"`
}

type Browser struct {
	Engine        string        `yaml:"engine" env:"BROWSER_ENGINE"` // playwright | static
	Headless      bool          `yaml:"headless" env:"BROWSER_HEADLESS"`
	SettleTimeout time.Duration `yaml:"settle_timeout"`
	SourceTimeout time.Duration `yaml:"source_timeout"`
	ScreenshotDir string        `yaml:"screenshot_dir"`
}

type Telegram struct {
	Token  string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

// Enabled reports whether run notifications should be sent.
func (t Telegram) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// Load reads .env, then the YAML file at path (skipped when missing), then
// environment overrides, then fills defaults and validates.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{Browser: Browser{Headless: true}}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: Could not read %s: %v", path, err)
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.SourcesFile, "SOURCES_FILE")
	setString(&c.Browser.Engine, "BROWSER_ENGINE")
	setString(&c.Telegram.Token, "TELEGRAM_BOT_TOKEN")

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: TELEGRAM_CHAT_ID: %v", ErrInvalidConfig, err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("CRAWL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: CRAWL_INTERVAL: %v", ErrInvalidConfig, err)
		}
		c.CrawlInterval = d
	}
	for key, dst := range map[string]*bool{"BROWSER_HEADLESS": &c.Browser.Headless, "DEVELOPMENT": &c.Development} {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
			}
			*dst = b
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = "sqlite://notices.db"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Browser.Engine == "" {
		c.Browser.Engine = "playwright"
	}
	c.Browser.Engine = strings.ToLower(c.Browser.Engine)
	if c.Browser.SettleTimeout == 0 {
		c.Browser.SettleTimeout = 10 * time.Second
	}
	if c.Browser.SourceTimeout == 0 {
		c.Browser.SourceTimeout = 2 * time.Minute
	}
	if c.CrawlInterval == 0 {
		c.CrawlInterval = 6 * time.Hour
	}
}

// Validate returns the first problem found instead of exiting, so callers
// decide how to fail.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("%w: PORT must be numeric, got %q", ErrInvalidConfig, c.Port)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: LOG_LEVEL: %v", ErrInvalidConfig, err)
	}
	switch c.Browser.Engine {
	case "playwright", "static":
	default:
		return fmt.Errorf("%w: BROWSER_ENGINE must be playwright or static, got %q", ErrInvalidConfig, c.Browser.Engine)
	}
	if c.Browser.SettleTimeout < 0 || c.Browser.SourceTimeout < 0 || c.CrawlInterval < 0 {
		return fmt.Errorf("%w: durations must be positive", ErrInvalidConfig)
	}
	if (c.Telegram.Token == "") != (c.Telegram.ChatID == 0) {
		return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together", ErrInvalidConfig)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
