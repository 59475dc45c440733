// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Network  NetworkConfig  `mapstructure:"network" yaml:"network"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Sessions SessionsConfig `mapstructure:"sessions" yaml:"sessions"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the controlled browser process.
type BrowserConfig struct {
	// ExecutablePath overrides platform detection. The BRAVE_PATH
	// environment variable is bound to this field.
	ExecutablePath string   `mapstructure:"executable_path" yaml:"executable_path"`
	Headless       bool     `mapstructure:"headless" yaml:"headless"`
	Args           []string `mapstructure:"args" yaml:"args"`
	UserAgent      string   `mapstructure:"user_agent" yaml:"user_agent"`
	ViewportWidth  int      `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int      `mapstructure:"viewport_height" yaml:"viewport_height"`

	Humanoid HumanoidConfig `mapstructure:"humanoid" yaml:"humanoid"`
}

// HumanoidConfig tunes the human-interaction simulator.
type HumanoidConfig struct {
	// Enabled toggles humanized input. When off, pointer moves jump
	// straight to the target and text is sent in a single burst.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// ControlJitterPx bounds the random offset applied to the Bezier
	// control points of a pointer trajectory.
	ControlJitterPx float64 `mapstructure:"control_jitter_px" yaml:"control_jitter_px"`
	// StepInterval is the sampling interval of a pointer trajectory.
	StepInterval time.Duration `mapstructure:"step_interval" yaml:"step_interval"`
	// KeyDelayMinMs/KeyDelayMaxMs bound the per-character typing delay.
	KeyDelayMinMs int `mapstructure:"key_delay_min_ms" yaml:"key_delay_min_ms"`
	KeyDelayMaxMs int `mapstructure:"key_delay_max_ms" yaml:"key_delay_max_ms"`
	// PauseChance is the probability of a longer pause between keys.
	PauseChance float64 `mapstructure:"pause_chance" yaml:"pause_chance"`
}

// NetworkConfig tunes navigation and wait timeouts.
type NetworkConfig struct {
	NavigationTimeout  time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SelectorTimeout    time.Duration `mapstructure:"selector_timeout" yaml:"selector_timeout"`
	SearchWaitTimeout  time.Duration `mapstructure:"search_wait_timeout" yaml:"search_wait_timeout"`
	LoginVerifyTimeout time.Duration `mapstructure:"login_verify_timeout" yaml:"login_verify_timeout"`
	// CrawlRatePerSecond caps page fetches during a crawl. Zero or
	// negative disables throttling.
	CrawlRatePerSecond float64 `mapstructure:"crawl_rate_per_second" yaml:"crawl_rate_per_second"`
}

// ServerConfig configures the HTTP/WebSocket listener.
type ServerConfig struct {
	ListenAddr     string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// SessionsConfig configures the on-disk session store.
type SessionsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "bravectl")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.viewport_width", 1366)
	v.SetDefault("browser.viewport_height", 768)
	v.SetDefault("browser.humanoid.enabled", true)
	v.SetDefault("browser.humanoid.control_jitter_px", 25.0)
	v.SetDefault("browser.humanoid.step_interval", "20ms")
	v.SetDefault("browser.humanoid.key_delay_min_ms", 50)
	v.SetDefault("browser.humanoid.key_delay_max_ms", 150)
	v.SetDefault("browser.humanoid.pause_chance", 0.1)

	// -- Network --
	v.SetDefault("network.navigation_timeout", "30s")
	v.SetDefault("network.selector_timeout", "10s")
	v.SetDefault("network.search_wait_timeout", "5s")
	v.SetDefault("network.login_verify_timeout", "30s")
	v.SetDefault("network.crawl_rate_per_second", 2.0)

	// -- Server --
	v.SetDefault("server.listen_addr", ":3000")
	v.SetDefault("server.request_timeout", "120s")

	// -- Sessions --
	v.SetDefault("sessions.dir", ".sessions")
}

// NewFromViper creates a configuration instance from a viper object,
// binding environment variables for the commonly overridden fields.
func NewFromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("browser.executable_path", "BRAVE_PATH")
	v.BindEnv("browser.headless", "HEADLESS")
	v.BindEnv("server.listen_addr", "BRAVECTL_LISTEN_ADDR")
	v.BindEnv("sessions.dir", "BRAVECTL_SESSIONS_DIR")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Honor BRAVE_PATH even when Unmarshal did not pick it up.
	if cfg.Browser.ExecutablePath == "" {
		cfg.Browser.ExecutablePath = os.Getenv("BRAVE_PATH")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefault creates a configuration populated with default values.
func NewDefault() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Network.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be a positive duration")
	}
	if c.Network.SelectorTimeout <= 0 {
		return fmt.Errorf("network.selector_timeout must be a positive duration")
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Browser.Humanoid.StepInterval <= 0 {
		return fmt.Errorf("browser.humanoid.step_interval must be a positive duration")
	}
	if c.Browser.Humanoid.KeyDelayMaxMs < c.Browser.Humanoid.KeyDelayMinMs {
		return fmt.Errorf("browser.humanoid.key_delay_max_ms must not be below key_delay_min_ms")
	}
	return nil
}
