package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	// TelegramToken enables the external channel. When empty the bot client
	// and poller are never constructed and notifications stay in-app only.
	TelegramToken       string        `mapstructure:"telegram_token" yaml:"telegram_token"`
	TelegramSendTimeout time.Duration `mapstructure:"telegram_send_timeout" yaml:"telegram_send_timeout"`
	TelegramPollTimeout time.Duration `mapstructure:"telegram_poll_timeout" yaml:"telegram_poll_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:                ":8080",
		ReadHeaderTimeout:   5 * time.Second,
		ShutdownTimeout:     5 * time.Second,
		DatabasePath:        "dealhub.db",
		LogLevel:            "info",
		JWTSecret:           "change-me",
		JWTIssuer:           "dealhub",
		JWTAudience:         "dealhub",
		TelegramToken:       "",
		TelegramSendTimeout: 8 * time.Second,
		TelegramPollTimeout: 30 * time.Second,
	}
}

// TelegramEnabled reports whether the external channel is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}
