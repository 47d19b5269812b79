// Package config loads application configuration from an optional YAML file
// and SMTPVIEW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
	HTTP HTTPConfig `mapstructure:"http"`

	// SeedDir is an optional directory of .eml files loaded on startup.
	SeedDir string `mapstructure:"seed_dir"`
}

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Domain is announced in the SMTP greeting.
	Domain string `mapstructure:"domain"`

	// MaxMessageSize bounds a single submission, in bytes.
	MaxMessageSize int64 `mapstructure:"max_message_size"`
}

type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Default returns the built-in configuration. The SMTP port follows
// RFC 6409 submission, the size limit the RFC 5321 minimum.
func Default() Config {
	return Config{
		SMTP: SMTPConfig{
			Host:           "localhost",
			Port:           587,
			Domain:         "localhost",
			MaxMessageSize: 64 * 1024,
		},
		HTTP: HTTPConfig{
			Host: "localhost",
			Port: 8080,
		},
	}
}

// Load reads configuration from the given file, falling back to defaults
// when path is empty or the file does not exist. Environment variables of
// the form SMTPVIEW_SMTP_PORT override both.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SMTPVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Look for smtpview.yaml in the working directory
		v.SetConfigName("smtpview")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("smtp.host", cfg.SMTP.Host)
	v.SetDefault("smtp.port", cfg.SMTP.Port)
	v.SetDefault("smtp.domain", cfg.SMTP.Domain)
	v.SetDefault("smtp.max_message_size", cfg.SMTP.MaxMessageSize)

	v.SetDefault("http.host", cfg.HTTP.Host)
	v.SetDefault("http.port", cfg.HTTP.Port)

	v.SetDefault("seed_dir", cfg.SeedDir)
}

func Validate(cfg Config) error {
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port out of range: %d", cfg.SMTP.Port)
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", cfg.HTTP.Port)
	}
	if cfg.SMTP.MaxMessageSize <= 0 {
		return fmt.Errorf("smtp.max_message_size must be positive")
	}
	return nil
}

// SMTPAddress returns the listen address of the SMTP sink.
func (c Config) SMTPAddress() string {
	return fmt.Sprintf("%s:%d", c.SMTP.Host, c.SMTP.Port)
}

// HTTPAddress returns the listen address of the web interface.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// URL returns the base URL of the web interface.
func (c Config) URL() string {
	return "http://" + c.HTTPAddress()
}
