// Package config loads the client configuration.
package config

import (
	"os"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Transports accepted in ServerConfig.Transport.
const (
	TransportWebSocket = "ws"
	TransportTCP       = "tcp"
)

// Config represents the client configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Login  LoginConfig  `yaml:"login"`
	Log    LogConfig    `yaml:"log"`
	Admin  AdminConfig  `yaml:"admin"`
}

// ServerConfig holds the game server address
type ServerConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Secure      bool          `yaml:"secure"`
	Transport   string        `yaml:"transport"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// LoginConfig holds the credentials sent on connect
type LoginConfig struct {
	Username string `yaml:"username"`
	Look     string `yaml:"look"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AdminConfig holds the admin HTTP endpoint. An empty Addr disables it.
type AdminConfig struct {
	Addr string `yaml:"addr"`
}

// LoadDefaultConfig returns the default configuration
func LoadDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "localhost",
			Port:        8080,
			Transport:   TransportWebSocket,
			DialTimeout: 10 * time.Second,
		},
		Login: LoginConfig{
			Username: "guest",
			Look:     "hd-180-1.ch-255-66.lg-280-110.sh-305-62.ha-1012-110.hr-828-61",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from path, on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg := LoadDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server host cannot be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Server.Transport {
	case TransportWebSocket, TransportTCP:
	default:
		return errors.Errorf("invalid server transport: %q", c.Server.Transport)
	}
	if c.Server.DialTimeout < 0 {
		return errors.Errorf("invalid dial timeout: %s", c.Server.DialTimeout)
	}
	if c.Login.Username == "" {
		return errors.New("login username cannot be empty")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.Errorf("invalid log format: %q", c.Log.Format)
	}
	return nil
}

// SetupLogger builds a zap logger from cfg
func SetupLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}

	var zcfg zap.Config
	switch cfg.Format {
	case "json":
		zcfg = zap.NewProductionConfig()
	case "console", "":
		zcfg = zap.NewDevelopmentConfig()
	default:
		return nil, errors.Errorf("invalid log format: %q", cfg.Format)
	}
	zcfg.Level = level
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build logger")
	}
	return logger, nil
}
