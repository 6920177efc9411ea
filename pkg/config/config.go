// Package config holds the YAML configuration shared by the tools and the daemon.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/speters/tekvxi/pkg/link"
	"github.com/speters/tekvxi/pkg/tek"
)

type Config struct {
	Instrument InstrumentConfig `yaml:"instrument"`
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Log        LogConfig        `yaml:"log"`
}

type InstrumentConfig struct {
	// Address of the scope or AFG, see link.Address
	Address string        `yaml:"address"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// LoadConfig reads a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return config, nil
}

// GetDefaultConfig returns the configuration used without a config file
func GetDefaultConfig() *Config {
	return &Config{
		Instrument: InstrumentConfig{
			Port:    link.DefaultPort,
			Timeout: tek.DefaultTimeout,
		},
		Server: ServerConfig{
			Listen: ":8000",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			Channel: "tek_acquisitions",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// SetupLogger builds a logger from cfg and applies the same settings to the
// standard logger used by the library packages
func SetupLogger(cfg LogConfig) *log.Logger {
	logger := log.New()

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}

	var formatter log.Formatter
	if cfg.Format == "json" {
		formatter = &log.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"}
	} else {
		formatter = &log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"}
	}

	var out io.Writer = os.Stdout
	switch cfg.Output {
	case "stderr":
		out = os.Stderr
	case "file":
		if cfg.FilePath == "" {
			break
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logger.Warnf("Could not open log file: %v, logging to stdout", err)
			break
		}
		out = file
	}

	for _, l := range []*log.Logger{logger, log.StandardLogger()} {
		l.SetLevel(level)
		l.SetFormatter(formatter)
		l.SetOutput(out)
	}
	return logger
}
