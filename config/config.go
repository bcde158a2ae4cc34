package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Costing  CostingConfig  `yaml:"costing"`
	Report   ReportConfig   `yaml:"report"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	CORS     CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // ":memory:" for an ephemeral database
}

type LogConfig struct {
	Env string `yaml:"env"` // "production" or "development"
}

type CostingConfig struct {
	// StandardRole is the grid role every member is priced at.
	StandardRole string `yaml:"standard_role"`
}

type ReportConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type MonitorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "erasmus.db",
		},
		Log: LogConfig{
			Env: "development",
		},
		Costing: CostingConfig{
			StandardRole: "Researcher",
		},
		Report: ReportConfig{
			Concurrency: 4,
		},
		Monitor: MonitorConfig{
			Enabled:  true,
			Interval: time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ERASMUS_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ERASMUS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ERASMUS_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("ERASMUS_ENV"); v != "" {
		cfg.Log.Env = v
	}
	if v := os.Getenv("ERASMUS_STANDARD_ROLE"); v != "" {
		cfg.Costing.StandardRole = v
	}
}

func (c *Config) validate() error {
	if c.Costing.StandardRole == "" {
		return fmt.Errorf("costing.standard_role must not be empty")
	}
	if c.Report.Concurrency < 1 {
		return fmt.Errorf("report.concurrency must be at least 1, got %d", c.Report.Concurrency)
	}
	if c.Monitor.Enabled && c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive when the monitor is enabled")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
