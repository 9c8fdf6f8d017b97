// Package config handles configuration loading for ratiodash.
// It supports YAML config files with environment variable overrides.
// RATIODASH_ variables reach the scalar sections (server, logging,
// session) only; datasets entries come from the file or the built-in
// defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig    `mapstructure:"server"   yaml:"server"`
	Logging  LoggingConfig   `mapstructure:"logging"  yaml:"logging"`
	Session  SessionConfig   `mapstructure:"session"  yaml:"session"`
	Datasets []DatasetConfig `mapstructure:"datasets" yaml:"datasets"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Addr renders the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// SessionConfig controls how long idle dashboard sessions live.
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"            yaml:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

// DatasetConfig describes one CSV file served as a dashboard.
type DatasetConfig struct {
	Name         string         `mapstructure:"name"           yaml:"name"`
	Title        string         `mapstructure:"title"          yaml:"title"`
	Kind         string         `mapstructure:"kind"           yaml:"kind"` // "risk" or "statements"
	Path         string         `mapstructure:"path"           yaml:"path"`
	Percent      bool           `mapstructure:"percent"        yaml:"percent"`
	DropOffCycle bool           `mapstructure:"drop_off_cycle" yaml:"drop_off_cycle"`
	Columns      ColumnConfig   `mapstructure:"columns"        yaml:"columns"`
	Defaults     DefaultsConfig `mapstructure:"defaults"       yaml:"defaults"`
}

// ColumnConfig names the dimension columns of a dataset. Leave Country
// empty for files without one; set Date instead of Period to derive
// quarter labels from raw dates.
type ColumnConfig struct {
	Country string `mapstructure:"country" yaml:"country"`
	Bank    string `mapstructure:"bank"    yaml:"bank"`
	Period  string `mapstructure:"period"  yaml:"period"`
	Date    string `mapstructure:"date"    yaml:"date"`
}

// DefaultsConfig is the initial selection of a dashboard.
type DefaultsConfig struct {
	Countries []string `mapstructure:"countries" yaml:"countries"`
	Banks     []string `mapstructure:"banks"     yaml:"banks"`
	Periods   []string `mapstructure:"periods"   yaml:"periods"`
	Category  string   `mapstructure:"category"  yaml:"category"`
	Indicator string   `mapstructure:"indicator" yaml:"indicator"`
	Chart     string   `mapstructure:"chart"     yaml:"chart"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml
//  2. ~/.ratiodash/config.yaml
//  3. /etc/ratiodash/config.yaml
//
// Environment variables override config file values.
// Format: RATIODASH_<SECTION>_<KEY>, e.g., RATIODASH_SERVER_PORT
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".ratiodash"))
	v.AddConfigPath("/etc/ratiodash")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RATIODASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if len(cfg.Datasets) == 0 {
		cfg.Datasets = DefaultDatasets()
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all scalar config values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Session defaults
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.sweep_interval", "1m")
}

// DefaultDatasets returns the two dashboards served when the config file
// lists none.
func DefaultDatasets() []DatasetConfig {
	return []DatasetConfig{
		{
			Name:    "risk",
			Title:   "Finance in Motion Risk Analysis",
			Kind:    "risk",
			Path:    "data/FinMotionRisk.csv",
			Percent: true,
			Columns: ColumnConfig{Country: "Country", Bank: "Bank", Period: "Period"},
			Defaults: DefaultsConfig{
				Countries: []string{"El Salvador", "Guatemala", "Honduras"},
				Banks:     []string{"Banco Agricola, S.A.", "Banco Financiera Centroamericana, S.A.", "INDUSTRIAL, S. A."},
				Periods:   []string{"2022-Q3", "2021-Q4", "2020-Q4"},
				Category:  "Profitability",
				Indicator: "ROAA",
				Chart:     "bar",
			},
		},
		{
			Name:    "statements",
			Title:   "Financial Statements",
			Kind:    "statements",
			Path:    "data/FinancialStatements.csv",
			Columns: ColumnConfig{Bank: "Bank", Date: "Date"},
			Defaults: DefaultsConfig{
				Category:  "Balance Sheet",
				Indicator: "Total Assets",
				Chart:     "line",
			},
		},
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q: want text or json", c.Logging.Format)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be positive, got %s", c.Session.SweepInterval)
	}

	seen := make(map[string]bool, len(c.Datasets))
	for i, d := range c.Datasets {
		if d.Name == "" {
			return fmt.Errorf("datasets[%d]: name is required", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("datasets[%d]: duplicate name %q", i, d.Name)
		}
		seen[d.Name] = true
		if d.Path == "" {
			return fmt.Errorf("dataset %s: path is required", d.Name)
		}
		if d.Columns.Bank == "" {
			return fmt.Errorf("dataset %s: columns.bank is required", d.Name)
		}
		if (d.Columns.Period == "") == (d.Columns.Date == "") {
			return fmt.Errorf("dataset %s: set exactly one of columns.period and columns.date", d.Name)
		}
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
