// Package config loads and validates scanner configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all scanner configuration knobs loaded via Viper.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Scan    ScanConfig    `mapstructure:"scan"`
	DB      DBConfig      `mapstructure:"db"`
	Server  ServerConfig  `mapstructure:"server"`
	Report  ReportConfig  `mapstructure:"report"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CatalogConfig points at the site and the card lists to walk.
type CatalogConfig struct {
	BaseURL string      `mapstructure:"base_url"`
	Sets    []SetConfig `mapstructure:"sets"`
}

// SetConfig describes one expansion: its display name, the code stamped into
// slugs, the catalog file on disk, and an optional URL path segment.
type SetConfig struct {
	Name string `mapstructure:"name"`
	Code string `mapstructure:"code"`
	File string `mapstructure:"file"`
	Path string `mapstructure:"path"`
}

// ProbeConfig governs the HTTP prober and its backoff behavior.
type ProbeConfig struct {
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	RateLimitCooldown time.Duration `mapstructure:"rate_limit_cooldown"`
	BlockedCooldown   time.Duration `mapstructure:"blocked_cooldown"`
	MaxCooldown       time.Duration `mapstructure:"max_cooldown"`
	InvalidMarker     string        `mapstructure:"invalid_marker"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	RespectRobots     bool          `mapstructure:"respect_robots"`
}

// ScanConfig controls the scan loop and checkpoint placement.
type ScanConfig struct {
	DataDir   string        `mapstructure:"data_dir"`
	Store     string        `mapstructure:"store"`
	DelayMin  time.Duration `mapstructure:"delay_min"`
	DelayMax  time.Duration `mapstructure:"delay_max"`
	BaseCheck bool          `mapstructure:"base_check"`
}

// DBConfig controls access to the relational database when scan.store
// selects the postgres backend.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// ServerConfig controls the optional status HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// ReportConfig names the report outputs.
type ReportConfig struct {
	Readme string `mapstructure:"readme"`
	JSON   string `mapstructure:"json"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CARDSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("cardscan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.base_url", "https://www.cardmarket.com/en/Pokemon/Products/Singles")
	v.SetDefault("probe.user_agent", "cardvariant-finder/1.0 (+https://github.com/FedeDC512/pokemon-cardvariant-finder)")
	v.SetDefault("probe.timeout", "20s")
	v.SetDefault("probe.max_attempts", 5)
	v.SetDefault("probe.rate_limit_cooldown", "30s")
	v.SetDefault("probe.blocked_cooldown", "3m")
	v.SetDefault("probe.max_cooldown", "10m")
	v.SetDefault("probe.invalid_marker", "Invalid product")
	v.SetDefault("probe.requests_per_second", 0.5)
	v.SetDefault("probe.burst", 1)
	v.SetDefault("probe.respect_robots", false)
	v.SetDefault("scan.data_dir", "data")
	v.SetDefault("scan.store", "file")
	v.SetDefault("scan.delay_min", "3s")
	v.SetDefault("scan.delay_max", "5s")
	v.SetDefault("scan.base_check", true)
	v.SetDefault("db.max_open_conns", 4)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("report.readme", "README.md")
	v.SetDefault("report.json", "variant_report.json")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Catalog.BaseURL); err != nil {
		return fmt.Errorf("catalog.base_url must be a valid URL: %w", err)
	}
	if len(c.Catalog.Sets) == 0 {
		return fmt.Errorf("catalog.sets must list at least one set")
	}
	for i, s := range c.Catalog.Sets {
		if s.Name == "" || s.Code == "" || s.File == "" {
			return fmt.Errorf("catalog.sets[%d] must set name, code and file", i)
		}
	}
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("probe.timeout must be > 0")
	}
	if c.Probe.MaxAttempts <= 0 {
		return fmt.Errorf("probe.max_attempts must be > 0")
	}
	if c.Probe.RateLimitCooldown <= 0 {
		return fmt.Errorf("probe.rate_limit_cooldown must be > 0")
	}
	if c.Probe.BlockedCooldown <= 0 {
		return fmt.Errorf("probe.blocked_cooldown must be > 0")
	}
	if c.Probe.MaxCooldown < c.Probe.RateLimitCooldown || c.Probe.MaxCooldown < c.Probe.BlockedCooldown {
		return fmt.Errorf("probe.max_cooldown must not undercut the per-signal cooldowns")
	}
	if c.Probe.RequestsPerSecond <= 0 {
		return fmt.Errorf("probe.requests_per_second must be > 0")
	}
	if c.Probe.Burst <= 0 {
		return fmt.Errorf("probe.burst must be > 0")
	}
	if c.Scan.DataDir == "" {
		return fmt.Errorf("scan.data_dir must be set")
	}
	switch c.Scan.Store {
	case "file", "sqlite", "postgres":
	default:
		return fmt.Errorf("scan.store must be one of file, sqlite, postgres")
	}
	if c.Scan.Store == "postgres" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when scan.store is postgres")
	}
	if c.Scan.DelayMin < 0 {
		return fmt.Errorf("scan.delay_min must be >= 0")
	}
	if c.Scan.DelayMax < c.Scan.DelayMin {
		return fmt.Errorf("scan.delay_max must be >= scan.delay_min")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	if c.Report.Readme == "" || c.Report.JSON == "" {
		return fmt.Errorf("report.readme and report.json must be set")
	}
	return nil
}
