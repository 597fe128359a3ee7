// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/rc-medicall/backend/internal/storage/models"
)

type Environment string

const (
	EnvLocal      Environment = "local"
	EnvDev        Environment = "dev"
	EnvProduction Environment = "production"
)

// Cache backends for the offline snapshot store.
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendRedis  = "redis"
)

type Config struct {
	App struct {
		Version  string      `env:"APP_VERSION" envDefault:"dev"`
		Env      Environment `env:"APP_ENV" envDefault:"local"`
		Timezone string      `env:"APP_TIMEZONE" envDefault:"America/Mexico_City"`
	}

	HTTP struct {
		Addr      string `env:"HTTP_ADDR" envDefault:":8099"`
		StaticDir string `env:"HTTP_STATIC_DIR" envDefault:"./static"`
	}

	Store struct {
		Addr    string `env:"STORE_ADDR" envDefault:":8098"`
		DataDir string `env:"STORE_DATA_DIR" envDefault:"/data"`
	}

	Remote struct {
		BaseURL        string        `env:"REMOTE_BASE_URL" envDefault:"http://localhost:8098"`
		StartupTimeout time.Duration `env:"REMOTE_STARTUP_TIMEOUT" envDefault:"8s"`
		RequestTimeout time.Duration `env:"REMOTE_REQUEST_TIMEOUT" envDefault:"15s"`
		ReadRetries    int           `env:"REMOTE_READ_RETRIES" envDefault:"1"`
	}

	Sync struct {
		Interval      time.Duration `env:"SYNC_INTERVAL" envDefault:"60s"`
		CacheVersion  string        `env:"SYNC_CACHE_VERSION" envDefault:"v5"`
		OutboxBuffer  int           `env:"SYNC_OUTBOX_BUFFER" envDefault:"256"`
		WriteAttempts int           `env:"SYNC_WRITE_ATTEMPTS" envDefault:"1"`
		WriteBackoff  time.Duration `env:"SYNC_WRITE_BACKOFF" envDefault:"500ms"`
	}

	Cache struct {
		Backend        string `env:"CACHE_BACKEND" envDefault:"sqlite"`
		RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		RedisPassword  string `env:"REDIS_PASSWORD"`
		RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
		ProjectionSize int    `env:"CACHE_PROJECTION_SIZE" envDefault:"128"`
	}

	Calendar struct {
		WeekStart string   `env:"CALENDAR_WEEK_START" envDefault:"monday"`
		DayStart  string   `env:"CALENDAR_DAY_START" envDefault:"08:00"`
		DayEnd    string   `env:"CALENDAR_DAY_END" envDefault:"20:00"`
		CitaSlots []string `env:"CALENDAR_CITA_SLOTS" envSeparator:"," envDefault:"09:00,16:00"`
	}

	Log struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
	}
}

// NewConfig parses the environment and validates the result.
func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.App.Env = Environment(strings.ToLower(string(cfg.App.Env)))
	cfg.Cache.Backend = strings.ToLower(cfg.Cache.Backend)
	cfg.Calendar.WeekStart = strings.ToLower(cfg.Calendar.WeekStart)
	for i, s := range cfg.Calendar.CitaSlots {
		cfg.Calendar.CitaSlots[i] = strings.TrimSpace(s)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	if _, err := c.WeekStart(); err != nil {
		return err
	}
	if !models.ValidTime(c.Calendar.DayStart) || !models.ValidTime(c.Calendar.DayEnd) {
		return fmt.Errorf("invalid business window %q-%q", c.Calendar.DayStart, c.Calendar.DayEnd)
	}
	if c.Calendar.DayStart >= c.Calendar.DayEnd {
		return fmt.Errorf("business window start %s must be before end %s", c.Calendar.DayStart, c.Calendar.DayEnd)
	}
	if len(c.Calendar.CitaSlots) == 0 {
		return fmt.Errorf("at least one appointment slot is required")
	}
	for _, s := range c.Calendar.CitaSlots {
		if !models.ValidTime(s) {
			return fmt.Errorf("invalid appointment slot %q", s)
		}
	}
	if c.Remote.StartupTimeout <= 0 || c.Remote.RequestTimeout <= 0 {
		return fmt.Errorf("remote timeouts must be positive")
	}
	if c.Remote.ReadRetries < 0 {
		return fmt.Errorf("remote read retries must not be negative")
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync interval must be positive")
	}
	if c.Sync.CacheVersion == "" {
		return fmt.Errorf("cache version is required")
	}
	if c.Sync.OutboxBuffer <= 0 || c.Sync.WriteAttempts <= 0 {
		return fmt.Errorf("outbox buffer and write attempts must be positive")
	}
	switch c.Cache.Backend {
	case CacheBackendSQLite, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.ProjectionSize <= 0 {
		return fmt.Errorf("projection cache size must be positive")
	}
	return nil
}

// WeekStart returns the configured first day of the week.
func (c *Config) WeekStart() (time.Weekday, error) {
	switch c.Calendar.WeekStart {
	case "monday":
		return time.Monday, nil
	case "sunday":
		return time.Sunday, nil
	}
	return 0, fmt.Errorf("invalid week start %q: expected monday or sunday", c.Calendar.WeekStart)
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsLocal() bool {
	return c.App.Env == EnvLocal
}
