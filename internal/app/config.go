package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/pcmm-backend/internal/modules/pcmm/progress"
	"github.com/yungbote/pcmm-backend/internal/observability"
	"github.com/yungbote/pcmm-backend/internal/platform/envutil"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
	"github.com/yungbote/pcmm-backend/internal/platform/nodecache"
	"github.com/yungbote/pcmm-backend/internal/services"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

type Config struct {
	Env     string `yaml:"env"`
	LogMode string `yaml:"log_mode"`

	HTTP     HTTPConfig                  `yaml:"http"`
	Database DatabaseConfig              `yaml:"database"`
	Cache    CacheConfig                 `yaml:"cache"`
	Tag      TagConfig                   `yaml:"tag"`
	Progress progress.Weights            `yaml:"progress"`
	Otel     observability.OtelConfig    `yaml:"otel"`
	Metrics  observability.MetricsConfig `yaml:"metrics"`
}

type HTTPConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	// DefaultUser is used when a request carries no X-PCMM-User header.
	DefaultUser string `yaml:"default_user"`
	DefaultRole string `yaml:"default_role"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	Path        string `yaml:"path"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type CacheConfig struct {
	Driver string                `yaml:"driver"`
	Redis  nodecache.RedisConfig `yaml:"redis"`
}

type TagConfig struct {
	// RepairOnStart settles interrupted tag runs when the server boots.
	RepairOnStart bool `yaml:"repair_on_start"`
	// RepairOlderThan is how long a run must go without a heartbeat before
	// Repair treats it as abandoned. Every process sharing the database must
	// use a value of at least minRepairOlderThan.
	RepairOlderThan time.Duration `yaml:"repair_older_than"`
	// RepairInterval paces the background repair worker; zero disables it.
	RepairInterval time.Duration `yaml:"repair_interval"`
}

func DefaultConfig() Config {
	return Config{
		Env:     "development",
		LogMode: "development",
		HTTP: HTTPConfig{
			Addr:        ":8080",
			DefaultRole: "analyst",
		},
		Database: DatabaseConfig{
			Driver:      DriverSQLite,
			Path:        "data/pcmm.db",
			AutoMigrate: true,
		},
		Cache:    CacheConfig{Driver: CacheMemory},
		Tag:      TagConfig{RepairOnStart: true, RepairOlderThan: 2 * time.Minute, RepairInterval: 5 * time.Minute},
		Progress: progress.DefaultWeights(),
		Otel:     observability.OtelConfig{ServiceName: "pcmm", SampleRatio: 0.1},
		Metrics:  observability.MetricsConfig{ScrapeInterval: 15 * time.Second},
	}
}

// LoadConfig layers defaults, the YAML file named by PCMM_CONFIG_FILE (or
// path when non-empty), then environment variables.
func LoadConfig(log *logger.Logger, path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = envutil.String("PCMM_CONFIG_FILE", "")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		if log != nil {
			log.Info("config file loaded", "path", path)
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("PCMM_ENV", cfg.Env)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)

	cfg.HTTP.Addr = envutil.String("PCMM_HTTP_ADDR", cfg.HTTP.Addr)
	if raw := envutil.String("PCMM_CORS_ORIGINS", ""); raw != "" {
		cfg.HTTP.CORSOrigins = splitList(raw)
	}
	cfg.HTTP.DefaultUser = envutil.String("PCMM_DEFAULT_USER", cfg.HTTP.DefaultUser)
	cfg.HTTP.DefaultRole = envutil.String("PCMM_DEFAULT_ROLE", cfg.HTTP.DefaultRole)

	cfg.Database.Driver = envutil.String("PCMM_DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = envutil.String("PCMM_DB_DSN", cfg.Database.DSN)
	cfg.Database.Path = envutil.String("PCMM_DB_PATH", cfg.Database.Path)
	cfg.Database.AutoMigrate = envutil.Bool("PCMM_DB_AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.Cache.Driver = envutil.String("PCMM_CACHE_DRIVER", cfg.Cache.Driver)
	cfg.Cache.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Cache.Redis.Addr)
	cfg.Cache.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Cache.Redis.Password)
	cfg.Cache.Redis.DB = envutil.Int("REDIS_DB", cfg.Cache.Redis.DB)
	cfg.Cache.Redis.Prefix = envutil.String("PCMM_CACHE_PREFIX", cfg.Cache.Redis.Prefix)
	cfg.Cache.Redis.TTL = envutil.Duration("PCMM_CACHE_TTL", cfg.Cache.Redis.TTL)

	cfg.Tag.RepairOnStart = envutil.Bool("PCMM_TAG_REPAIR_ON_START", cfg.Tag.RepairOnStart)
	cfg.Tag.RepairOlderThan = envutil.Duration("PCMM_TAG_REPAIR_OLDER_THAN", cfg.Tag.RepairOlderThan)
	cfg.Tag.RepairInterval = envutil.Duration("PCMM_TAG_REPAIR_INTERVAL", cfg.Tag.RepairInterval)

	cfg.Progress.Evidence = envutil.Int("PCMM_WEIGHT_EVIDENCE", cfg.Progress.Evidence)
	cfg.Progress.Assessment = envutil.Int("PCMM_WEIGHT_ASSESSMENT", cfg.Progress.Assessment)
	cfg.Progress.Planning = envutil.Int("PCMM_WEIGHT_PLANNING", cfg.Progress.Planning)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.Environment = cfg.Env
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Otel.SampleRatio)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Otel.Headers)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)

	cfg.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Addr = envutil.String("METRICS_ADDR", cfg.Metrics.Addr)
	cfg.Metrics.ScrapeInterval = envutil.Duration("METRICS_SCRAPE_INTERVAL", cfg.Metrics.ScrapeInterval)
}

// minRepairOlderThan leaves room for three missed run heartbeats.
const minRepairOlderThan = 3 * services.RunHeartbeat

func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Cache.Driver {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			return fmt.Errorf("cache driver redis requires an address")
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Progress.Evidence < 0 || c.Progress.Assessment < 0 || c.Progress.Planning < 0 {
		return fmt.Errorf("progress weights must not be negative")
	}
	if c.Tag.RepairOlderThan < minRepairOlderThan {
		return fmt.Errorf("tag repair_older_than must be at least %s", minRepairOlderThan)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
