package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cart         CartConfig
	Catalog      CatalogConfig
	Storage      StorageConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN" required:"true"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the remote store runs on the embedded sqlite driver.
func (d DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(d.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
	// SnapshotTTL bounds how long an idle device cart survives in the cache. Zero keeps it forever.
	SnapshotTTL time.Duration `envconfig:"STOREFRONT_REDIS_SNAPSHOT_TTL" default:"720h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CartConfig struct {
	MaxLineQuantity int           `envconfig:"STOREFRONT_CART_MAX_LINE_QTY" default:"999"`
	PersistTimeout  time.Duration `envconfig:"STOREFRONT_CART_PERSIST_TIMEOUT" default:"3s"`
}

type CatalogConfig struct {
	DefaultPageSize int           `envconfig:"STOREFRONT_CATALOG_DEFAULT_PAGE_SIZE" default:"20"`
	MaxPageSize     int           `envconfig:"STOREFRONT_CATALOG_MAX_PAGE_SIZE" default:"100"`
	RefreshTTL      time.Duration `envconfig:"STOREFRONT_CATALOG_REFRESH_TTL" default:"5m"`
}

type StorageConfig struct {
	Backend        string `envconfig:"STOREFRONT_STORAGE_BACKEND" default:"redis"`
	MemoryCapacity int    `envconfig:"STOREFRONT_STORAGE_MEMORY_CAPACITY_BYTES" default:"5242880"`
}

// UsesMemory reports whether snapshots stay in process memory instead of redis.
func (s StorageConfig) UsesMemory() bool {
	return strings.EqualFold(strings.TrimSpace(s.Backend), StorageBackendMemory)
}

// RateLimitConfig throttles mutating requests per device and per client IP.
// A zero window disables throttling.
type RateLimitConfig struct {
	Window      time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_WINDOW" default:"1m"`
	DeviceLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_DEVICE" default:"120"`
	IPLimit     int           `envconfig:"STOREFRONT_RATE_LIMIT_IP" default:"600"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

func (c *Config) validate() error {
	driver := strings.ToLower(strings.TrimSpace(c.DB.Driver))
	if driver != DBDriverPostgres && driver != DBDriverSQLite {
		return fmt.Errorf("%s must be %q or %q", EnvDBDriver, DBDriverPostgres, DBDriverSQLite)
	}

	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch backend {
	case StorageBackendMemory:
		if c.App.IsProd() {
			return fmt.Errorf("%s=%q is not allowed in %s", EnvStorageBackend, StorageBackendMemory, AppEnvProd)
		}
	case StorageBackendRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis storage backend", EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("%s must be %q or %q", EnvStorageBackend, StorageBackendRedis, StorageBackendMemory)
	}

	if c.Cart.MaxLineQuantity <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartMaxLineQty)
	}
	if c.Catalog.DefaultPageSize <= 0 || c.Catalog.MaxPageSize < c.Catalog.DefaultPageSize {
		return fmt.Errorf("catalog page sizes must satisfy 0 < default <= max")
	}
	return nil
}
