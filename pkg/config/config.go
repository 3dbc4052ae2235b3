package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Vault        VaultConfig
	Sync         SyncConfig
	Pricing      PricingConfig
	Inventory    InventoryConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CHANNELSYNC_APP_ENV" required:"true"`
	Port         string `envconfig:"CHANNELSYNC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHANNELSYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHANNELSYNC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CHANNELSYNC_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CHANNELSYNC_DB_DSN"`
	Driver string `envconfig:"CHANNELSYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHANNELSYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"CHANNELSYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHANNELSYNC_DB_USER"`
	LegacyPassword string `envconfig:"CHANNELSYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHANNELSYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHANNELSYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHANNELSYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHANNELSYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHANNELSYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHANNELSYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHANNELSYNC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CHANNELSYNC_REDIS_ADDR"`
	Password     string        `envconfig:"CHANNELSYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHANNELSYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHANNELSYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHANNELSYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHANNELSYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHANNELSYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHANNELSYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CHANNELSYNC_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CHANNELSYNC_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CHANNELSYNC_JWT_EXPIRATION_MINUTES" default:"60"`
}

type VaultConfig struct {
	Secret string `envconfig:"CHANNELSYNC_VAULT_SECRET" required:"true"`
}

type SyncConfig struct {
	PullInterval      time.Duration `envconfig:"CHANNELSYNC_SYNC_PULL_INTERVAL" default:"15m"`
	PushInterval      time.Duration `envconfig:"CHANNELSYNC_SYNC_PUSH_INTERVAL" default:"1h"`
	PushWindowDays    int           `envconfig:"CHANNELSYNC_SYNC_PUSH_WINDOW_DAYS" default:"90"`
	ChannelTimeout    time.Duration `envconfig:"CHANNELSYNC_SYNC_CHANNEL_TIMEOUT" default:"30s"`
	MaxFailures       int           `envconfig:"CHANNELSYNC_SYNC_MAX_FAILURES" default:"3"`
	DedupTTL          time.Duration `envconfig:"CHANNELSYNC_SYNC_DEDUP_TTL" default:"720h"`
	LogRetentionDays  int           `envconfig:"CHANNELSYNC_SYNC_LOG_RETENTION_DAYS" default:"90"`
	LogPruneInterval  time.Duration `envconfig:"CHANNELSYNC_SYNC_LOG_PRUNE_INTERVAL" default:"24h"`
	LockTTLMultiplier int           `envconfig:"CHANNELSYNC_SYNC_LOCK_TTL_MULTIPLIER" default:"2"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CHANNELSYNC_AUTO_MIGRATE" default:"false"`
}

type PricingConfig struct {
	TaxRatePercent float64 `envconfig:"CHANNELSYNC_PRICING_TAX_RATE_PERCENT" default:"7.0"`
	FeeRatePercent float64 `envconfig:"CHANNELSYNC_PRICING_FEE_RATE_PERCENT" default:"0.0"`
}

type InventoryConfig struct {
	SalesHorizonDays int `envconfig:"CHANNELSYNC_INVENTORY_SALES_HORIZON_DAYS" default:"365"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
