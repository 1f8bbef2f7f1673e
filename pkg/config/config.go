package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "sanabel"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SANABEL_DB_DSN"
	EnvDBHost = "SANABEL_DB_HOST"
	EnvDBUser = "SANABEL_DB_USER"
	EnvDBName = "SANABEL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Gateway GatewayConfig
	Webhook WebhookConfig
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
	Env          string `envconfig:"SANABEL_APP_ENV" required:"true"`
	Port         string `envconfig:"SANABEL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SANABEL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SANABEL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SANABEL_DB_DSN"`
	Driver string `envconfig:"SANABEL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SANABEL_DB_HOST"`
	LegacyPort     int    `envconfig:"SANABEL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SANABEL_DB_USER"`
	LegacyPassword string `envconfig:"SANABEL_DB_PASSWORD"`
	LegacyName     string `envconfig:"SANABEL_DB_NAME"`
	LegacySSLMode  string `envconfig:"SANABEL_DB_SSLMODE" default:"disable"`

	AutoMigrate bool `envconfig:"SANABEL_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"SANABEL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SANABEL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SANABEL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SANABEL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SANABEL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SANABEL_REDIS_ADDR"`
	Password     string        `envconfig:"SANABEL_REDIS_PASSWORD"`
	DB           int           `envconfig:"SANABEL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SANABEL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SANABEL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SANABEL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SANABEL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SANABEL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// GatewayConfig holds credentials for the hosted payment link provider.
type GatewayConfig struct {
	BaseURL   string        `envconfig:"SANABEL_GATEWAY_BASE_URL" required:"true"`
	APIKey    string        `envconfig:"SANABEL_GATEWAY_API_KEY" required:"true"`
	Provider  string        `envconfig:"SANABEL_GATEWAY_PROVIDER" default:"upay"`
	Currency  string        `envconfig:"SANABEL_GATEWAY_CURRENCY" default:"KWD"`
	ReturnURL string        `envconfig:"SANABEL_GATEWAY_RETURN_URL" required:"true"`
	Timeout   time.Duration `envconfig:"SANABEL_GATEWAY_TIMEOUT" default:"15s"`
}

type WebhookConfig struct {
	DedupeTTL time.Duration `envconfig:"SANABEL_WEBHOOK_DEDUPE_TTL" default:"72h"`
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
