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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	SMTP         SMTPConfig
	Stripe       StripeConfig
	Reconciler   ReconcilerConfig
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
	Env          string `envconfig:"CENCAD_APP_ENV" required:"true"`
	Port         string `envconfig:"CENCAD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CENCAD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CENCAD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CENCAD_DB_DSN"`
	Driver string `envconfig:"CENCAD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CENCAD_DB_HOST"`
	LegacyPort     int    `envconfig:"CENCAD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CENCAD_DB_USER"`
	LegacyPassword string `envconfig:"CENCAD_DB_PASSWORD"`
	LegacyName     string `envconfig:"CENCAD_DB_NAME"`
	LegacySSLMode  string `envconfig:"CENCAD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CENCAD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CENCAD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CENCAD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CENCAD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CENCAD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CENCAD_REDIS_ADDR"`
	Password     string        `envconfig:"CENCAD_REDIS_PASSWORD"`
	DB           int           `envconfig:"CENCAD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CENCAD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CENCAD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CENCAD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CENCAD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CENCAD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CENCAD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CENCAD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CENCAD_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CENCAD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CENCAD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CENCAD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CENCAD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CENCAD_ARGON_KEY_LEN" default:"32"`
}

type SMTPConfig struct {
	Host     string `envconfig:"CENCAD_SMTP_HOST"`
	Port     int    `envconfig:"CENCAD_SMTP_PORT" default:"587"`
	Username string `envconfig:"CENCAD_SMTP_USERNAME"`
	Password string `envconfig:"CENCAD_SMTP_PASSWORD"`
	From     string `envconfig:"CENCAD_SMTP_FROM" default:"no-reply@cencad.com"`
}

type StripeConfig struct {
	APIKey string `envconfig:"CENCAD_STRIPE_API_KEY"`
	Secret string `envconfig:"CENCAD_STRIPE_SECRET"`
	Env    string `envconfig:"CENCAD_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CENCAD_AUTO_MIGRATE" default:"false"`
}

type ReconcilerConfig struct {
	Interval  time.Duration `envconfig:"CENCAD_RECONCILER_INTERVAL" default:"10m"`
	BatchSize int           `envconfig:"CENCAD_RECONCILER_BATCH_SIZE" default:"200"`
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
