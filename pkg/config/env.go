package config

// EnvPrefix is passed to envconfig.Process; individual fields carry fully
// qualified envconfig tags, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "CENCAD_APP_ENV"
	EnvPort     = "CENCAD_APP_PORT"
	EnvLogLevel = "CENCAD_LOG_LEVEL"

	EnvDBDSN     = "CENCAD_DB_DSN"
	EnvDBHost    = "CENCAD_DB_HOST"
	EnvDBPort    = "CENCAD_DB_PORT"
	EnvDBUser    = "CENCAD_DB_USER"
	EnvDBPass    = "CENCAD_DB_PASSWORD"
	EnvDBName    = "CENCAD_DB_NAME"
	EnvDBSSLMode = "CENCAD_DB_SSLMODE"

	EnvRedisURL = "CENCAD_REDIS_URL"

	EnvJWTSecret  = "CENCAD_JWT_SECRET"
	EnvJWTIssuer  = "CENCAD_JWT_ISSUER"
	EnvJWTExpMins = "CENCAD_JWT_EXPIRATION_MINUTES"

	EnvStripeAPIKey = "CENCAD_STRIPE_API_KEY"
	EnvStripeSecret = "CENCAD_STRIPE_SECRET"
)

// legacyDBEnvVars are the discrete connection fields that must all be present
// when CENCAD_DB_DSN is not set.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
