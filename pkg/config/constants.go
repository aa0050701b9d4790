package config

// EnvPrefix is intentionally empty: every field names its variable explicitly.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "FOURMIS_APP_ENV"
	EnvPort       = "FOURMIS_APP_PORT"
	EnvDBDSN      = "FOURMIS_DB_DSN"
	EnvDBHost     = "FOURMIS_DB_HOST"
	EnvDBUser     = "FOURMIS_DB_USER"
	EnvDBName     = "FOURMIS_DB_NAME"
	EnvRedisURL   = "FOURMIS_REDIS_URL"
	EnvJWTSecret  = "FOURMIS_JWT_SECRET"
	EnvJWTIssuer  = "FOURMIS_JWT_ISSUER"
	EnvJWTExpMins = "FOURMIS_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
