package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Invitations   InvitationsConfig
	SMTP          SMTPConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"FOURMIS_APP_ENV" required:"true"`
	Port         string `envconfig:"FOURMIS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FOURMIS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FOURMIS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FOURMIS_DB_DSN"`
	Driver string `envconfig:"FOURMIS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FOURMIS_DB_HOST"`
	LegacyPort     int    `envconfig:"FOURMIS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FOURMIS_DB_USER"`
	LegacyPassword string `envconfig:"FOURMIS_DB_PASSWORD"`
	LegacyName     string `envconfig:"FOURMIS_DB_NAME"`
	LegacySSLMode  string `envconfig:"FOURMIS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FOURMIS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOURMIS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOURMIS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOURMIS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FOURMIS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FOURMIS_REDIS_ADDR"`
	Password     string        `envconfig:"FOURMIS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOURMIS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOURMIS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOURMIS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOURMIS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOURMIS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOURMIS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FOURMIS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FOURMIS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FOURMIS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"FOURMIS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FOURMIS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FOURMIS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FOURMIS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FOURMIS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FOURMIS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"FOURMIS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"FOURMIS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"FOURMIS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RedeemWindow     time.Duration `envconfig:"FOURMIS_AUTH_RATE_LIMIT_REDEEM_WINDOW" default:"5m"`
	RedeemTokenLimit int           `envconfig:"FOURMIS_AUTH_RATE_LIMIT_REDEEM_TOKEN_LIMIT" default:"3"`
	RedeemIPLimit    int           `envconfig:"FOURMIS_AUTH_RATE_LIMIT_REDEEM_IP_LIMIT" default:"20"`
}

type InvitationsConfig struct {
	// TTL bounds how long a redemption link stays valid after issuance.
	TTL          time.Duration `envconfig:"FOURMIS_INVITATION_TTL" default:"168h"`
	RedeemURL    string        `envconfig:"FOURMIS_INVITATION_REDEEM_URL" default:"https://app.fourmis.fr/invitations"`
	MaxBatchSize int           `envconfig:"FOURMIS_INVITATION_MAX_BATCH_SIZE" default:"100"`
}

// LinkFor builds the redemption URL embedding the bearer token as a path segment.
func (i InvitationsConfig) LinkFor(token string) string {
	return strings.TrimRight(i.RedeemURL, "/") + "/" + token
}

type SMTPConfig struct {
	Host     string `envconfig:"FOURMIS_SMTP_HOST"`
	Port     int    `envconfig:"FOURMIS_SMTP_PORT" default:"587"`
	User     string `envconfig:"FOURMIS_SMTP_USER"`
	Password string `envconfig:"FOURMIS_SMTP_PASSWORD"`
	From     string `envconfig:"FOURMIS_SMTP_FROM" default:"no-reply@fourmis.fr"`
}

// Enabled reports whether outbound mail is configured at all.
func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FOURMIS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FOURMIS_AUTO_MIGRATE" default:"false"`
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
