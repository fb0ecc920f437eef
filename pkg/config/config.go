package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "WEBTEMPLATE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	// DefaultAPIURL is the origin the API client targets when none is configured.
	DefaultAPIURL = "http://localhost:8001"

	EnvAppEnv       = "WEBTEMPLATE_APP_ENV"
	EnvAppPort      = "WEBTEMPLATE_APP_PORT"
	EnvWebPort      = "WEBTEMPLATE_WEB_PORT"
	EnvLogLevel     = "WEBTEMPLATE_LOG_LEVEL"
	EnvLogFormat    = "WEBTEMPLATE_LOG_FORMAT"
	EnvAPIURL       = "WEBTEMPLATE_API_URL"
	EnvBasePath     = "WEBTEMPLATE_BASE_PATH"
	EnvAPITimeout   = "WEBTEMPLATE_API_TIMEOUT"
	EnvDBDSN        = "WEBTEMPLATE_DB_DSN"
	EnvDBHost       = "WEBTEMPLATE_DB_HOST"
	EnvDBUser       = "WEBTEMPLATE_DB_USER"
	EnvDBName       = "WEBTEMPLATE_DB_NAME"
	EnvRedisURL     = "WEBTEMPLATE_REDIS_URL"
	EnvRateLimitReq = "WEBTEMPLATE_RATE_LIMIT_REQUESTS"
	EnvCORSOrigins  = "WEBTEMPLATE_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Web          WebConfig
	Client       ClientConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WEBTEMPLATE_APP_ENV" default:"development"`
	Port         string `envconfig:"WEBTEMPLATE_APP_PORT" default:"8001"`
	LogLevel     string `envconfig:"WEBTEMPLATE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"WEBTEMPLATE_LOG_FORMAT"`
	LogWarnStack bool   `envconfig:"WEBTEMPLATE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "dev")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "prod")
}

// Format picks the log format: explicit setting first, then console in dev and json elsewhere.
func (a AppConfig) Format() string {
	if f := strings.ToLower(strings.TrimSpace(a.LogFormat)); f != "" {
		return f
	}
	if a.IsProd() {
		return "json"
	}
	return "console"
}

type WebConfig struct {
	Port      string `envconfig:"WEBTEMPLATE_WEB_PORT" default:"3000"`
	StaticDir string `envconfig:"WEBTEMPLATE_WEB_STATIC_DIR" default:"web/static"`
}

// ClientConfig locates the backend the API client talks to.
type ClientConfig struct {
	APIURL   string        `envconfig:"WEBTEMPLATE_API_URL"`
	BasePath string        `envconfig:"WEBTEMPLATE_BASE_PATH"`
	Timeout  time.Duration `envconfig:"WEBTEMPLATE_API_TIMEOUT" default:"0s"`
}

// Origin returns the configured API origin, falling back to DefaultAPIURL when unset or empty.
func (c ClientConfig) Origin() string {
	if c.APIURL == "" {
		return DefaultAPIURL
	}
	return c.APIURL
}

type DBConfig struct {
	DSN    string `envconfig:"WEBTEMPLATE_DB_DSN"`
	Driver string `envconfig:"WEBTEMPLATE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WEBTEMPLATE_DB_HOST"`
	LegacyPort     int    `envconfig:"WEBTEMPLATE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WEBTEMPLATE_DB_USER"`
	LegacyPassword string `envconfig:"WEBTEMPLATE_DB_PASSWORD"`
	LegacyName     string `envconfig:"WEBTEMPLATE_DB_NAME"`
	LegacySSLMode  string `envconfig:"WEBTEMPLATE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WEBTEMPLATE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WEBTEMPLATE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WEBTEMPLATE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WEBTEMPLATE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	WaitTimeout     time.Duration `envconfig:"WEBTEMPLATE_DB_WAIT_TIMEOUT" default:"30s"`
}

// Enabled reports whether a database has been configured at all.
func (db DBConfig) Enabled() bool {
	return db.DSN != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"WEBTEMPLATE_REDIS_URL"`
	Address      string        `envconfig:"WEBTEMPLATE_REDIS_ADDR"`
	Password     string        `envconfig:"WEBTEMPLATE_REDIS_PASSWORD"`
	DB           int           `envconfig:"WEBTEMPLATE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WEBTEMPLATE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WEBTEMPLATE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WEBTEMPLATE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WEBTEMPLATE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WEBTEMPLATE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether redis has been configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WEBTEMPLATE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WEBTEMPLATE_AUTO_MIGRATE" default:"true"`
}

type RateLimitConfig struct {
	Window   time.Duration `envconfig:"WEBTEMPLATE_RATE_LIMIT_WINDOW" default:"1m"`
	Requests int           `envconfig:"WEBTEMPLATE_RATE_LIMIT_REQUESTS" default:"300"`
	// TrustProxy keys clients on forwarding headers; set it only behind a proxy that rewrites them.
	TrustProxy bool `envconfig:"WEBTEMPLATE_RATE_LIMIT_TRUST_PROXY" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"WEBTEMPLATE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	missing := []string{}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	// No database at all is a valid template setup.
	if len(missing) == len(legacyDBEnvVars) {
		return nil
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
