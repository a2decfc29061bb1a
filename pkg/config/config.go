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
	FeatureFlags FeatureFlagsConfig
	MakeCommerce MakeCommerceConfig
	IPLookup     IPLookupConfig
	Notifier     NotifierConfig
	Checkout     CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.MakeCommerce.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ELIDA_APP_ENV" required:"true"`
	Port         string `envconfig:"ELIDA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ELIDA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ELIDA_LOG_WARN_STACK" default:"false"`

	// PublicBaseURL is this API's externally reachable origin. The gateway's
	// return/cancel/notification callbacks are derived from it.
	PublicBaseURL string `envconfig:"ELIDA_PUBLIC_BASE_URL" required:"true"`

	// StorefrontBaseURL is where shoppers are redirected after reconciliation.
	StorefrontBaseURL string `envconfig:"ELIDA_STOREFRONT_BASE_URL" required:"true"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ELIDA_DB_DSN"`
	Driver string `envconfig:"ELIDA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ELIDA_DB_HOST"`
	LegacyPort     int    `envconfig:"ELIDA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ELIDA_DB_USER"`
	LegacyPassword string `envconfig:"ELIDA_DB_PASSWORD"`
	LegacyName     string `envconfig:"ELIDA_DB_NAME"`
	LegacySSLMode  string `envconfig:"ELIDA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ELIDA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ELIDA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ELIDA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ELIDA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ELIDA_REDIS_URL"`
	Address      string        `envconfig:"ELIDA_REDIS_ADDR"`
	Password     string        `envconfig:"ELIDA_REDIS_PASSWORD"`
	DB           int           `envconfig:"ELIDA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ELIDA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ELIDA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ELIDA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ELIDA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ELIDA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies bearer tokens issued by the storefront's auth service.
// Checkout works anonymously, so the secret is optional; without it every
// request is treated as unauthenticated.
type JWTConfig struct {
	Secret string `envconfig:"ELIDA_JWT_SECRET"`
	Issuer string `envconfig:"ELIDA_JWT_ISSUER" default:"elida-auth"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ELIDA_AUTO_MIGRATE" default:"false"`
}

// MakeCommerceConfig holds the gateway credentials. Both halves of the
// credential pair are process-wide and must be present at startup; they are
// never logged and never reach a browser-served bundle.
type MakeCommerceConfig struct {
	StoreID   string        `envconfig:"ELIDA_MAKECOMMERCE_STORE_ID" required:"true"`
	SecretKey string        `envconfig:"ELIDA_MAKECOMMERCE_SECRET_KEY" required:"true"`
	BaseURL   string        `envconfig:"ELIDA_MAKECOMMERCE_BASE_URL" default:"https://api.maksekeskus.ee"`
	Timeout   time.Duration `envconfig:"ELIDA_MAKECOMMERCE_TIMEOUT" default:"15s"`
	Country   string        `envconfig:"ELIDA_MAKECOMMERCE_COUNTRY" default:"LT"`
	Locale    string        `envconfig:"ELIDA_MAKECOMMERCE_LOCALE" default:"LT"`
}

func (m MakeCommerceConfig) validate() error {
	if strings.TrimSpace(m.StoreID) == "" || strings.TrimSpace(m.SecretKey) == "" {
		return fmt.Errorf("%s and %s are required", EnvMakeCommerceStoreID, EnvMakeCommerceSecretKey)
	}
	return nil
}

type IPLookupConfig struct {
	URL     string        `envconfig:"ELIDA_IP_LOOKUP_URL" default:"https://api64.ipify.org"`
	Timeout time.Duration `envconfig:"ELIDA_IP_LOOKUP_TIMEOUT" default:"5s"`
}

// NotifierConfig points at the downstream webhook consumer. An empty URL
// disables notification entirely.
type NotifierConfig struct {
	WebhookURL string        `envconfig:"ELIDA_NOTIFIER_WEBHOOK_URL"`
	Timeout    time.Duration `envconfig:"ELIDA_NOTIFIER_TIMEOUT" default:"10s"`
}

type CheckoutConfig struct {
	// MemberDiscountPercent is applied to the subtotal for authenticated
	// shoppers.
	MemberDiscountPercent int `envconfig:"ELIDA_MEMBER_DISCOUNT_PERCENT" default:"15"`
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
