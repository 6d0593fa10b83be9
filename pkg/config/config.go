package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	Payments     PaymentsConfig
	SSLCommerz   SSLCommerzConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.Tax(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REFURBMART_APP_ENV" required:"true"`
	Port         string `envconfig:"REFURBMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"REFURBMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REFURBMART_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"REFURBMART_LOG_FORMAT" default:"json"`
	// CORSOrigins is a comma separated list; the storefront URL is always allowed.
	CORSOrigins []string `envconfig:"REFURBMART_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"REFURBMART_DB_DSN"`
	Driver string `envconfig:"REFURBMART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"REFURBMART_DB_HOST"`
	Port     int    `envconfig:"REFURBMART_DB_PORT" default:"5432"`
	User     string `envconfig:"REFURBMART_DB_USER"`
	Password string `envconfig:"REFURBMART_DB_PASSWORD"`
	Name     string `envconfig:"REFURBMART_DB_NAME"`
	SSLMode  string `envconfig:"REFURBMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REFURBMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REFURBMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REFURBMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REFURBMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional; an empty URL and address disables request idempotency.
type RedisConfig struct {
	URL          string        `envconfig:"REFURBMART_REDIS_URL"`
	Address      string        `envconfig:"REFURBMART_REDIS_ADDR"`
	Password     string        `envconfig:"REFURBMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"REFURBMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REFURBMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REFURBMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REFURBMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REFURBMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REFURBMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret string `envconfig:"REFURBMART_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"REFURBMART_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"REFURBMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"REFURBMART_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig holds the pricing and fulfillment policy applied to every order.
type CheckoutConfig struct {
	ShippingFeeCents  int64         `envconfig:"REFURBMART_CHECKOUT_SHIPPING_FEE_CENTS" default:"999"`
	TaxRate           string        `envconfig:"REFURBMART_CHECKOUT_TAX_RATE" default:"0.08"`
	DeliveryLeadTime  time.Duration `envconfig:"REFURBMART_CHECKOUT_DELIVERY_LEAD_TIME" default:"168h"`
	GatewayTimeout    time.Duration `envconfig:"REFURBMART_CHECKOUT_GATEWAY_TIMEOUT" default:"15s"`
	OrderNumberPrefix string        `envconfig:"REFURBMART_CHECKOUT_ORDER_NUMBER_PREFIX" default:"ORD"`
}

// Tax parses the configured tax rate.
func (c CheckoutConfig) Tax() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", EnvCheckoutTaxRate, c.TaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be between 0 and 1, got %s", EnvCheckoutTaxRate, c.TaxRate)
	}
	return rate, nil
}

type PaymentsConfig struct {
	// DemoMode routes card and wallet payments to the always-success gateway.
	DemoMode bool   `envconfig:"REFURBMART_PAYMENTS_DEMO_MODE" default:"false"`
	Currency string `envconfig:"REFURBMART_PAYMENTS_CURRENCY" default:"BDT"`
}

type SSLCommerzConfig struct {
	StoreID         string `envconfig:"REFURBMART_SSLCOMMERZ_STORE_ID"`
	StorePassword   string `envconfig:"REFURBMART_SSLCOMMERZ_STORE_PASSWORD"`
	Sandbox         bool   `envconfig:"REFURBMART_SSLCOMMERZ_SANDBOX" default:"true"`
	BaseURL         string `envconfig:"REFURBMART_SSLCOMMERZ_BASE_URL"`
	CallbackBaseURL string `envconfig:"REFURBMART_SSLCOMMERZ_CALLBACK_BASE_URL" default:"http://localhost:8080"`
	FrontendURL     string `envconfig:"REFURBMART_FRONTEND_URL" default:"http://localhost:3000"`
}

// Configured reports whether store credentials were supplied.
func (s SSLCommerzConfig) Configured() bool {
	return s.StoreID != "" && s.StorePassword != ""
}

// Endpoint returns the gateway base URL, defaulting to the sandbox or live host.
func (s SSLCommerzConfig) Endpoint() string {
	if base := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/"); base != "" {
		return base
	}
	if s.Sandbox {
		return SSLCommerzSandboxURL
	}
	return SSLCommerzLiveURL
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if db.DSN != "" {
		return nil
	}
	if sqlite {
		db.DSN = "file:refurbmart.db?cache=shared"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
