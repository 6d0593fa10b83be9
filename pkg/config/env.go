package config

// EnvPrefix is passed to envconfig; every field carries its full variable name.
const EnvPrefix = "REFURBMART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv          = "REFURBMART_APP_ENV"
	EnvPort            = "REFURBMART_APP_PORT"
	EnvDBDSN           = "REFURBMART_DB_DSN"
	EnvDBHost          = "REFURBMART_DB_HOST"
	EnvDBUser          = "REFURBMART_DB_USER"
	EnvDBName          = "REFURBMART_DB_NAME"
	EnvUseSQLite       = "REFURBMART_USE_SQLITE"
	EnvJWTSecret       = "REFURBMART_JWT_SECRET"
	EnvJWTIssuer       = "REFURBMART_JWT_ISSUER"
	EnvCheckoutTaxRate = "REFURBMART_CHECKOUT_TAX_RATE"
	EnvShippingFee     = "REFURBMART_CHECKOUT_SHIPPING_FEE_CENTS"
)

const (
	SSLCommerzSandboxURL = "https://sandbox.sslcommerz.com"
	SSLCommerzLiveURL    = "https://securepay.sslcommerz.com"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
