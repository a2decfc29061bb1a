package config

const (
	EnvPrefix = "elida"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ELIDA_DB_DSN"
	EnvDBHost = "ELIDA_DB_HOST"
	EnvDBUser = "ELIDA_DB_USER"
	EnvDBName = "ELIDA_DB_NAME"

	EnvMakeCommerceStoreID   = "ELIDA_MAKECOMMERCE_STORE_ID"
	EnvMakeCommerceSecretKey = "ELIDA_MAKECOMMERCE_SECRET_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
