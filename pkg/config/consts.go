package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "FRESHBASKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "FRESHBASKET_DB_DSN"
	EnvDBHost = "FRESHBASKET_DB_HOST"
	EnvDBUser = "FRESHBASKET_DB_USER"
	EnvDBName = "FRESHBASKET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
