package config

// EnvPrefix scopes every environment variable consumed by the platform.
const EnvPrefix = "CHANNELSYNC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "CHANNELSYNC_APP_ENV"
	EnvDBDSN  = "CHANNELSYNC_DB_DSN"
	EnvDBHost = "CHANNELSYNC_DB_HOST"
	EnvDBUser = "CHANNELSYNC_DB_USER"
	EnvDBName = "CHANNELSYNC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
