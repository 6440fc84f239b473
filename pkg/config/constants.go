package config

const (
	EnvPrefix = "INKDROP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "INKDROP_DB_DSN"
	EnvDBHost = "INKDROP_DB_HOST"
	EnvDBUser = "INKDROP_DB_USER"
	EnvDBName = "INKDROP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
