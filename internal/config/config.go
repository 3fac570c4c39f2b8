package config

type Config interface {
	EnvConfig
	BackendConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
}

type BackendConfig interface {
	GetAPIBaseURL() string
	GetAPIKey() string
	GetOIDCIssuer() string
	GetHTTPTimeoutSeconds() int
}

type mainConfig struct {
	EnvVars
	Backend
}

func New() Config {
	return mainConfig{}
}
