package config

import "time"

// Config provides all configuration required by the FacilityCare client.
type Config interface {
	EnvConfig
}

// EnvConfig exposes the environment-derived settings.
type EnvConfig interface {
	GetAPIBaseURL() string
	GetWSBaseURL() string
	GetCredentialsFile() string
	GetHTTPTimeout() time.Duration
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
