package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	apiURLVar          = "FACILITYCARE_API_URL"
	wsURLVar           = "FACILITYCARE_WS_URL"
	credentialsFileVar = "FACILITYCARE_CREDENTIALS_FILE"
	httpTimeoutVar     = "FACILITYCARE_HTTP_TIMEOUT"
	appNameVar         = "FACILITYCARE_APP_NAME"

	defaultHTTPTimeout = 30 * time.Second
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiURLVar, "http://localhost:8000/api")
}

func (EnvVars) GetWSBaseURL() string {
	return GetEnv(wsURLVar, "ws://localhost:8000/ws")
}

// GetCredentialsFile returns the path used to persist the token pair across
// process restarts. Defaults to a file under the user config directory.
func (EnvVars) GetCredentialsFile() string {
	if file := os.Getenv(credentialsFileVar); file != "" {
		return file
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "facilitycare", "credentials.json")
}

func (EnvVars) GetHTTPTimeout() time.Duration {
	value := os.Getenv(httpTimeoutVar)
	if value == "" {
		return defaultHTTPTimeout
	}
	timeout, err := time.ParseDuration(value)
	if err != nil || timeout <= 0 {
		return defaultHTTPTimeout
	}
	return timeout
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "FacilityCare")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
