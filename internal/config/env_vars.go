package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	portEnvVar  = "PORT"
	appNameVar  = "APP_NAME"
	envVar      = "ENV"
	logLevelVar = "LOG_LEVEL"

	accessSecretVar   = "JWT_SECRET"
	refreshSecretVar  = "JWT_REFRESH_SECRET"
	accessTTLVar      = "ACCESS_TOKEN_TTL"
	refreshTTLVar     = "REFRESH_TOKEN_TTL"
	cookieDaysVar     = "REFRESH_COOKIE_DAYS"
	cookiePathVar     = "REFRESH_COOKIE_PATH"
	clientOriginsVar  = "CLIENT_ORIGINS"
	storeDriverVar    = "STORE_DRIVER"
	mongoURIVar       = "MONGO_URI"
	mongoDatabaseVar  = "MONGO_DATABASE"
	databaseURLVar    = "DATABASE_URL"
	storeTimeoutVar   = "STORE_TIMEOUT"
	productionEnvName = "production"
)

var defaults = map[string]any{
	portEnvVar:       "8080",
	appNameVar:       "Session Server",
	envVar:           "DEV",
	logLevelVar:      "info",
	accessTTLVar:     "15m",
	refreshTTLVar:    "365d",
	cookieDaysVar:    365,
	cookiePathVar:    "/api/auth",
	clientOriginsVar: "http://localhost:3000,http://localhost:5173,http://localhost:5000",
	storeDriverVar:   StoreDriverMemory,
	mongoDatabaseVar: "sessions",
	storeTimeoutVar:  "5s",
}

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.v.GetString(portEnvVar)
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameVar)
}

func (e EnvVars) GetEnv() string {
	env := e.v.GetString(envVar)
	if env == "" {
		return "DEV"
	}
	return env
}

func (e EnvVars) IsProduction() bool {
	return strings.EqualFold(e.GetEnv(), productionEnvName)
}

func (e EnvVars) GetLogLevel() string {
	return e.v.GetString(logLevelVar)
}
