package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	TokenConfig
	CookieConfig
	CorsConfig
	StoreConfig
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsProduction() bool
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Tokens
	Cookies
	Cors
	Store
}

// New builds a Config from the process environment only.
func New() Config {
	return newFromViper(newViper())
}

// Load builds a Config from the environment, merged over configFile when one is given,
// and validates it.
func Load(configFile string) (Config, error) {
	v := newViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config.Load read %s: %w", configFile, err)
		}
	}
	c := newFromViper(v)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func newFromViper(v *viper.Viper) mainConfig {
	return mainConfig{
		EnvVars: EnvVars{v: v},
		Tokens:  Tokens{v: v},
		Cookies: Cookies{v: v},
		Cors:    Cors{v: v},
		Store:   Store{v: v},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

func (c mainConfig) Validate() error {
	if c.GetAccessTokenSecret() == "" {
		return fmt.Errorf("config: %s is required", accessSecretVar)
	}
	if c.GetRefreshTokenSecret() == "" {
		return fmt.Errorf("config: %s is required", refreshSecretVar)
	}
	if c.GetAccessTokenSecret() == c.GetRefreshTokenSecret() {
		return fmt.Errorf("config: %s and %s must differ", accessSecretVar, refreshSecretVar)
	}
	if _, err := c.accessTTL(); err != nil {
		return err
	}
	if _, err := c.refreshTTL(); err != nil {
		return err
	}
	switch c.GetStoreDriver() {
	case StoreDriverMemory:
	case StoreDriverMongo:
		if c.GetMongoURI() == "" {
			return fmt.Errorf("config: %s is required for the mongo store", mongoURIVar)
		}
	case StoreDriverPostgres:
		if c.GetDatabaseURL() == "" {
			return fmt.Errorf("config: %s is required for the postgres store", databaseURLVar)
		}
	default:
		return fmt.Errorf("config: unknown %s %q", storeDriverVar, c.GetStoreDriver())
	}
	return nil
}
