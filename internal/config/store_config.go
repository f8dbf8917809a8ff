package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverMemory   = "memory"
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"
)

type StoreConfig interface {
	GetStoreDriver() string
	GetMongoURI() string
	GetMongoDatabase() string
	GetDatabaseURL() string
	GetStoreTimeout() time.Duration
}

type Store struct {
	v *viper.Viper
}

var _ StoreConfig = Store{}

func (s Store) GetStoreDriver() string {
	return s.v.GetString(storeDriverVar)
}

func (s Store) GetMongoURI() string {
	return s.v.GetString(mongoURIVar)
}

func (s Store) GetMongoDatabase() string {
	return s.v.GetString(mongoDatabaseVar)
}

func (s Store) GetDatabaseURL() string {
	return s.v.GetString(databaseURLVar)
}

func (s Store) GetStoreTimeout() time.Duration {
	d, err := ParseDuration(s.v.GetString(storeTimeoutVar))
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
