package config

import (
	"time"

	"github.com/spf13/viper"
)

type CookieConfig interface {
	GetRefreshCookieMaxAge() time.Duration
	GetRefreshCookiePath() string
}

type Cookies struct {
	v *viper.Viper
}

var _ CookieConfig = Cookies{}

func (c Cookies) GetRefreshCookieMaxAge() time.Duration {
	days := c.v.GetInt(cookieDaysVar)
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c Cookies) GetRefreshCookiePath() string {
	return c.v.GetString(cookiePathVar)
}
