package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type TokenConfig interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

type Tokens struct {
	v *viper.Viper
}

var _ TokenConfig = Tokens{}

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 365 * 24 * time.Hour
)

func (t Tokens) GetAccessTokenSecret() string {
	return t.v.GetString(accessSecretVar)
}

func (t Tokens) GetRefreshTokenSecret() string {
	return t.v.GetString(refreshSecretVar)
}

func (t Tokens) GetAccessTokenTTL() time.Duration {
	d, err := t.accessTTL()
	if err != nil {
		return defaultAccessTTL
	}
	return d
}

func (t Tokens) GetRefreshTokenTTL() time.Duration {
	d, err := t.refreshTTL()
	if err != nil {
		return defaultRefreshTTL
	}
	return d
}

func (t Tokens) accessTTL() (time.Duration, error) {
	return parseTTL(accessTTLVar, t.v.GetString(accessTTLVar))
}

func (t Tokens) refreshTTL() (time.Duration, error) {
	return parseTTL(refreshTTLVar, t.v.GetString(refreshTTLVar))
}

// ParseDuration accepts everything time.ParseDuration does plus a whole number of
// days with a "d" suffix, e.g. "365d".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func parseTTL(name, value string) (time.Duration, error) {
	d, err := ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", name)
	}
	return d, nil
}
