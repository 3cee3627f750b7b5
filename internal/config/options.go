package config

import (
	"fmt"
	"strings"
	"time"
)

// MinInterval is the shortest interval the daemon accepts. Shorter values are raised to it.
const MinInterval = 1 * time.Minute

// ConfigErrorPolicy decides what the daemon does when its settings cannot be loaded.
type ConfigErrorPolicy string

const (
	// Fatal stops the process with a non-zero exit status.
	Fatal ConfigErrorPolicy = "fatal"
	// Retry logs the error and tries again on the next tick.
	Retry ConfigErrorPolicy = "retry"
)

func ParseConfigErrorPolicy(s string) (ConfigErrorPolicy, error) {
	switch p := ConfigErrorPolicy(strings.ToLower(s)); p {
	case Fatal, Retry:
		return p, nil
	}
	return "", fmt.Errorf("unknown config error policy %q (want fatal|retry)", s)
}

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Options are the daemon settings that do not carry secrets.
type Options struct {
	SettingsFile      string
	CacheBackend      string
	CacheFile         string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisKey          string
	Interval          time.Duration
	Timeout           time.Duration
	IPServices        []string
	StartupCacheReset bool
	OnConfigError     string
	APIURL            string
}

// Normalize fills defaults and validates the options.
// It returns the config error policy and, when the interval was raised to MinInterval, a warning.
func (o *Options) Normalize() (policy ConfigErrorPolicy, warning string, err error) {
	if o.OnConfigError == "" {
		o.OnConfigError = string(Fatal)
	}
	policy, err = ParseConfigErrorPolicy(o.OnConfigError)
	if err != nil {
		return "", "", &ConfigError{Err: err}
	}
	switch o.CacheBackend {
	case "":
		o.CacheBackend = CacheFile
	case CacheFile:
	case CacheRedis:
		if o.RedisAddr == "" {
			return "", "", &ConfigError{Err: fmt.Errorf("cache backend %q requires a redis address", CacheRedis)}
		}
	default:
		return "", "", &ConfigError{Err: fmt.Errorf("unknown cache backend %q (want %s|%s)", o.CacheBackend, CacheFile, CacheRedis)}
	}
	if o.Timeout < 0 {
		return "", "", &ConfigError{Err: fmt.Errorf("timeout must not be negative; got %s", o.Timeout)}
	}
	if o.Interval < MinInterval {
		warning = fmt.Sprintf("interval %s is below the minimum; using %s", o.Interval, MinInterval)
		o.Interval = MinInterval
	}
	return policy, warning, nil
}
