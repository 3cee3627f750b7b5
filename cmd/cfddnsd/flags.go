package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/Travis-Britz/cfddns"
	"github.com/Travis-Britz/cfddns/internal/config"
	"github.com/Travis-Britz/cfddns/internal/logging"
)

// Every flag defaults to its CFDDNS_* environment variable when that is set.
func (a *app) bindFlags(fs *pflag.FlagSet) {
	o := &a.opts
	fs.StringVar(&o.SettingsFile, "settings", env("CFDDNS_SETTINGS", config.DefaultSettingsFile), "Path to the Cloudflare settings file (env CFDDNS_SETTINGS)")
	fs.StringVar(&o.CacheBackend, "cache-backend", env("CFDDNS_CACHE_BACKEND", config.CacheFile), "Where the last published IP is kept (file|redis) (env CFDDNS_CACHE_BACKEND)")
	fs.StringVar(&o.CacheFile, "cache-file", env("CFDDNS_CACHE_FILE", cfddns.DefaultCacheFile), "Cache file for the file backend (env CFDDNS_CACHE_FILE)")
	fs.StringVar(&o.RedisAddr, "redis-addr", env("CFDDNS_REDIS_ADDR", ""), "Redis address for the redis backend (env CFDDNS_REDIS_ADDR)")
	fs.StringVar(&o.RedisKey, "redis-key", env("CFDDNS_REDIS_KEY", cfddns.DefaultRedisKey), "Redis key holding the IP (env CFDDNS_REDIS_KEY)")
	fs.IntVar(&o.RedisDB, "redis-db", envInt("CFDDNS_REDIS_DB", 0), "Redis database number (env CFDDNS_REDIS_DB)")
	fs.DurationVar(&o.Interval, "interval", envDuration("CFDDNS_INTERVAL", cfddns.DefaultInterval), "Time between IP checks, at least 1m (env CFDDNS_INTERVAL)")
	fs.DurationVar(&o.Timeout, "timeout", envDuration("CFDDNS_TIMEOUT", 15*time.Second), "Timeout of each outbound HTTP call (env CFDDNS_TIMEOUT)")
	fs.StringSliceVar(&o.IPServices, "ip-service", envList("CFDDNS_IP_SERVICES"), "IP echo service URL, repeatable; tried in order (env CFDDNS_IP_SERVICES, comma separated)")
	fs.BoolVar(&o.StartupCacheReset, "reset-cache", envBool("CFDDNS_RESET_CACHE"), "Delete the cached IP before the first cycle (env CFDDNS_RESET_CACHE)")
	fs.StringVar(&o.OnConfigError, "on-config-error", env("CFDDNS_ON_CONFIG_ERROR", string(config.Fatal)), "What to do when the settings cannot be loaded (fatal|retry) (env CFDDNS_ON_CONFIG_ERROR)")
	fs.StringVar(&o.APIURL, "api-url", env("CFDDNS_API_URL", cfddns.DefaultAPIURL), "Cloudflare API base URL")
	fs.MarkHidden("api-url")

	// the redis password is only read from the environment
	o.RedisPassword = os.Getenv("CFDDNS_REDIS_PASSWORD")

	l := &a.log
	fs.StringVar(&l.Sink, "log-sink", env("CFDDNS_LOG_SINK", "console"), "Log destination (console|file|both) (env CFDDNS_LOG_SINK)")
	fs.StringVar(&l.File, "log-file", env("CFDDNS_LOG_FILE", logging.DefaultFile), "Log file for the file sinks (env CFDDNS_LOG_FILE)")
	fs.StringVar(&l.Level, "log-level", env("CFDDNS_LOG_LEVEL", "info"), "Log level (debug|info|warn|error) (env CFDDNS_LOG_LEVEL)")
	fs.StringVar(&l.Format, "log-format", env("CFDDNS_LOG_FORMAT", "text"), "Log format (text|json) (env CFDDNS_LOG_FORMAT)")
}

func env(envvar string, defaultvalue string) string {
	e, found := os.LookupEnv(envvar)
	if found {
		return e
	}
	return defaultvalue
}

func envDuration(envvar string, defaultvalue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(envvar)); err == nil {
		return d
	}
	return defaultvalue
}

func envInt(envvar string, defaultvalue int) int {
	if n, err := strconv.Atoi(os.Getenv(envvar)); err == nil {
		return n
	}
	return defaultvalue
}

func envBool(envvar string) bool {
	b, _ := strconv.ParseBool(os.Getenv(envvar))
	return b
}

func envList(envvar string) []string {
	var list []string
	for _, s := range strings.Split(os.Getenv(envvar), ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	return list
}
