package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Travis-Britz/cfddns"
	"github.com/Travis-Britz/cfddns/internal/config"
)

// openCache opens the configured cache backend. The closer is never nil.
func (a *app) openCache(ctx context.Context) (cfddns.Cache, io.Closer, error) {
	switch a.opts.CacheBackend {
	case config.CacheRedis:
		c, err := cfddns.DialRedisCache(ctx, a.opts.RedisAddr, a.opts.RedisPassword, a.opts.RedisDB, a.opts.RedisKey)
		if err != nil {
			return nil, nil, fmt.Errorf("opening redis cache: %w", err)
		}
		return c, c, nil
	default:
		return &cfddns.FileCache{Path: a.opts.CacheFile}, nopCloser{}, nil
	}
}

func (a *app) cloudflareOptions() []cfddns.CloudflareOption {
	var opts []cfddns.CloudflareOption
	if a.opts.APIURL != "" {
		opts = append(opts, cfddns.WithAPIURL(a.opts.APIURL))
	}
	return opts
}

// newClient loads the settings and builds a client around cache.
// A nil resolver selects the web resolver over the configured IP services.
func (a *app) newClient(cache cfddns.Cache, resolver cfddns.Resolver) (*cfddns.Client, error) {
	s, err := config.LoadSettings(a.opts.SettingsFile)
	if err != nil {
		return nil, err
	}
	a.logger.WithField("domain", s.Domain).Debug("loaded settings")

	clientOpts := []cfddns.ClientOption{
		cfddns.UsingCloudflare(s.Credentials(), a.cloudflareOptions()...),
		cfddns.UsingCache(cache),
		cfddns.WithLogger(a.logger),
	}
	if resolver != nil {
		clientOpts = append(clientOpts, cfddns.UsingResolver(resolver))
	} else if len(a.opts.IPServices) > 0 {
		clientOpts = append(clientOpts, cfddns.UsingWebResolver(a.opts.IPServices...))
	}
	if a.opts.Timeout > 0 {
		clientOpts = append(clientOpts, cfddns.WithRequestTimeout(a.opts.Timeout))
	}
	return cfddns.New(s.Domain, clientOpts...)
}

// lazyCycler builds its client on first use so that, under the retry policy,
// a configuration error only fails the current cycle.
type lazyCycler struct {
	a     *app
	cache cfddns.Cache

	mu     sync.Mutex
	client *cfddns.Client
}

func (l *lazyCycler) RunCycle(ctx context.Context) (cfddns.CycleReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client == nil {
		c, err := l.a.newClient(l.cache, nil)
		if err != nil {
			return cfddns.CycleReport{}, err
		}
		l.client = c
	}
	return l.client.RunCycle(ctx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
