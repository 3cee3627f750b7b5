package cfddns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var discard logrus.FieldLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// New constructs a Client that keeps the A records of domain's zone up to date.
//
// A provider must be registered, usually with UsingCloudflare.
// Without further options the client resolves its IP with WebResolver(DefaultIPService),
// caches it in FileCache{Path: DefaultCacheFile} and discards its logs.
func New(domain string, options ...ClientOption) (*Client, error) {
	if domain == "" {
		return nil, fmt.Errorf("cfddns.New: domain cannot be empty")
	}
	c := &Client{
		domain: domain,
		logger: discard,
	}
	for i, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("cfddns.New: option %d returned an error: %s", i, err)
		}
	}

	if c.provider == nil {
		return nil, fmt.Errorf("cfddns.New: no DNS provider was registered and there is no default option - use cfddns.UsingCloudflare or similar")
	}
	if c.resolver == nil {
		r, err := WebResolver()
		if err != nil {
			return nil, fmt.Errorf("cfddns.New: error creating default resolver: %w", err)
		}
		c.resolver = r
	}
	if c.cache == nil {
		c.cache = &FileCache{Path: DefaultCacheFile}
	}

	// options may arrive in any order, so dependencies only pick up the shared settings once all are registered
	c.propagate()
	return c, nil
}

// ClientOption configures a Client. See New.
type ClientOption func(*Client) error

// UsingCloudflare registers a Cloudflare provider built from creds.
func UsingCloudflare(creds Credentials, opts ...CloudflareOption) ClientOption {
	return func(c *Client) (err error) {
		if c.provider, err = NewCloudflare(creds, opts...); err != nil {
			return fmt.Errorf("cfddns.UsingCloudflare: error creating cloudflare DNS provider: %w", err)
		}
		return nil
	}
}

func UsingProvider(p Provider) ClientOption {
	return func(c *Client) error {
		if p == nil {
			return errors.New("provider cannot be nil")
		}
		c.provider = p
		return nil
	}
}

func UsingResolver(resolver Resolver) ClientOption {
	return func(c *Client) error {
		c.resolver = resolver
		return nil
	}
}

func UsingWebResolver(serviceURL ...string) ClientOption {
	return func(c *Client) (err error) {
		c.resolver, err = WebResolver(serviceURL...)
		return err
	}
}

func UsingCache(cache Cache) ClientOption {
	return func(c *Client) error {
		c.cache = cache
		return nil
	}
}

func UsingCacheFile(path string) ClientOption {
	return func(c *Client) error {
		c.cache = &FileCache{Path: path}
		return nil
	}
}

// UsingHTTPClient sets the HTTP client used by the built-in resolver and provider.
func UsingHTTPClient(httpclient *http.Client) ClientOption {
	return func(c *Client) error {
		c.httpClient = httpclient
		return nil
	}
}

// WithRequestTimeout bounds every outbound HTTP call. The default is 15 seconds.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive; got %s", d)
		}
		c.timeout = d
		return nil
	}
}

func WithLogger(logger logrus.FieldLogger) ClientOption {
	return func(c *Client) error {
		if logger == nil {
			logger = discard
		}
		c.logger = logger
		return nil
	}
}

func (c *Client) propagate() {
	type setLogger interface {
		SetLogger(logrus.FieldLogger)
	}
	type setHTTPClient interface {
		SetHTTPClient(*http.Client)
	}
	type setRequestTimeout interface {
		SetRequestTimeout(time.Duration)
	}

	if p, ok := c.provider.(setLogger); ok {
		p.SetLogger(c.logger)
	}
	if c.httpClient != nil {
		switch r := c.resolver.(type) {
		case *webResolver:
			r.httpClient = c.httpClient
		case setHTTPClient:
			r.SetHTTPClient(c.httpClient)
		}
		if p, ok := c.provider.(setHTTPClient); ok {
			p.SetHTTPClient(c.httpClient)
		}
	}
	if c.timeout > 0 {
		if r, ok := c.resolver.(*webResolver); ok {
			r.timeout = c.timeout
		}
		if p, ok := c.provider.(setRequestTimeout); ok {
			p.SetRequestTimeout(c.timeout)
		}
	}
}

// Client runs update cycles for a single domain.
type Client struct {
	resolver   Resolver
	provider   Provider
	cache      Cache
	httpClient *http.Client
	timeout    time.Duration
	logger     logrus.FieldLogger
	domain     string
}

// CycleReport describes what a cycle observed and did.
type CycleReport struct {
	IP       string
	Previous string // empty when nothing was cached
	Changed  bool
	ZoneID   string
	Results  []RecordResult
}

// RunCycle resolves the public IP and, if it differs from the cached one,
// caches it and updates every A record in the domain's zone.
//
// A cache failure is logged and never stops the update.
// Failed record updates do not stop their siblings; they are logged and summarised in the returned error.
func (c *Client) RunCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport
	log := c.logger.WithField("cycle", uuid.NewString())

	log.Info("getting external IP address")
	ip, err := c.resolver.Resolve(ctx)
	if err != nil {
		return report, fmt.Errorf("error getting IP: %w", err)
	}
	report.IP = ip
	log = log.WithField("ip", ip)
	log.Info("got external IP")

	changed, previous, err := HasChanged(ctx, c.cache, ip)
	report.Previous = previous
	if err != nil {
		log.WithError(err).WithField("op", "reading cached IP").Error("cache unavailable; treating IP as changed")
	}
	if !changed {
		log.Info("external IP has not changed")
		return report, nil
	}
	report.Changed = true
	log.WithField("previous", previous).Info("external IP changed")

	if err := c.cache.Write(ctx, ip); err != nil {
		log.WithError(err).WithField("op", "writing IP to cache").Error("cache write failed; continuing with update")
	} else {
		log.Debug("wrote IP to cache")
	}

	zid, err := c.provider.FindZoneID(ctx, c.domain)
	if err != nil {
		return report, fmt.Errorf("error finding zone for %s: %w", c.domain, err)
	}
	report.ZoneID = zid

	results, err := c.provider.UpdateZoneRecords(ctx, zid, ip)
	report.Results = results
	if err != nil {
		return report, fmt.Errorf("error updating records in zone %s: %w", zid, err)
	}
	if len(results) == 0 {
		log.WithField("zone", zid).Warn("zone has no A records to update")
		return report, nil
	}

	var errs []error
	for _, r := range results {
		rl := log.WithFields(logrus.Fields{"record": r.Record.ID, "name": r.Record.Name})
		var appErr *ApplicationError
		switch {
		case r.Err == nil:
			rl.Info("successfully updated DNS record")
			continue
		case errors.As(r.Err, &appErr):
			rl.WithError(r.Err).WithField("op", "updating DNS record").Error("PUT unsuccessful")
		default:
			rl.WithError(r.Err).WithField("op", "updating DNS record").Error("update failed")
		}
		errs = append(errs, r.Err)
	}
	if len(errs) > 0 {
		return report, fmt.Errorf("%d of %d record updates failed: %w", len(errs), len(results), errors.Join(errs...))
	}
	return report, nil
}

// ResetCache deletes the cached IP so the next cycle publishes unconditionally.
func (c *Client) ResetCache(ctx context.Context) error {
	c.logger.Info("deleting cached IP")
	return c.cache.Delete(ctx)
}
