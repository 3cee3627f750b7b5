package cfddns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/sirupsen/logrus"
)

// DefaultAPIURL is the base of the Cloudflare v4 REST API.
const DefaultAPIURL = "https://api.cloudflare.com/client/v4"

const defaultRequestTimeout = 15 * time.Second

// DefaultConcurrency is the number of record updates a provider keeps in flight at once.
const DefaultConcurrency = 8

// Credentials authenticate against the Cloudflare API.
//
// Either APIToken, or APIKey together with Email, must be set.
// The token wins when both are present.
type Credentials struct {
	APIKey   string
	Email    string
	APIToken string
}

func (c Credentials) validate() error {
	if c.APIToken != "" {
		return nil
	}
	if c.APIKey == "" || c.Email == "" {
		return errors.New("an API token, or an API key and account email, are required")
	}
	return nil
}

func (c Credentials) apply(h http.Header) {
	h.Set("Content-Type", "application/json")
	if c.APIToken != "" {
		h.Set("Authorization", "Bearer "+c.APIToken)
		return
	}
	h.Set("X-Auth-Key", c.APIKey)
	h.Set("X-Auth-Email", c.Email)
}

// CloudflareOption configures a Cloudflare provider.
type CloudflareOption func(*Cloudflare)

// WithAPIURL points the provider at a different API base, e.g. a test server.
func WithAPIURL(baseURL string) CloudflareOption {
	return func(cf *Cloudflare) {
		cf.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithClock replaces the clock used to stamp modified_on.
func WithClock(now func() time.Time) CloudflareOption {
	return func(cf *Cloudflare) {
		cf.now = now
	}
}

// WithConcurrency limits how many record updates run at once. Values below 1 are ignored.
func WithConcurrency(n int) CloudflareOption {
	return func(cf *Cloudflare) {
		if n > 0 {
			cf.concurrency = n
		}
	}
}

// NewCloudflare constructs a Cloudflare provider.
func NewCloudflare(creds Credentials, opts ...CloudflareOption) (*Cloudflare, error) {
	if err := creds.validate(); err != nil {
		return nil, fmt.Errorf("cfddns.NewCloudflare: %w", err)
	}
	cf := &Cloudflare{
		baseURL:     DefaultAPIURL,
		creds:       creds,
		timeout:     defaultRequestTimeout,
		logger:      discard,
		now:         time.Now,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(cf)
	}
	return cf, nil
}

// Cloudflare implements cfddns.Provider against the Cloudflare v4 API.
//
// It should be constructed using NewCloudflare.
type Cloudflare struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	timeout    time.Duration
	logger     logrus.FieldLogger
	now        func() time.Time

	concurrency int
}

func (cf *Cloudflare) SetLogger(l logrus.FieldLogger) { cf.logger = l }

func (cf *Cloudflare) SetHTTPClient(c *http.Client) { cf.httpClient = c }

func (cf *Cloudflare) SetRequestTimeout(d time.Duration) {
	if d > 0 {
		cf.timeout = d
	}
}

type apiResponse struct {
	cloudflare.Response
	Result json.RawMessage `json:"result"`
}

// do sends one API request and decodes the response envelope.
// Transport errors, non-200 statuses and undecodable bodies are returned as *ProviderError.
func (cf *Cloudflare) do(ctx context.Context, op, method, path string, body any) (*apiResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, cf.timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &ProviderError{Op: op, Err: fmt.Errorf("marshal request body: %w", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, cf.baseURL+path, bodyReader)
	if err != nil {
		return nil, &ProviderError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	cf.creds.apply(req.Header)

	httpclient := cf.httpClient
	if httpclient == nil {
		httpclient = http.DefaultClient
	}
	resp, err := httpclient.Do(req)
	if err != nil {
		return nil, &ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	var ar apiResponse
	decodeErr := json.Unmarshal(respBody, &ar)

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("bad response code (%s)", resp.Status)
		if decodeErr == nil && len(ar.Errors) > 0 {
			err = fmt.Errorf("bad response code (%s): %s", resp.Status, formatResponseInfo(ar.Errors))
		}
		return nil, &ProviderError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if decodeErr != nil {
		return nil, &ProviderError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("parse response: %w", decodeErr)}
	}
	return &ar, nil
}

// FindZoneID returns the ID of the zone the API lists first for domain.
//
// Multiple matching zones are not disambiguated: the first result wins.
func (cf *Cloudflare) FindZoneID(ctx context.Context, domain string) (string, error) {
	const op = "getting zone"
	cf.logger.WithField("domain", domain).Debug("looking up zone")

	ar, err := cf.do(ctx, op, http.MethodGet, "/zones?name="+url.QueryEscape(domain), nil)
	if err != nil {
		return "", err
	}
	var zones []cloudflare.Zone
	if err := json.Unmarshal(ar.Result, &zones); err != nil {
		return "", &ProviderError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("parse zones: %w", err)}
	}
	if len(zones) == 0 {
		return "", &ProviderError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("%w for %q", ErrNoZone, domain)}
	}
	if len(zones) > 1 {
		cf.logger.WithFields(logrus.Fields{"domain": domain, "zones": len(zones)}).
			Warn("more than one zone matched; using the first")
	}
	zid := zones[0].ID
	if zid == "" {
		return "", &ProviderError{Op: op, StatusCode: http.StatusOK, Err: errors.New("zone has no id")}
	}
	cf.logger.WithFields(logrus.Fields{"domain": domain, "zone": zid}).Info("got zone ID")
	return zid, nil
}

// ListDNSRecords returns every record in the zone.
func (cf *Cloudflare) ListDNSRecords(ctx context.Context, zoneID string) ([]DNSRecord, error) {
	const op = "getting DNS records"
	ar, err := cf.do(ctx, op, http.MethodGet, "/zones/"+url.PathEscape(zoneID)+"/dns_records?per_page=5000", nil)
	if err != nil {
		return nil, err
	}
	var records []DNSRecord
	if err := json.Unmarshal(ar.Result, &records); err != nil {
		return nil, &ProviderError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("parse records: %w", err)}
	}
	cf.logger.WithFields(logrus.Fields{"zone": zoneID, "records": len(records)}).Debug("listed DNS records")
	return records, nil
}

// UpdateDNSRecord writes rec back to the API as a full replacement.
//
// A 200 response whose body reports success: false is returned as *ApplicationError.
func (cf *Cloudflare) UpdateDNSRecord(ctx context.Context, zoneID string, rec DNSRecord) error {
	op := fmt.Sprintf("updating DNS record %s", rec.ID)
	path := "/zones/" + url.PathEscape(zoneID) + "/dns_records/" + url.PathEscape(rec.ID)
	ar, err := cf.do(ctx, op, http.MethodPut, path, rec)
	if err != nil {
		return err
	}
	if !ar.Success {
		return &ApplicationError{Op: op, Errors: ar.Errors}
	}
	return nil
}

// UpdateZoneRecords points every A record in the zone at ip.
//
// Updates are sent concurrently, at most WithConcurrency at a time,
// and all of them are attempted even when some fail.
// The returned results follow the order of the listing.
// Only a failure to list the records is returned as an error.
func (cf *Cloudflare) UpdateZoneRecords(ctx context.Context, zoneID string, ip string) ([]RecordResult, error) {
	records, err := cf.ListDNSRecords(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	aRecords := FilterRecords(records, "A")
	cf.logger.WithFields(logrus.Fields{"zone": zoneID, "a_records": len(aRecords)}).Info("updating DNS records")

	modified := cf.now().UTC().Format(time.RFC3339Nano)
	results := make([]RecordResult, len(aRecords))
	sem := make(chan struct{}, cf.concurrency)
	var wg sync.WaitGroup
	for i, r := range aRecords {
		r.Content = ip
		r.ModifiedOn = modified
		results[i].Record = r

		wg.Add(1)
		go func(i int, r DNSRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i].Err = cf.UpdateDNSRecord(ctx, zoneID, r)
		}(i, r)
	}
	wg.Wait()
	return results, nil
}

// Verify checks the credentials with the API and returns a short description of the authenticated identity.
func (cf *Cloudflare) Verify(ctx context.Context) (string, error) {
	opts := []cloudflare.Option{cloudflare.BaseURL(cf.baseURL)}
	if cf.httpClient != nil {
		opts = append(opts, cloudflare.HTTPClient(cf.httpClient))
	}

	ctx, cancel := context.WithTimeout(ctx, cf.timeout)
	defer cancel()

	if cf.creds.APIToken != "" {
		api, err := cloudflare.NewWithAPIToken(cf.creds.APIToken, opts...)
		if err != nil {
			return "", fmt.Errorf("error creating cloudflare api client: %w", err)
		}
		result, err := api.VerifyAPIToken(ctx)
		if err != nil {
			return "", fmt.Errorf("unable to verify api token: %w", err)
		}
		if result.Status != "active" {
			return "", fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", result.Status)
		}
		return fmt.Sprintf("api token %s", result.ID), nil
	}

	api, err := cloudflare.New(cf.creds.APIKey, cf.creds.Email, opts...)
	if err != nil {
		return "", fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	user, err := api.UserDetails(ctx)
	if err != nil {
		return "", fmt.Errorf("unable to verify api key: %w", err)
	}
	return fmt.Sprintf("user %s", user.Email), nil
}
