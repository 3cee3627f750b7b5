package cfddns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultIPService is queried when no IP echo service is configured.
const DefaultIPService = "https://ipv4.icanhazip.com/"

const defaultLookupTimeout = 15 * time.Second

// WebResolver constructs a resolver which asks external web services for the caller's public IP address.
//
// Each serviceURL must speak http and return status "200 OK" with the address as the response body.
// The body is trimmed of surrounding whitespace and returned as is;
// it is not validated as an IP address.
//
// Services are tried in order and the first successful answer wins.
// With no serviceURL, DefaultIPService is used.
func WebResolver(serviceURL ...string) (Resolver, error) {
	if len(serviceURL) == 0 {
		serviceURL = []string{DefaultIPService}
	}
	var URLs []*url.URL
	for _, u := range serviceURL {
		pu, err := url.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("error parsing URL: %w", err)
		}
		if pu.Scheme != "http" && pu.Scheme != "https" {
			return nil, fmt.Errorf("unsupported scheme for IP service %q", u)
		}
		URLs = append(URLs, pu)
	}
	return &webResolver{serviceURLs: URLs}, nil
}

type webResolver struct {
	httpClient  *http.Client
	timeout     time.Duration
	serviceURLs []*url.URL
}

// Resolve implements cfddns.Resolver.
func (wr *webResolver) Resolve(ctx context.Context) (string, error) {
	if len(wr.serviceURLs) == 0 {
		return "", &ResolutionError{Service: "(none)", Err: errors.New("no external IP lookup services were provided")}
	}
	var errs []error
	for _, u := range wr.serviceURLs {
		ip, err := wr.lookup(ctx, u)
		if err == nil {
			return ip, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 1 {
		return "", errs[0]
	}
	return "", errors.Join(errs...)
}

func (wr *webResolver) lookup(ctx context.Context, u *url.URL) (string, error) {
	timeout := wr.timeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fail := func(err error) (string, error) {
		return "", &ResolutionError{Service: u.String(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fail(fmt.Errorf("error creating request: %w", err))
	}
	req.Header.Set("Cache-Control", "no-cache")

	httpclient := wr.httpClient
	if httpclient == nil {
		httpclient = http.DefaultClient
	}

	resp, err := httpclient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("http request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("http request returned %s", resp.Status))
	}

	// an echo service answers with a few bytes; anything past 1KiB is not an address
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return fail(fmt.Errorf("error reading response body: %w", err))
	}
	ip := strings.TrimSpace(string(body))
	if ip == "" {
		return fail(errors.New("empty response body"))
	}
	return ip, nil
}
