package cfddns_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Travis-Britz/cfddns"
)

func echoServer(t *testing.T, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookup(t *testing.T) {
	srv := echoServer(t, "192.168.2.1\n")
	wr, err := cfddns.WebResolver(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	res, err := wr.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Request failed: %s", err)
	}
	if expected, got := "192.168.2.1", res; expected != got {
		t.Fatalf("Expected %q; got %q", expected, got)
	}
}

func TestLookupNotValidated(t *testing.T) {
	srv := echoServer(t, "  not an ip  \r\n")
	wr, _ := cfddns.WebResolver(srv.URL)
	res, err := wr.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Request failed: %s", err)
	}
	if expected, got := "not an ip", res; expected != got {
		t.Fatalf("Expected %q; got %q", expected, got)
	}
}

func TestLookupNoCache(t *testing.T) {
	var header atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header.Store(r.Header.Get("Cache-Control"))
		io.WriteString(w, "192.168.2.1")
	}))
	defer srv.Close()
	wr, _ := cfddns.WebResolver(srv.URL)
	if _, err := wr.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got, _ := header.Load().(string); got != "no-cache" {
		t.Fatalf("Expected Cache-Control: no-cache; got %q", got)
	}
}

func TestLookupFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "203.0.113.5", http.StatusServiceUnavailable)
		}},
		{"empty body", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, " \n")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			wr, _ := cfddns.WebResolver(srv.URL)
			res, err := wr.Resolve(context.Background())
			var rerr *cfddns.ResolutionError
			if !errors.As(err, &rerr) {
				t.Fatalf("Expected *ResolutionError; got %v", err)
			}
			if res != "" {
				t.Fatalf("Expected empty result; got %q", res)
			}
		})
	}
}

func TestLookupFallback(t *testing.T) {
	var hits atomic.Int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := echoServer(t, "10.0.0.10")

	wr, _ := cfddns.WebResolver(bad.URL, good.URL)
	res, err := wr.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %s", err)
	}
	if res != "10.0.0.10" {
		t.Fatalf("Expected %q; got %q", "10.0.0.10", res)
	}
	if hits.Load() != 1 {
		t.Fatalf("Expected the failing service to be tried once; got %d", hits.Load())
	}
}

func TestLookupAllFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()
	wr, _ := cfddns.WebResolver(bad.URL, bad.URL)
	_, err := wr.Resolve(context.Background())
	var rerr *cfddns.ResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected *ResolutionError; got %v", err)
	}
}

func TestLookupContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		io.WriteString(w, "192.168.2.1")
	}))
	defer srv.Close()
	wr, _ := cfddns.WebResolver(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := wr.Resolve(ctx); err == nil {
		t.Fatalf("Expected error after the deadline; got err == nil")
	}
}

func TestWebResolverBadURL(t *testing.T) {
	for _, u := range []string{"ftp://example.com/ip", "://nope"} {
		if _, err := cfddns.WebResolver(u); err == nil {
			t.Fatalf("Expected an error for %q", u)
		}
	}
}

func TestFromString(t *testing.T) {
	r, err := cfddns.FromString(" 203.0.113.5 ")
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.Resolve(context.Background())
	if err != nil || got != "203.0.113.5" {
		t.Fatalf("Expected 203.0.113.5; got %q (%v)", got, err)
	}
	if _, err := cfddns.FromString("   "); err == nil {
		t.Fatalf("Expected an error for an empty address")
	}
}
