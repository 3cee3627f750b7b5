package cfddns_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeCloudflare is a minimal stand-in for the zones and dns_records endpoints of the v4 API.
type fakeCloudflare struct {
	t *testing.T

	zones   []map[string]any
	records []map[string]any

	zoneStatus int // zero means 200
	listStatus int
	putStatus  map[string]int  // by record id
	putFailure map[string]bool // by record id; 200 with success: false
	putDelay   time.Duration

	mu          sync.Mutex
	zoneQueries []string
	calls       []string
	puts        map[string][]map[string]any
	hdrs        []http.Header
	inflight    int
	maxInflight int
}

func newFakeCloudflare(t *testing.T) (*fakeCloudflare, *httptest.Server) {
	f := &fakeCloudflare{
		t:          t,
		putStatus:  map[string]int{},
		putFailure: map[string]bool{},
		puts:       map[string][]map[string]any{},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeCloudflare) record(method, path string, h http.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method+" "+path)
	f.hdrs = append(f.hdrs, h.Clone())
}

func (f *fakeCloudflare) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCloudflare) Headers() []http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]http.Header(nil), f.hdrs...)
}

func (f *fakeCloudflare) ZoneQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.zoneQueries...)
}

func (f *fakeCloudflare) Puts(id string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.puts[id]...)
}

// MaxInflight is the largest number of PUTs the fake served at the same time.
func (f *fakeCloudflare) MaxInflight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInflight
}

func (f *fakeCloudflare) count(method string, segments int) int {
	n := 0
	for _, c := range f.Calls() {
		m, path, _ := strings.Cut(c, " ")
		if m == method && len(strings.Split(strings.Trim(path, "/"), "/")) == segments {
			n++
		}
	}
	return n
}

func (f *fakeCloudflare) zoneLookups() int    { return f.count(http.MethodGet, 1) }
func (f *fakeCloudflare) recordListings() int { return f.count(http.MethodGet, 3) }
func (f *fakeCloudflare) recordUpdates() int  { return f.count(http.MethodPut, 4) }

func writeEnvelope(w http.ResponseWriter, status int, success bool, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	errs := []map[string]any{}
	if !success {
		errs = append(errs, map[string]any{"code": 1004, "message": "DNS Validation Error"})
	}
	json.NewEncoder(w).Encode(map[string]any{
		"success":  success,
		"errors":   errs,
		"messages": []any{},
		"result":   result,
	})
}

func (f *fakeCloudflare) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.record(r.Method, r.URL.Path, r.Header)
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.Method == http.MethodGet && len(parts) == 1 && parts[0] == "zones":
		f.mu.Lock()
		f.zoneQueries = append(f.zoneQueries, r.URL.Query().Get("name"))
		f.mu.Unlock()
		if f.zoneStatus != 0 && f.zoneStatus != http.StatusOK {
			writeEnvelope(w, f.zoneStatus, false, nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, f.zones)

	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "dns_records":
		if f.listStatus != 0 && f.listStatus != http.StatusOK {
			writeEnvelope(w, f.listStatus, false, nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, f.records)

	case r.Method == http.MethodPut && len(parts) == 4 && parts[2] == "dns_records":
		id := parts[3]
		body, _ := io.ReadAll(r.Body)
		var rec map[string]any
		if err := json.Unmarshal(body, &rec); err != nil {
			f.t.Errorf("PUT %s: body is not JSON: %v", r.URL.Path, err)
		}
		f.mu.Lock()
		f.puts[id] = append(f.puts[id], rec)
		f.inflight++
		if f.inflight > f.maxInflight {
			f.maxInflight = f.inflight
		}
		f.mu.Unlock()
		defer func() {
			f.mu.Lock()
			f.inflight--
			f.mu.Unlock()
		}()
		if f.putDelay > 0 {
			time.Sleep(f.putDelay)
		}

		if st := f.putStatus[id]; st != 0 && st != http.StatusOK {
			writeEnvelope(w, st, false, nil)
			return
		}
		if f.putFailure[id] {
			writeEnvelope(w, http.StatusOK, false, nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, rec)

	default:
		http.NotFound(w, r)
	}
}

func aRecord(id, name, content string) map[string]any {
	return map[string]any{
		"id":          id,
		"zone_id":     "zone-1",
		"zone_name":   "example.com",
		"type":        "A",
		"name":        name,
		"content":     content,
		"proxiable":   true,
		"proxied":     false,
		"ttl":         float64(120),
		"locked":      false,
		"modified_on": "2020-01-01T00:00:00Z",
	}
}
