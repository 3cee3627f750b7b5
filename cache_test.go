package cfddns_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Travis-Britz/cfddns"
)

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c := &cfddns.FileCache{Path: filepath.Join(t.TempDir(), "ipFile")}

	if _, ok, err := c.Read(ctx); ok || err != nil {
		t.Fatalf("Expected absent value on first read; got ok=%v err=%v", ok, err)
	}
	if err := c.Delete(ctx); err != nil {
		t.Fatalf("Expected deleting a missing cache to succeed; got %s", err)
	}

	for _, ip := range []string{"203.0.113.5", "198.51.100.7"} {
		if err := c.Write(ctx, ip); err != nil {
			t.Fatalf("Write failed: %s", err)
		}
		got, ok, err := c.Read(ctx)
		if err != nil || !ok {
			t.Fatalf("Read failed: ok=%v err=%v", ok, err)
		}
		if got != ip {
			t.Fatalf("Expected %q; got %q", ip, got)
		}
		data, _ := os.ReadFile(c.Path)
		if string(data) != ip {
			t.Fatalf("Expected file content %q; got %q", ip, data)
		}
	}

	if err := c.Delete(ctx); err != nil {
		t.Fatalf("Delete failed: %s", err)
	}
	if _, ok, _ := c.Read(ctx); ok {
		t.Fatalf("Expected absent value after delete")
	}
}

func TestFileCacheReadTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ipFile")
	if err := os.WriteFile(path, []byte("  203.0.113.5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, ok, err := (&cfddns.FileCache{Path: path}).Read(context.Background())
	if err != nil || !ok || got != "203.0.113.5" {
		t.Fatalf("Expected trimmed value; got %q ok=%v err=%v", got, ok, err)
	}
}

func TestFileCacheErrors(t *testing.T) {
	dir := t.TempDir()
	// a directory cannot be read or written as a file
	c := &cfddns.FileCache{Path: dir}
	var perr *cfddns.PersistenceError
	if _, _, err := c.Read(context.Background()); !errors.As(err, &perr) {
		t.Fatalf("Expected *PersistenceError from Read; got %v", err)
	}
	if err := c.Write(context.Background(), "203.0.113.5"); !errors.As(err, &perr) {
		t.Fatalf("Expected *PersistenceError from Write; got %v", err)
	}
}

type memCache struct {
	ip       string
	ok       bool
	readErr  error
	writeErr error
	writes   []string
}

func (m *memCache) Read(context.Context) (string, bool, error) { return m.ip, m.ok, m.readErr }
func (m *memCache) Write(_ context.Context, ip string) error {
	m.writes = append(m.writes, ip)
	if m.writeErr != nil {
		return m.writeErr
	}
	m.ip, m.ok = ip, true
	return nil
}
func (m *memCache) Delete(context.Context) error { m.ip, m.ok = "", false; return nil }

func TestHasChanged(t *testing.T) {
	tests := []struct {
		name         string
		cached       *string
		ip           string
		wantChanged  bool
		wantPrevious string
	}{
		{name: "no cache", cached: nil, ip: "203.0.113.5", wantChanged: true},
		{name: "equal", cached: ptr("203.0.113.5"), ip: "203.0.113.5", wantChanged: false, wantPrevious: "203.0.113.5"},
		{name: "equal after trimming", cached: ptr("203.0.113.5\n"), ip: " 203.0.113.5", wantChanged: false, wantPrevious: "203.0.113.5"},
		{name: "different", cached: ptr("198.51.100.7"), ip: "203.0.113.5", wantChanged: true, wantPrevious: "198.51.100.7"},
		{name: "prefix", cached: ptr("203.0.113.5"), ip: "203.0.113.50", wantChanged: true, wantPrevious: "203.0.113.5"},
		{name: "case differs", cached: ptr("abc"), ip: "ABC", wantChanged: true, wantPrevious: "abc"},
		{name: "empty cached value", cached: ptr(""), ip: "203.0.113.5", wantChanged: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &memCache{}
			if tt.cached != nil {
				c.ip, c.ok = *tt.cached, true
			}
			changed, previous, err := cfddns.HasChanged(context.Background(), c, tt.ip)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if changed != tt.wantChanged || previous != tt.wantPrevious {
				t.Fatalf("Expected (%v, %q); got (%v, %q)", tt.wantChanged, tt.wantPrevious, changed, previous)
			}
		})
	}
}

func TestHasChangedReadError(t *testing.T) {
	c := &memCache{readErr: &cfddns.PersistenceError{Op: "read", Location: "test", Err: errors.New("boom")}}
	changed, _, err := cfddns.HasChanged(context.Background(), c, "203.0.113.5")
	if err == nil {
		t.Fatalf("Expected the read error to be returned")
	}
	if !changed {
		t.Fatalf("Expected an unreadable cache to count as changed")
	}
}

func ptr(s string) *string { return &s }
