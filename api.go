package cfddns

import (
	"context"
)

// Resolver discovers the address that DNS records should point at.
type Resolver interface {
	Resolve(context.Context) (string, error)
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(context.Context) (string, error)

func (f ResolverFunc) Resolve(ctx context.Context) (string, error) {
	return f(ctx)
}

// Provider locates the zone owning a domain and rewrites the address records inside it.
type Provider interface {
	FindZoneID(ctx context.Context, domain string) (string, error)
	UpdateZoneRecords(ctx context.Context, zoneID string, ip string) ([]RecordResult, error)
}

// Cache holds the last address that was published.
//
// Read reports ok == false when nothing has been stored yet.
type Cache interface {
	Read(ctx context.Context) (ip string, ok bool, err error)
	Write(ctx context.Context, ip string) error
	Delete(ctx context.Context) error
}

// Cycler runs one resolve, detect, update pass.
type Cycler interface {
	RunCycle(ctx context.Context) (CycleReport, error)
}
