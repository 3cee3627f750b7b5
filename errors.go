package cfddns

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/cloudflare-go"
)

// ErrNoZone is wrapped by the ProviderError returned when a zone listing has no results.
var ErrNoZone = errors.New("no zone found")

// ResolutionError is returned when the public IP could not be discovered.
type ResolutionError struct {
	Service string
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving IP via %s: %s", e.Service, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ProviderError is returned for a failed DNS provider call:
// transport failure, unexpected HTTP status, or a body that could not be understood.
type ProviderError struct {
	Op         string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ApplicationError is returned when the provider answered 200 OK but reported success: false.
type ApplicationError struct {
	Op     string
	Errors []cloudflare.ResponseInfo
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s: unsuccessful: %s", e.Op, formatResponseInfo(e.Errors))
}

// PersistenceError is returned when the cache store could not be read, written or deleted.
type PersistenceError struct {
	Op       string
	Location string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Location, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func formatResponseInfo(infos []cloudflare.ResponseInfo) string {
	if len(infos) == 0 {
		return "unknown error"
	}
	msgs := make([]string, 0, len(infos))
	for _, i := range infos {
		msgs = append(msgs, fmt.Sprintf("[%d] %s", i.Code, i.Message))
	}
	return strings.Join(msgs, ", ")
}
