package cfddns

import (
	"context"
	"errors"
	"strings"
)

// FromString constructs a resolver that always returns addr.
func FromString(addr string) (Resolver, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("address cannot be empty")
	}
	return stringResolver(addr), nil
}

type stringResolver string

func (s stringResolver) Resolve(context.Context) (string, error) {
	return string(s), nil
}
