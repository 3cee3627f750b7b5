package cfddns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// InterfaceResolver constructs a resolver that returns the first IPv4 address reported by the given interfaces.
// If no interfaces are provided then all interfaces will be searched, but loopback addresses will be skipped.
//
// It is meant for hosts that hold their public address directly, such as a router or a VPS without NAT.
func InterfaceResolver(iface ...string) Resolver {
	return interfaceResolver{ifaces: iface}
}

type interfaceResolver struct {
	ifaces []string
}

func (r interfaceResolver) Resolve(ctx context.Context) (string, error) {
	addrs, err := r.addrs()
	if err != nil {
		return "", &ResolutionError{Service: r.service(), Err: err}
	}
	for _, a := range addrs {
		// addr: ip+net:192.168.86.253/24
		// addr: ip+net:fe80::2cc9:801b:3551:9a43/64
		p, err := netip.ParsePrefix(a.String())
		if err != nil {
			continue
		}
		if ip := p.Addr(); ip.Is4() && !ip.IsLoopback() {
			return ip.String(), nil
		}
	}
	return "", &ResolutionError{Service: r.service(), Err: errors.New("no IPv4 address found")}
}

func (r interfaceResolver) addrs() ([]net.Addr, error) {
	if len(r.ifaces) == 0 {
		adds, err := net.InterfaceAddrs()
		if err != nil {
			return nil, fmt.Errorf("error getting addresses for interfaces: %w", err)
		}
		return adds, nil
	}
	var all []net.Addr
	var errs []error
	for _, name := range r.ifaces {
		iface, err := net.InterfaceByName(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("error getting interface %s by name: %w", name, err))
			continue
		}
		a, err := iface.Addrs()
		if err != nil {
			errs = append(errs, fmt.Errorf("error looking up addresses for interface %s: %w", name, err))
			continue
		}
		all = append(all, a...)
	}
	if len(all) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return all, nil
}

func (r interfaceResolver) service() string {
	if len(r.ifaces) == 0 {
		return "local interfaces"
	}
	return fmt.Sprintf("interfaces %v", r.ifaces)
}
