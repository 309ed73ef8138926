package core

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// Resolver translates between host names and IPv4 addresses.
type Resolver interface {
	// LookupIPv4 returns the first IPv4 address of host. Literal addresses are returned as is.
	LookupIPv4(ctx context.Context, host string) (net.IP, error)

	// LookupName returns a display name for ip, or the address itself when none is found.
	LookupName(ctx context.Context, ip net.IP) string
}

type netResolver struct {
	resolver *net.Resolver
}

// NewResolver returns a Resolver using the system's name resolution.
func NewResolver() Resolver {
	return &netResolver{resolver: net.DefaultResolver}
}

func (r *netResolver) LookupIPv4(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if !isIPv4(ip) {
			return nil, fmt.Errorf("%s is not an IPv4 address", host)
		}
		return ip.To4(), nil
	}

	ips, err := r.resolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no IPv4 address found for %s", host)
	}

	return ips[0].To4(), nil
}

func (r *netResolver) LookupName(ctx context.Context, ip net.IP) string {
	names, err := r.resolver.LookupAddr(ctx, ip.String())
	if err != nil || len(names) == 0 {
		return ip.String()
	}
	return strings.TrimSuffix(names[0], ".")
}
