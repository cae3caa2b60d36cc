package geoip

import (
	"context"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Provider wraps the GeoIP2 database reader to provide country lookup functionality.
type Provider struct {
	db       *geoip2.Reader
	resolver *net.Resolver
}

// Open initializes the GeoIP database reader from a specific file path.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	return &Provider{db: db, resolver: net.DefaultResolver}, nil
}

// Close closes the underlying GeoIP database reader.
func (p *Provider) Close() error {
	return p.db.Close()
}

func (p *Provider) countryCode(ip net.IP) string {
	record, err := p.db.Country(ip)
	if err != nil {
		return ""
	}

	return record.Country.IsoCode
}

// HostCountry resolves host to its first IPv4 address and returns the ISO
// country code (e.g. "US", "BR"), or "" when either step fails.
func (p *Provider) HostCountry(ctx context.Context, host string) string {
	ip, err := FirstIPv4(ctx, p.resolver, host)
	if err != nil {
		return ""
	}

	return p.countryCode(net.ParseIP(ip))
}

// FirstIPv4 returns host itself when it is an IPv4 literal, or the first IPv4 address it resolves to.
func FirstIPv4(ctx context.Context, r *net.Resolver, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil && ip.To4() != nil {
		return ip.String(), nil
	}

	addrs, err := r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", &net.DNSError{Err: "no IPv4 address", Name: host, IsNotFound: true}
	}

	return addrs[0].String(), nil
}
