package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/samber/lo"
)

// Public resolvers raced when the system resolver cannot find the
// coordinator, which happens on some captive and corporate networks.
var publicDNS = []string{
	"1.1.1.1",
	"1.0.0.1",
	"8.8.8.8",
	"8.8.4.4",
	"9.9.9.9",
	"[2606:4700:4700::1111]",
	"[2001:4860:4860::8888]",
}

var (
	localTimeout  = time.Second
	publicTimeout = 2 * time.Second
)

// Resolve returns an address for host. IP literals are returned as is; names
// go to the system resolver first and then to public resolvers.
func Resolve(ctx context.Context, host string) (string, error) {
	if net.ParseIP(host) != nil {
		return host, nil
	}

	local, cancel := context.WithTimeout(ctx, localTimeout)
	defer cancel()
	if ip, err := lookup(local, net.DefaultResolver, host); err == nil {
		return ip, nil
	}
	return racePublic(ctx, host, publicDNS)
}

// Dialer wraps d so that host names are resolved with Resolve.
func Dialer(d *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		ip, err := Resolve(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", host, err)
		}
		return d.DialContext(ctx, network, net.JoinHostPort(ip, port))
	}
}

func racePublic(ctx context.Context, host string, servers []string) (string, error) {
	type result struct {
		ip  string
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, publicTimeout)
	defer cancel()

	results := make(chan result, len(servers))
	for _, server := range servers {
		go func() {
			ip, err := lookup(ctx, via(server), host)
			results <- result{ip, err}
		}()
	}

	var errs []error
	for range servers {
		select {
		case r := <-results:
			if r.err == nil {
				return r.ip, nil
			}
			errs = append(errs, r.err)
		case <-ctx.Done():
			return "", fmt.Errorf("public DNS lookup for %s: %w", host, ctx.Err())
		}
	}
	return "", fmt.Errorf("all %d public resolvers failed for %s: %w", len(servers), host, errors.Join(errs...))
}

// via returns a resolver that only talks to server on port 53.
func via(server string) *net.Resolver {
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(server, "53"))
		},
	}
}

func lookup(ctx context.Context, r *net.Resolver, host string) (string, error) {
	ips, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errors.New("no addresses")
	}
	// Prefer IPv4
	if v4, ok := lo.Find(ips, func(ip string) bool { return net.ParseIP(ip).To4() != nil }); ok {
		return v4, nil
	}
	return ips[0], nil
}
