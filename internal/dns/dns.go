package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rankidang/seo-crawler/internal/links"
)

// ErrInvalidDomain is returned before any network call when the domain does
// not reduce to a usable root.
var ErrInvalidDomain = errors.New("invalid domain format")

// Resolver is the narrow slice of net.Resolver the service needs. Tests
// substitute a fake to count and script lookups.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
}

// LookupError wraps a resolver failure with the domain it was for.
type LookupError struct {
	Domain string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("dns lookup for %q: %v", e.Domain, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// RecordSet is the full diagnostic record set for a domain. Every slice is
// best-effort: a failed lookup for one type leaves it empty.
type RecordSet struct {
	A     []string   `json:"a"`
	AAAA  []string   `json:"aaaa"`
	MX    []string   `json:"mx"`
	TXT   [][]string `json:"txt"`
	NS    []string   `json:"ns"`
	CNAME []string   `json:"cname"`
}

// Service resolves DNS records for domain verification and diagnostics.
type Service struct {
	resolver Resolver
}

// NewService creates a DNS service. A nil resolver falls back to the
// system default.
func NewService(resolver Resolver) *Service {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Service{resolver: resolver}
}

// LookupTXT resolves TXT records for the root of rawDomain. This is the
// strict path backing domain-ownership verification: resolution failures are
// surfaced, wrapped with the domain for diagnosability. The raw input is
// reduced through the link classifier's root-domain extraction first, and an
// empty root fails before any network call.
func (s *Service) LookupTXT(ctx context.Context, rawDomain string) ([][]string, error) {
	root := links.RootDomain(rawDomain)
	if root == "" {
		return nil, &LookupError{Domain: rawDomain, Err: ErrInvalidDomain}
	}

	records, err := s.resolver.LookupTXT(ctx, root)
	if err != nil {
		return nil, &LookupError{Domain: root, Err: err}
	}

	out := make([][]string, 0, len(records))
	for _, record := range records {
		out = append(out, []string{record})
	}
	return out, nil
}

// LookupAll resolves A, AAAA, MX, TXT, NS and CNAME records concurrently.
// Unlike LookupTXT this path is lenient: each record type swallows its own
// resolution failure into an empty list and the aggregate call never fails
// past domain validation. Verification must surface DNS errors; diagnostics
// are best-effort.
func (s *Service) LookupAll(ctx context.Context, rawDomain string) (*RecordSet, error) {
	root := links.RootDomain(rawDomain)
	if root == "" {
		return nil, &LookupError{Domain: rawDomain, Err: ErrInvalidDomain}
	}

	set := &RecordSet{
		A:     []string{},
		AAAA:  []string{},
		MX:    []string{},
		TXT:   [][]string{},
		NS:    []string{},
		CNAME: []string{},
	}

	var wg sync.WaitGroup
	wg.Add(6)

	go func() {
		defer wg.Done()
		if ips, err := s.resolver.LookupIP(ctx, "ip4", root); err == nil {
			for _, ip := range ips {
				set.A = append(set.A, ip.String())
			}
		}
	}()

	go func() {
		defer wg.Done()
		if ips, err := s.resolver.LookupIP(ctx, "ip6", root); err == nil {
			for _, ip := range ips {
				set.AAAA = append(set.AAAA, ip.String())
			}
		}
	}()

	go func() {
		defer wg.Done()
		if mxs, err := s.resolver.LookupMX(ctx, root); err == nil {
			for _, mx := range mxs {
				set.MX = append(set.MX, fmt.Sprintf("%d %s", mx.Pref, mx.Host))
			}
		}
	}()

	go func() {
		defer wg.Done()
		if records, err := s.resolver.LookupTXT(ctx, root); err == nil {
			for _, record := range records {
				set.TXT = append(set.TXT, []string{record})
			}
		}
	}()

	go func() {
		defer wg.Done()
		if nss, err := s.resolver.LookupNS(ctx, root); err == nil {
			for _, ns := range nss {
				set.NS = append(set.NS, ns.Host)
			}
		}
	}()

	go func() {
		defer wg.Done()
		if cname, err := s.resolver.LookupCNAME(ctx, root); err == nil && cname != "" {
			set.CNAME = append(set.CNAME, cname)
		}
	}()

	wg.Wait()
	return set, nil
}
