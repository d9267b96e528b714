// Package security validates URLs before the fetcher opens any network
// connection, blocking targets that would let a crafted URL reach internal
// services (SSRF). Validation must run again on every redirect hop.
package security

import (
	"fmt"
	"net"
	"net/url"
)

// Block reasons reported by BlockedURLError
const (
	ReasonScheme         = "scheme"
	ReasonNoHost         = "no-host"
	ReasonLocalhost      = "localhost"
	ReasonUnresolvable   = "unresolvable"
	ReasonPrivateAddress = "private-address"
)

// BlockedURLError indicates a URL failed SSRF validation. It is a hard
// block: the fetch is aborted and never retried.
type BlockedURLError struct {
	URL    string
	Reason string
}

func (e *BlockedURLError) Error() string {
	switch e.Reason {
	case ReasonScheme:
		return fmt.Sprintf("only HTTP and HTTPS URLs are allowed: %s", e.URL)
	case ReasonNoHost:
		return fmt.Sprintf("could not extract hostname from URL: %s", e.URL)
	case ReasonLocalhost:
		return fmt.Sprintf("URLs targeting localhost are not allowed: %s", e.URL)
	case ReasonUnresolvable:
		return fmt.Sprintf("hostname could not be resolved and is blocked: %s", e.URL)
	default:
		return fmt.Sprintf("URL resolves to a private/reserved address and is blocked: %s", e.URL)
	}
}

// URLValidator is the guard interface consumed by the fetcher
type URLValidator interface {
	Validate(rawURL string) error
}

// Guard is the default SSRF validator backed by the system resolver
type Guard struct{}

// NewGuard creates a new SSRF guard
func NewGuard() *Guard {
	return &Guard{}
}

// reservedNets covers address space Go's net.IP predicates don't classify:
// "this network", CGNAT, IETF protocol assignments, benchmarking, class E.
var reservedNets = mustParseCIDRs(
	"0.0.0.0/8",
	"100.64.0.0/10",
	"192.0.0.0/24",
	"198.18.0.0/15",
	"240.0.0.0/4",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// isBlockedIP reports whether an address belongs to a class that must never
// be fetched from: private, loopback, link-local (cloud metadata lives at
// 169.254.169.254), unspecified, multicast, or reserved space.
func isBlockedIP(ip net.IP) bool {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() || ip.IsMulticast() {
		return true
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	for _, n := range reservedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// resolvesToBlocked resolves a hostname and reports whether any returned
// address is blocked. Resolution failure means "cannot determine safety"
// and is treated identically to "determined unsafe" (fail closed).
func resolvesToBlocked(hostname string) (blocked bool, resolvable bool) {
	ips, err := net.LookupIP(hostname)
	if err != nil || len(ips) == 0 {
		return true, false
	}
	for _, ip := range ips {
		if isBlockedIP(ip) {
			return true, true
		}
	}
	return false, true
}

// Validate checks a URL against the SSRF block policy. It returns a
// *BlockedURLError on any violation and must be called before every
// connection attempt, including each redirect hop.
func (g *Guard) Validate(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &BlockedURLError{URL: rawURL, Reason: ReasonNoHost}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &BlockedURLError{URL: rawURL, Reason: ReasonScheme}
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return &BlockedURLError{URL: rawURL, Reason: ReasonNoHost}
	}

	// Obvious localhost references need no DNS
	switch hostname {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return &BlockedURLError{URL: rawURL, Reason: ReasonLocalhost}
	}

	blocked, resolvable := resolvesToBlocked(hostname)
	if !resolvable {
		return &BlockedURLError{URL: rawURL, Reason: ReasonUnresolvable}
	}
	if blocked {
		return &BlockedURLError{URL: rawURL, Reason: ReasonPrivateAddress}
	}

	return nil
}
