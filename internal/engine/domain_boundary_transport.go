package engine

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DomainBoundaryTransport refuses requests that leave the target's
// registrable domain, which keeps redirects and absolute paths on-site.
type DomainBoundaryTransport struct {
	Base              http.RoundTripper
	AllowedRootDomain string
}

// RootDomain returns the registrable domain of host (eTLD+1), or the host
// itself for IPs and single-label names.
func RootDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return root
}

func (t *DomainBoundaryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := strings.ToLower(req.URL.Hostname())
	if host == "" {
		return nil, fmt.Errorf("blocked request: empty host")
	}
	if allowed := strings.ToLower(strings.TrimSpace(t.AllowedRootDomain)); allowed != "" {
		if host != allowed && !strings.HasSuffix(host, "."+allowed) && RootDomain(host) != allowed {
			return nil, fmt.Errorf("blocked cross-domain request: %s (allowed root: %s)", host, allowed)
		}
	}
	return baseOf(t.Base).RoundTrip(req)
}
