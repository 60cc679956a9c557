// Package validation checks URLs before they are used for API calls or
// handed to the API as webhook callbacks.
//
// ValidateAPIURL guards the URL that receives bearer tokens: plain http is
// only accepted for local development hosts. ValidateCallbackURL guards
// webhook targets, which the shop's servers call and which must therefore be
// public https endpoints.
package validation

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// lookupTimeout bounds the DNS lookup of a callback host.
const lookupTimeout = 5 * time.Second

// privateNetworks holds the reserved ranges a callback must not point into.
var privateNetworks []*net.IPNet

// lookupIP resolves callback hosts. Tests replace it.
var lookupIP = func(ctx context.Context, host string) ([]net.IP, error) {
	return net.DefaultResolver.LookupIP(ctx, "ip", host)
}

func init() {
	privateCIDRs := []string{
		"10.0.0.0/8",      // RFC1918
		"172.16.0.0/12",   // RFC1918
		"192.168.0.0/16",  // RFC1918
		"100.64.0.0/10",   // RFC6598 shared address space
		"169.254.0.0/16",  // RFC3927 link local
		"192.0.0.0/24",    // RFC6890
		"192.0.2.0/24",    // RFC5737 documentation
		"198.18.0.0/15",   // RFC2544 benchmarking
		"198.51.100.0/24", // RFC5737 documentation
		"203.0.113.0/24",  // RFC5737 documentation
		"240.0.0.0/4",     // RFC1112 reserved
		"fc00::/7",        // RFC4193 unique local
		"fe80::/10",       // RFC4291 link local
		"ff00::/8",        // RFC4291 multicast
		"2001:db8::/32",   // RFC3849 documentation
	}

	privateNetworks = make([]*net.IPNet, 0, len(privateCIDRs))
	for _, cidr := range privateCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// ValidateAPIURL checks an API base URL. It must be an http(s) URL with a
// host and without query or fragment, must not name a cloud metadata
// endpoint, and may use plain http only on a loopback host.
func ValidateAPIURL(rawURL string) error {
	u, err := parseHTTPURL(rawURL)
	if err != nil {
		return err
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("api url must not contain a query or fragment, got %q", rawURL)
	}

	host := u.Hostname()
	if isCloudMetadata(host) {
		return fmt.Errorf("cloud metadata endpoints are not allowed")
	}
	if u.Scheme == "http" && !isLoopbackHost(host) {
		return fmt.Errorf("api url must use https for non-local hosts, got %q", rawURL)
	}
	return nil
}

// ValidateCallbackURL checks a webhook callback URL: https, a public host,
// and no cloud metadata endpoint. Host names are resolved and every address
// is checked. A name that does not resolve yet is accepted.
func ValidateCallbackURL(ctx context.Context, rawURL string) error {
	u, err := parseHTTPURL(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "https" {
		return fmt.Errorf("callback url must use https, got %q", rawURL)
	}

	host := u.Hostname()
	if isCloudMetadata(host) {
		return fmt.Errorf("cloud metadata endpoints are not allowed")
	}
	if isLoopbackHost(host) {
		return fmt.Errorf("callback url must be reachable from the internet, got local host %q", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		return validatePublicIP(ip)
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()
	ips, err := lookupIP(ctx, host)
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if err := validatePublicIP(ip); err != nil {
			return fmt.Errorf("domain %q resolves to forbidden IP %s: %w", host, ip.String(), err)
		}
	}
	return nil
}

func parseHTTPURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url must start with http:// or https://, got %q", rawURL)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("URL must contain a hostname")
	}
	return u, nil
}

func isLoopbackHost(host string) bool {
	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return true
	}
	ip := net.ParseIP(lower)
	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}

func isCloudMetadata(host string) bool {
	lower := strings.ToLower(host)
	switch lower {
	case "169.254.169.254", "metadata.google.internal", "metadata", "instance-data", "fd00:ec2::254":
		return true
	}
	return strings.HasSuffix(lower, ".metadata.google.internal")
}

func validatePublicIP(ip net.IP) error {
	if ip.String() == "169.254.169.254" {
		return fmt.Errorf("cloud metadata IP address is not allowed")
	}
	if ip.IsLoopback() || ip.IsUnspecified() {
		return fmt.Errorf("loopback IP addresses are not allowed")
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return fmt.Errorf("link-local IP addresses are not allowed")
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return fmt.Errorf("private IP addresses are not allowed")
		}
	}
	return nil
}
