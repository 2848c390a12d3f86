package links

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

// MaxURLLength is the longest URL accepted, before and after canonicalization.
const MaxURLLength = 2083

// Canonicalize normalizes raw input into the form used as hash input and uniqueness key.
// - Trims trailing whitespace and slashes
// - Assumes http when no scheme is given
// - Accepts only http and https
// - Converts the host to lower-case ASCII (punycode for internationalized names)
func Canonicalize(raw string) (CanonicalURL, error) {
	s := strings.TrimRight(strings.TrimRightFunc(raw, unicode.IsSpace), "/")
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	if len(s) > MaxURLLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidURL, MaxURLLength)
	}

	u, err := url.Parse(s)
	if err == nil && missingScheme(u) {
		u, err = url.Parse("http://" + s)
	}

	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	host, err := canonicalHost(u)
	if err != nil {
		return "", err
	}

	u.Host = host

	canonical := strings.TrimRight(u.String(), "/")
	if len(canonical) > MaxURLLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidURL, MaxURLLength)
	}

	return CanonicalURL(canonical), nil
}

// missingScheme reports whether s had no scheme. "localhost:5000/x" parses
// with scheme "localhost", so a numeric opaque part counts as a port.
func missingScheme(u *url.URL) bool {
	if u.Scheme == "" {
		return true
	}

	port, _, _ := strings.Cut(u.Opaque, "/")
	if port == "" {
		return false
	}

	for _, c := range port {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

func canonicalHost(u *url.URL) (string, error) {
	hostname := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if hostname == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	port := u.Port()

	if ip := net.ParseIP(hostname); ip != nil {
		if ip.To4() == nil {
			hostname = "[" + ip.String() + "]"
		} else {
			hostname = ip.String()
		}

		return joinPort(hostname, port), nil
	}

	ascii, err := idna.Lookup.ToASCII(hostname)
	if err != nil {
		return "", fmt.Errorf("%w: host %q: %w", ErrInvalidURL, hostname, err)
	}

	if ascii != "localhost" && !strings.Contains(ascii, ".") {
		return "", fmt.Errorf("%w: host %q is not a domain name", ErrInvalidURL, hostname)
	}

	return joinPort(ascii, port), nil
}

func joinPort(host, port string) string {
	if port == "" {
		return host
	}

	return host + ":" + port
}
