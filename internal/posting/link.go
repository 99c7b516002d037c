package posting

import (
	"net/url"
	"strings"
)

// CanonicalLink reduces a link to the form used for duplicate detection:
// lowercase scheme and host, no query string, no fragment, no trailing slashes.
func CanonicalLink(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimRight(stripQuery(raw), "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return strings.TrimRight(u.String(), "/")
}

// IsAbsoluteLink reports whether raw is an absolute http(s) URL with a host.
func IsAbsoluteLink(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// ResolveLink makes href absolute against base. It returns href unchanged when
// either side cannot be parsed.
func ResolveLink(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

func stripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}
