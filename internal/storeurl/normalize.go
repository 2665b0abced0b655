package storeurl

import (
	"errors"
	"net"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// ErrUnsupportedURL is returned for input that is not an absolute http(s) URL.
var ErrUnsupportedURL = errors.New("url must be an absolute http or https URL")

// trackingParams are dropped by NormalizeURL. Keys ending in "_" are prefixes.
var trackingParams = []string{
	"utm_", "ref", "ref_", "fbclid", "gclid", "dclid", "msclkid", "igshid",
	"mc_cid", "mc_eid", "_ga", "_gl", "spm", "tag", "psc", "smid", "linkcode",
	"linkid", "ascsubtag", "pd_rd_", "pf_rd_", "content-id", "th", "si",
}

var amazonProductPath = regexp.MustCompile(`/(?:dp|gp/product|gp/aw/d|exec/obidos/asin)/([A-Z0-9]{10})(?:[/?]|$)`)

// NormalizeURL canonicalizes a product URL so equal products compare equal:
// lower-case scheme and host, no fragment, default port, tracking query
// parameters or trailing slash, remaining query sorted by key, and Amazon
// product paths reduced to /dp/<ASIN>. Path escapes and query pairs are kept
// as written. Applying it twice changes nothing.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", ErrUnsupportedURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return "", ErrUnsupportedURL
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	u.Host = joinHostPort(host, port)
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	if strings.Contains(host, "amazon.") {
		if m := amazonProductPath.FindStringSubmatch(u.Path); m != nil {
			u.Path = "/dp/" + m[1]
			u.RawPath = ""
			u.RawQuery = ""
		}
	}

	u.RawQuery = cleanQuery(u.RawQuery)
	u.ForceQuery = false

	escaped := strings.TrimRight(u.EscapedPath(), "/")
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return "", ErrUnsupportedURL
	}
	u.Path, u.RawPath = path, escaped

	return u.String(), nil
}

func joinHostPort(host, port string) string {
	if port != "" {
		return net.JoinHostPort(host, port)
	}
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}

// cleanQuery drops tracking pairs and empty pairs from a raw query and
// sorts the rest by key. Pairs are not re-encoded.
func cleanQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	type pair struct{ key, raw string }
	var pairs []pair
	for _, raw := range strings.Split(rawQuery, "&") {
		if raw == "" {
			continue
		}
		key, _, _ := strings.Cut(raw, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if isTrackingParam(key) {
			continue
		}
		pairs = append(pairs, pair{key: key, raw: raw})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.raw
	}
	return strings.Join(out, "&")
}

func isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	for _, p := range trackingParams {
		if strings.HasSuffix(p, "_") {
			if strings.HasPrefix(k, p) {
				return true
			}
			continue
		}
		if k == p {
			return true
		}
	}
	return false
}
