// Package fetcher downloads store pages for extraction.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ckcelina/my-wishlist-sub002/internal/repository"
	"github.com/ckcelina/my-wishlist-sub002/internal/storeurl"
	"github.com/ckcelina/my-wishlist-sub002/pkg/httpclient"
	"github.com/ckcelina/my-wishlist-sub002/pkg/logger"
)

// DefaultUserAgent identifies as a desktop browser; several stores reject
// unidentified clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

var pageFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "page_fetches_total",
		Help: "Store page fetches by result",
	},
	[]string{"result"},
)

// Config holds fetcher settings.
type Config struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	// CacheTTL is how long successful bodies stay in the page cache.
	CacheTTL time.Duration
	// AllowPrivateNetworks permits loopback, private and link-local
	// targets. Off in production.
	AllowPrivateNetworks bool
}

var errBlockedAddress = errors.New("address is not publicly routable")

// Fetcher retrieves page bodies. Failures are logged and reported as "".
type Fetcher struct {
	client *httpclient.Client
	cache  repository.PageCache
	cfg    Config
	logger *slog.Logger
}

// New creates a Fetcher. cache may be nil.
func New(cfg Config, cache repository.PageCache, log *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 2 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	hc := httpclient.DefaultConfig()
	hc.Timeout = cfg.Timeout
	hc.MaxRetries = 0
	hc.MaxConnsPerHost = 10
	hc.Header = http.Header{
		"User-Agent":      {cfg.UserAgent},
		"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		"Accept-Language": {"en-US,en;q=0.9"},
	}
	if !cfg.AllowPrivateNetworks {
		// Checked at dial time so DNS answers and redirects are covered.
		hc.DialControl = publicOnly
	}

	return &Fetcher{
		client: httpclient.New(hc),
		cache:  cache,
		cfg:    cfg,
		logger: log,
	}
}

// Fetch returns the body of rawURL, or "" when it could not be fetched.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) string {
	log := logger.WithContext(ctx, f.logger).With(slog.String("url", rawURL))

	if !f.cfg.AllowPrivateNetworks {
		if err := checkTarget(rawURL); err != nil {
			pageFetchesTotal.WithLabelValues("blocked").Inc()
			log.Warn("page fetch refused", slog.String("error", err.Error()))
			return ""
		}
	}

	key := rawURL
	if normalized, err := storeurl.NormalizeURL(rawURL); err == nil {
		key = normalized
	}

	if f.cache != nil {
		body, ok, err := f.cache.Get(ctx, key)
		switch {
		case err != nil:
			log.Warn("page cache read failed", slog.String("error", err.Error()))
		case ok:
			pageFetchesTotal.WithLabelValues("cache_hit").Inc()
			return body
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	resp, err := f.client.Get(ctx, rawURL)
	if err != nil {
		pageFetchesTotal.WithLabelValues("error").Inc()
		log.Warn("page fetch failed", slog.String("error", err.Error()))
		return ""
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		pageFetchesTotal.WithLabelValues("bad_status").Inc()
		log.Warn("page fetch returned non-success status", slog.Int("status", resp.StatusCode))
		return ""
	}

	raw, err := httpclient.ReadBody(resp, f.cfg.MaxBytes)
	if err != nil {
		pageFetchesTotal.WithLabelValues("error").Inc()
		log.Warn("page body read failed", slog.String("error", err.Error()))
		return ""
	}
	// The size cap can cut a rune in half.
	body := strings.ToValidUTF8(string(raw), "")
	if body == "" {
		pageFetchesTotal.WithLabelValues("empty").Inc()
		log.Warn("page fetch returned empty body")
		return ""
	}
	pageFetchesTotal.WithLabelValues("ok").Inc()

	if f.cache != nil && f.cfg.CacheTTL > 0 {
		if err := f.cache.Set(ctx, key, body, f.cfg.CacheTTL); err != nil {
			log.Warn("page cache write failed", slog.String("error", err.Error()))
		}
	}

	return body
}

// checkTarget rejects URLs whose host is a literal non-public IP. Names are
// checked after resolution by publicOnly.
func checkTarget(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if ip := net.ParseIP(u.Hostname()); ip != nil && !isPublic(ip) {
		return fmt.Errorf("%s: %w", ip, errBlockedAddress)
	}
	return nil
}

func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublic(ip) {
		return fmt.Errorf("%s: %w", host, errBlockedAddress)
	}
	return nil
}

func isPublic(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast())
}
