package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tibiantis-tools/deathwatch/internal/logging"
	"github.com/tibiantis-tools/deathwatch/internal/metrics"
	"github.com/tibiantis-tools/deathwatch/internal/models"
)

// ErrCharacterNotFound means the name did not resolve on the remote source.
// Expected during lookups; callers must not treat it as a transient failure.
var ErrCharacterNotFound = errors.New("character not found on tibiantis")

const (
	userAgent   = "deathwatch/1.0"
	maxBodySize = 4 << 20
)

// PageCache caches raw character pages to bound scraping cost. A miss is
// (value="", ok=false); cache errors are swallowed by implementations.
type PageCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Client fetches and parses public pages of the Tibiantis server and its
// companion stats site.
type Client struct {
	baseURL     string
	infoBaseURL string
	http        *http.Client
	cache       PageCache
	log         *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPageCache enables caching of raw character pages.
func WithPageCache(cache PageCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithHTTPClient overrides the HTTP client (used by tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.http = client }
}

// NewClient creates a scraper client. A request-level timeout is always set
// so a hung fetch cannot stall a correlation run indefinitely.
func NewClient(baseURL, infoBaseURL string, timeout time.Duration, log *logging.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/") + "/",
		infoBaseURL: strings.TrimSuffix(infoBaseURL, "/") + "/",
		http:        &http.Client{Timeout: timeout},
		log:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CharacterPage looks up a character by name and returns its attribute
// record and recent death log. The name is forwarded verbatim (only
// URL-encoded); the remote source decides whether it resolves.
func (c *Client) CharacterPage(ctx context.Context, name string) (*CharacterPage, error) {
	lookupURL := fmt.Sprintf("%s?page=character&name=%s", c.baseURL, url.QueryEscape(name))

	body, err := c.fetch(ctx, lookupURL)
	if err != nil {
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch character %q: %w", name, err)
	}

	page, err := parseCharacterPage(strings.NewReader(body))
	if err != nil {
		if errors.Is(err, ErrCharacterNotFound) {
			metrics.FetchesTotal.WithLabelValues("not_found").Inc()
			return nil, err
		}
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("parse character %q: %w", name, err)
	}

	metrics.FetchesTotal.WithLabelValues("ok").Inc()
	return page, nil
}

// OnlinePlayers returns the currently-online characters at or above
// minLevel.
func (c *Client) OnlinePlayers(ctx context.Context, minLevel int) ([]models.OnlinePlayer, error) {
	body, err := c.fetchUncached(ctx, c.infoBaseURL+"stats/online")
	if err != nil {
		return nil, fmt.Errorf("fetch online players: %w", err)
	}

	players, err := parseOnlinePlayers(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse online players: %w", err)
	}

	filtered := players[:0]
	for _, p := range players {
		if p.Level >= minLevel {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (c *Client) fetch(ctx context.Context, pageURL string) (string, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, pageURL); ok {
			metrics.PageCacheHits.Inc()
			return body, nil
		}
	}

	body, err := c.fetchUncached(ctx, pageURL)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		c.cache.Set(ctx, pageURL, body)
	}
	return body, nil
}

func (c *Client) fetchUncached(ctx context.Context, pageURL string) (string, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}
