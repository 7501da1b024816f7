// Package combo talks to the combo/add-on configuration service and holds the rules of the
// combo wizard: selection bounds per category, step gating and pick toggling.
package combo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/logs"
)

// DefaultTTL is how long a fetched configuration is served without refetching.
const DefaultTTL = 5 * time.Minute

const configKey = "config"

// Client reads the configuration service. The full configuration is cached with a soft TTL:
// when a refresh fails the last known configuration is served even if expired, and an empty
// configuration is served only when nothing was ever fetched.
type Client struct {
	baseURL string
	http    *http.Client
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.RWMutex
	cached    *domain.PluginConfig
	fetchedAt time.Time
	group     singleflight.Group
}

type Option func(*Client)

func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

func NewClient(baseURL string, httpClient *http.Client, ttl time.Duration, logger *slog.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		ttl:     ttl,
		logger:  logs.OrDiscard(logger),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the cached configuration, refetching it once the TTL has passed.
func (c *Client) Config(ctx context.Context) domain.PluginConfig {
	c.mu.RLock()
	cached, fetchedAt := c.cached, c.fetchedAt
	c.mu.RUnlock()
	if cached != nil && c.now().Sub(fetchedAt) < c.ttl {
		return *cached
	}

	cfg, err := c.Refresh(ctx)
	if err == nil {
		return cfg
	}
	if cached != nil {
		c.logger.Warn("serving stale combo configuration", "age", c.now().Sub(fetchedAt).String(), "err", err)
		return *cached
	}
	c.logger.Error("combo configuration unavailable", "err", err)
	return emptyConfig()
}

// Refresh fetches the configuration regardless of the cache. Concurrent refreshes share one
// request.
func (c *Client) Refresh(ctx context.Context) (domain.PluginConfig, error) {
	v, err, _ := c.group.Do(configKey, func() (any, error) {
		var cfg domain.PluginConfig
		if err := c.getJSON(ctx, "/config", &cfg); err != nil {
			return nil, err
		}
		if cfg.Products == nil {
			cfg.Products = map[string]domain.ProductConfig{}
		}
		c.mu.Lock()
		c.cached = &cfg
		c.fetchedAt = c.now()
		c.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return domain.PluginConfig{}, err
	}
	return v.(domain.PluginConfig), nil
}

// ClearCache forgets the cached configuration; the next read refetches.
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cached = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// ProductConfig returns the configuration entry of one product.
func (c *Client) ProductConfig(ctx context.Context, productID int64) (domain.ProductConfig, bool) {
	pc, ok := c.Config(ctx).Products[strconv.FormatInt(productID, 10)]
	return pc, ok
}

// IsCombo reports whether the product is configured as a combo.
func (c *Client) IsCombo(ctx context.Context, productID int64) bool {
	pc, ok := c.ProductConfig(ctx, productID)
	return ok && pc.IsCombo
}

// ComboConfig returns the ordered categories of a combo product, or nil when the product is
// not a combo.
func (c *Client) ComboConfig(ctx context.Context, productID int64) domain.ComboConfiguration {
	pc, ok := c.ProductConfig(ctx, productID)
	if !ok || !pc.IsCombo {
		return nil
	}
	return pc.ComboConfig
}

// ProductLabels returns the product's badge labels, never nil.
func (c *Client) ProductLabels(ctx context.Context, productID int64) []string {
	pc, _ := c.ProductConfig(ctx, productID)
	if pc.Labels == nil {
		return []string{}
	}
	return pc.Labels
}

// AllLabels returns every label the configuration declares, never nil.
func (c *Client) AllLabels(ctx context.Context) []string {
	labels := c.Config(ctx).Labels
	if labels == nil {
		return []string{}
	}
	return labels
}

// ProductFields returns the raw product-fields payload for the addon resolver.
func (c *Client) ProductFields(ctx context.Context, productID int64) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/product-fields/"+strconv.FormatInt(productID, 10), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "build request %s", path)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return errors.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

func emptyConfig() domain.PluginConfig {
	return domain.PluginConfig{Products: map[string]domain.ProductConfig{}, Labels: []string{}}
}
