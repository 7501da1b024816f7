// Package catalog is the gateway to the WooCommerce v3 REST API: catalog reads, config-class
// reads (shipping, payment gateways, store settings) and order submission.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"pizza-storefront/internal/config"
	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/logs"
)

// APIPath is appended to the site URL to reach the REST API.
const APIPath = "/wp-json/wc/v3"

const defaultPerPage = 100

// NewHTTPClient returns a traced HTTP client with the given overall timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Client implements the catalog gateway. Config-class reads are cached without expiry until
// ClearCache; product reads and order submission always hit the backend.
type Client struct {
	baseURL  string
	key      string
	secret   string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[response]
	logger   *slog.Logger
	fallback domain.StoreInfo

	mu       sync.RWMutex
	shipping []domain.ShippingZone
	payments []domain.PaymentMethod
	store    *domain.StoreInfo
	group    singleflight.Group
}

type response struct {
	status int
	body   []byte
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithBreakerSettings replaces the default circuit breaker settings.
// A nil IsSuccessful gets the default, which does not count caller cancellations.
func WithBreakerSettings(st gobreaker.Settings) Option {
	if st.IsSuccessful == nil {
		st.IsSuccessful = breakerSuccess
	}
	return func(c *Client) { c.breaker = gobreaker.NewCircuitBreaker[response](st) }
}

// breakerSuccess keeps a caller's cancelled request from counting against the backend.
func breakerSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

func New(cfg config.Woo, store config.Store, logger *slog.Logger, opts ...Option) *Client {
	logger = logs.OrDiscard(logger)
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + APIPath,
		key:     cfg.ConsumerKey,
		secret:  cfg.ConsumerSecret,
		http:    NewHTTPClient(cfg.Timeout),
		logger:  logger,
		fallback: domain.StoreInfo{
			Name:     store.Name,
			Address:  store.Address,
			City:     store.City,
			Country:  store.Country,
			Currency: store.Currency,
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        "woocommerce",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errServer marks a 5xx answer so the breaker counts it as a failure.
type errServer struct{ status int }

func (e errServer) Error() string { return http.StatusText(e.status) }

// do performs one round trip and decodes a 2xx body into out. Every failure is returned as a
// *domain.CatalogUnavailableError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &domain.CatalogUnavailableError{Op: op, Err: err}
		}
		payload = b
	}

	resp, err := c.breaker.Execute(func() (response, error) {
		endpoint := c.baseURL + path
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return response{}, err
		}
		req.SetBasicAuth(c.key, c.secret)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := c.http.Do(req)
		if err != nil {
			return response{}, err
		}
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		if err != nil {
			return response{}, err
		}
		r := response{status: res.StatusCode, body: data}
		if res.StatusCode >= 500 {
			return r, errServer{status: res.StatusCode}
		}
		return r, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.CatalogUnavailableError{Op: op, Status: http.StatusServiceUnavailable, Message: "circuit open", Err: err}
	case err != nil && resp.status == 0:
		return &domain.CatalogUnavailableError{Op: op, Err: err}
	}

	if resp.status < 200 || resp.status > 299 {
		e := &domain.CatalogUnavailableError{Op: op, Status: resp.status, Message: backendMessage(resp.body)}
		if resp.status == http.StatusNotFound {
			e.Err = domain.ErrNotFound
		}
		return e
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &domain.CatalogUnavailableError{Op: op, Status: resp.status, Message: "undecodable response", Err: err}
	}
	return nil
}

// backendMessage extracts the message (or code) field of a WooCommerce error body.
func backendMessage(body []byte) string {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return msg
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}
