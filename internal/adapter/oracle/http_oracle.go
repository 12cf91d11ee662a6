// Package oracle looks up current prices from an HTTP quote service.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/MagicCL33/Dashboard/internal/domain"
)

// ErrOffline is returned by Offline for every lookup
var ErrOffline = errors.New("price oracle not configured")

// Offline is used when no quote service is configured. Prices keep their last known value.
type Offline struct{}

func (Offline) Quotes(context.Context, []string) ([]domain.Quote, error) {
	return nil, ErrOffline
}

// Config describes the quote endpoint and how to read its answer
type Config struct {
	URL          string
	SymbolsParam string // query parameter carrying the comma separated batch
	ListPath     string // JSONPath of the quote list in the response
	SymbolField  string
	PriceField   string

	APIKeyHeader string
	APIKey       string

	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

func (c *Config) applyDefaults() {
	if c.SymbolsParam == "" {
		c.SymbolsParam = "symbols"
	}
	if c.ListPath == "" {
		c.ListPath = "$"
	}
	if c.SymbolField == "" {
		c.SymbolField = "symbol"
	}
	if c.PriceField == "" {
		c.PriceField = "currentPrice"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 1
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
}

// HTTPOracle implements domain.PriceOracle with one GET request per batch
type HTTPOracle struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewHTTPOracle creates an oracle for cfg
func NewHTTPOracle(cfg Config, logger zerolog.Logger) *HTTPOracle {
	cfg.applyDefaults()
	return &HTTPOracle{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: newBreaker("price-oracle"),
		logger:  logger,
	}
}

// newBreaker trips after 3 consecutive failures or above 5% failures over at least 20 requests
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
		},
	})
}

// Quotes fetches the prices of symbols. The answer may cover only some of them.
// A response that does not hold a list at ListPath fails the whole call with domain.ErrMalformedQuotes.
func (o *HTTPOracle) Quotes(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	res, err := o.breaker.Execute(func() (interface{}, error) {
		return o.fetch(ctx, symbols)
	})
	if err != nil {
		return nil, err
	}
	return res.([]domain.Quote), nil
}

func (o *HTTPOracle) fetch(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	addr, err := url.Parse(o.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid oracle url: %w", err)
	}
	q := addr.Query()
	q.Set(o.cfg.SymbolsParam, strings.Join(symbols, ","))
	addr.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if o.cfg.APIKeyHeader != "" && o.cfg.APIKey != "" {
		req.Header.Set(o.cfg.APIKeyHeader, o.cfg.APIKey)
	}

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("cannot GET %s%s: %s", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	var body any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedQuotes, err)
	}

	quotes, err := o.extract(body)
	if err != nil {
		return nil, err
	}
	o.logger.Debug().
		Int("requested", len(symbols)).
		Int("quotes", len(quotes)).
		Dur("took", time.Since(start)).
		Msg("quotes fetched")
	return quotes, nil
}

// extract reads the quote list. Entries without a symbol or a non-negative numeric price are skipped.
func (o *HTTPOracle) extract(body any) ([]domain.Quote, error) {
	val, err := jsonpath.Get(o.cfg.ListPath, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedQuotes, o.cfg.ListPath, err)
	}
	list, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a list", domain.ErrMalformedQuotes, o.cfg.ListPath)
	}

	quotes := make([]domain.Quote, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		symbol, ok := obj[o.cfg.SymbolField].(string)
		if !ok || strings.TrimSpace(symbol) == "" {
			continue
		}
		price, ok := toDecimal(obj[o.cfg.PriceField])
		if !ok {
			o.logger.Debug().Str("symbol", symbol).Msg("quote without usable price skipped")
			continue
		}
		if price.IsNegative() {
			o.logger.Debug().Str("symbol", symbol).Str("price", price.String()).Msg("negative quote skipped")
			continue
		}
		quotes = append(quotes, domain.Quote{Symbol: domain.NormalizeSymbol(symbol), Price: price})
	}
	return quotes, nil
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	}
	return decimal.Zero, false
}
