package mfapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.mfapi.in"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 2 // requests per second
)

// ErrNoData is returned when the service knows no NAV for the scheme.
var ErrNoData = errors.New("no NAV data for scheme")

// Client looks up the latest NAV of a mutual fund scheme.
// The mutual fund service depends on this interface so tests can swap in a mock.
type Client interface {
	LatestNAV(ctx context.Context, schemeCode string) (Quote, error)
}

// FinanceClient queries mfapi.in. Requests are throttled by a token bucket.
type FinanceClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logrus.FieldLogger
}

// ClientOption configures the client
type ClientOption func(*FinanceClient)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *FinanceClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithRateLimit sets the number of requests per second
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *FinanceClient) {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) ClientOption {
	return func(c *FinanceClient) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *FinanceClient) {
		c.httpClient = hc
	}
}

// NewFinanceClient creates a client with default settings, adjusted by opts.
func NewFinanceClient(opts ...ClientOption) *FinanceClient {
	c := &FinanceClient{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestNAV returns the most recent NAV published for schemeCode.
func (c *FinanceClient) LatestNAV(ctx context.Context, schemeCode string) (Quote, error) {
	reqURL := fmt.Sprintf("%s/mf/%s/latest", c.baseURL, url.PathEscape(schemeCode))
	resp, err := c.query(ctx, reqURL)
	if err != nil {
		return Quote{}, err
	}
	return ParseLatest(schemeCode, resp)
}

// ParseLatest converts a raw response into a Quote using its first (newest) data point.
func ParseLatest(schemeCode string, resp Response) (Quote, error) {
	if len(resp.Data) == 0 {
		return Quote{}, fmt.Errorf("%w: %s", ErrNoData, schemeCode)
	}

	point := resp.Data[0]
	date, err := time.Parse("02-01-2006", point.Date)
	if err != nil {
		return Quote{}, fmt.Errorf("invalid NAV date %q: %w", point.Date, err)
	}
	nav, err := decimal.NewFromString(point.NAV)
	if err != nil {
		return Quote{}, fmt.Errorf("invalid NAV %q: %w", point.NAV, err)
	}

	return Quote{
		SchemeCode: schemeCode,
		SchemeName: resp.Meta.SchemeName,
		Date:       date.UTC(),
		NAV:        nav,
	}, nil
}

func (c *FinanceClient) query(ctx context.Context, reqURL string) (Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.WithError(err).WithField("url", reqURL).Error("NAV request failed")
		return Response{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{"url": reqURL, "status": resp.StatusCode}).Warn("NAV request non-OK response")
		return Response{}, fmt.Errorf("NAV API error: status %d", resp.StatusCode)
	}

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{"url": reqURL, "elapsed": elapsed}).Debug("NAV request")
	return response, nil
}
