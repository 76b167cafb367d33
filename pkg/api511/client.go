package api511

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/noiseboard/noiseboard/pkg/ctdf"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultJSONEndpoint   = "http://api.511.org/transit/StopMonitoring"
	DefaultLegacyEndpoint = "http://services.my511.org/Transit2.0/GetNextDeparturesByStopCode.aspx"

	DefaultTimeout = 10 * time.Second

	// 511.org allows 60 requests an hour per key.
	DefaultRequestsPerHour = 60

	userAgent       = "noiseboard/2.0"
	maxResponseSize = 4 << 20
)

// BodyCache stores successful upstream bodies for a short time.
type BodyCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string)
}

// StopFetcher fetches the raw predictions of a single stop.
type StopFetcher interface {
	FetchStop(ctx context.Context, stopID string) (*ctdf.RawStopPredictions, error)
}

type Config struct {
	APIKey      string
	LegacyToken string

	JSONEndpoint   string
	LegacyEndpoint string

	Timeout time.Duration

	// Limiter bounds the request rate across every fetcher built from the client. Nil means unlimited.
	Limiter *rate.Limiter
	Cache   BodyCache

	HTTPClient *http.Client
}

type Client struct {
	config     Config
	httpClient *http.Client
}

// NewRequestLimiter allows requestsPerHour requests an hour with bursts of up to burst requests.
func NewRequestLimiter(requestsPerHour int, burst int) *rate.Limiter {
	if requestsPerHour <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}

	return rate.NewLimiter(rate.Every(time.Hour/time.Duration(requestsPerHour)), burst)
}

func NewClient(config Config) *Client {
	if config.JSONEndpoint == "" {
		config.JSONEndpoint = DefaultJSONEndpoint
	}
	if config.LegacyEndpoint == "" {
		config.LegacyEndpoint = DefaultLegacyEndpoint
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		// One client per process so connections are reused across the per-stop requests
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}
}

// FetcherFor resolves the service's API variant once into the matching fetcher.
func (c *Client) FetcherFor(service ctdf.ServiceConfig) StopFetcher {
	switch service.APIVariant {
	case ctdf.APIVariantLegacyXML:
		return &legacyFetcher{client: c}
	default:
		return &jsonFetcher{client: c, agency: service.AgencyID}
	}
}

func (c *Client) Fetch(ctx context.Context, stopID string, service ctdf.ServiceConfig) (*ctdf.RawStopPredictions, error) {
	return c.FetcherFor(service).FetchStop(ctx, stopID)
}

type jsonFetcher struct {
	client *Client
	agency string
}

func (f *jsonFetcher) FetchStop(ctx context.Context, stopID string) (*ctdf.RawStopPredictions, error) {
	request := stopMonitoringRequest{
		APIKey:   f.client.config.APIKey,
		Agency:   f.agency,
		StopCode: stopID,
	}

	cacheKey := fmt.Sprintf("noiseboard:json:%s:%s", f.agency, stopID)
	body, cached, err := f.client.get(ctx, cacheKey, f.client.config.JSONEndpoint, request.Values())
	if err != nil {
		return nil, err
	}

	predictions, err := ParseStopMonitoring(body)
	if err != nil {
		return nil, err
	}

	if !cached {
		f.client.remember(ctx, cacheKey, body)
	}

	return predictions, nil
}

type legacyFetcher struct {
	client *Client
}

func (f *legacyFetcher) FetchStop(ctx context.Context, stopID string) (*ctdf.RawStopPredictions, error) {
	request := nextDeparturesRequest{
		StopCode: stopID,
		Token:    f.client.config.LegacyToken,
	}

	cacheKey := fmt.Sprintf("noiseboard:legacy:%s", stopID)
	body, cached, err := f.client.get(ctx, cacheKey, f.client.config.LegacyEndpoint, request.Values())
	if err != nil {
		return nil, err
	}

	predictions, err := ParseLegacyDepartures(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	if !cached {
		f.client.remember(ctx, cacheKey, body)
	}

	return predictions, nil
}

// get returns the body of a successful response and whether it came from the cache.
func (c *Client) get(ctx context.Context, cacheKey string, endpoint string, params url.Values) ([]byte, bool, error) {
	if c.config.Cache != nil {
		if cached, ok := c.config.Cache.Get(ctx, cacheKey); ok {
			log.Debug().Str("key", cacheKey).Msg("Using cached upstream response")
			return []byte(cached), true, nil
		}
	}

	if c.config.Limiter != nil {
		if err := c.config.Limiter.Wait(ctx); err != nil {
			return nil, false, fmt.Errorf("waiting for request budget: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", userAgent)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, false, classifyTransportError(err)
	}

	log.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(startTime)).
		Msg("Upstream request")

	switch resp.StatusCode {
	case http.StatusOK:
		return body, false, nil
	case http.StatusTooManyRequests:
		return nil, false, &RateLimitedError{Body: string(body)}
	case http.StatusUnauthorized:
		return nil, false, &UnauthorizedError{Body: string(body)}
	default:
		return nil, false, &UpstreamError{StatusCode: resp.StatusCode}
	}
}

func (c *Client) remember(ctx context.Context, cacheKey string, body []byte) {
	if c.config.Cache != nil {
		c.config.Cache.Set(ctx, cacheKey, string(body))
	}
}

func classifyTransportError(err error) error {
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())

	return &TransportError{Timeout: timeout, Err: err}
}
