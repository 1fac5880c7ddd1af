package ipma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brandao-20/mcp-server-ipma/internal/observability"
)

// Fetcher retrieves raw IPMA open-data documents. Every method performs at
// most one upstream attempt; callers decide how failures are contained.
type Fetcher interface {
	FetchDistricts(ctx context.Context) (json.RawMessage, error)
	FetchWeatherTypes(ctx context.Context) (json.RawMessage, error)
	FetchForecast(ctx context.Context, globalID string) (json.RawMessage, error)
	FetchObservations(ctx context.Context) (json.RawMessage, error)
	FetchWarnings(ctx context.Context) (json.RawMessage, error)
}

var (
	ErrUpstreamStatus   = errors.New("upstream returned non-2xx status")
	ErrMalformedPayload = errors.New("upstream payload is not valid JSON")
)

// Dataset labels used in logs and metrics.
const (
	DatasetDistricts    = "districts"
	DatasetWeatherTypes = "weather_types"
	DatasetForecast     = "forecast"
	DatasetObservations = "observations"
	DatasetWarnings     = "warnings"
)

// Endpoints holds the upstream dataset URLs. ForecastURL carries a {id}
// placeholder substituted with the city's global id per request.
type Endpoints struct {
	DistrictsURL    string
	WeatherTypesURL string
	ForecastURL     string
	WarningsURL     string
	ObservationsURL string
}

type Client struct {
	endpoints Endpoints
	timeout   time.Duration
	client    *http.Client
}

func NewClient(endpoints Endpoints, timeout time.Duration) (*Client, error) {
	if !strings.Contains(endpoints.ForecastURL, "{id}") {
		return nil, fmt.Errorf("forecast URL missing {id} placeholder: %q", endpoints.ForecastURL)
	}

	return &Client{
		endpoints: endpoints,
		timeout:   timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) FetchDistricts(ctx context.Context) (json.RawMessage, error) {
	return c.fetch(ctx, DatasetDistricts, c.endpoints.DistrictsURL)
}

func (c *Client) FetchWeatherTypes(ctx context.Context) (json.RawMessage, error) {
	return c.fetch(ctx, DatasetWeatherTypes, c.endpoints.WeatherTypesURL)
}

func (c *Client) FetchForecast(ctx context.Context, globalID string) (json.RawMessage, error) {
	return c.fetch(ctx, DatasetForecast, strings.Replace(c.endpoints.ForecastURL, "{id}", globalID, 1))
}

func (c *Client) FetchObservations(ctx context.Context) (json.RawMessage, error) {
	return c.fetch(ctx, DatasetObservations, c.endpoints.ObservationsURL)
}

func (c *Client) FetchWarnings(ctx context.Context) (json.RawMessage, error) {
	return c.fetch(ctx, DatasetWarnings, c.endpoints.WarningsURL)
}

// fetch performs exactly one GET. Any network error, non-2xx status or
// invalid JSON body is a fetch failure; there is no retry.
func (c *Client) fetch(ctx context.Context, dataset, rawURL string) (json.RawMessage, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, rawURL)
	if err != nil {
		observability.IPMACallsTotal.WithLabelValues(dataset, "error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	corrID := extractCorrelationID(ctx)
	if corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.IPMACallsTotal.WithLabelValues(dataset, "error").Inc()
		observability.IPMACallDuration.WithLabelValues(dataset).Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.IPMACallsTotal.WithLabelValues(dataset, status).Inc()
	observability.IPMACallDuration.WithLabelValues(dataset).Observe(duration)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrUpstreamStatus, resp.StatusCode, dataset)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, dataset)
	}

	return json.RawMessage(body), nil
}

func (c *Client) buildRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
