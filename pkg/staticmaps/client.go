// Package staticmaps is a client for the Google Maps Static API, the imagery
// provider behind tile sweeps.
package staticmaps

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/tilesweep/internal/geodesy"
	"github.com/sells-group/tilesweep/internal/resilience"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/staticmap"
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 32 << 20

	// NoImageryMarker appears in the placeholder image the provider returns
	// when it has no imagery for a location.
	NoImageryMarker = "Sorry, we have no imagery here"
)

// ErrNoImagery means the provider answered with its "no imagery here"
// placeholder. It is an outcome, not a failure.
var ErrNoImagery = eris.New("staticmaps: no imagery available")

// Client fetches static map images.
type Client interface {
	// URL returns the fully-qualified request URL, API key included.
	URL(req Request) string
	// Fetch downloads the image bytes for req. It returns ErrNoImagery when
	// the provider has nothing for the location.
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// Request describes one square static image.
type Request struct {
	Center    geodesy.GeoPoint
	Zoom      int
	SizePx    int
	Scale     int
	MapType   MapType
	Timestamp int64 // unix seconds for historical imagery; 0 = latest
}

// Validate checks the request against the provider's limits.
func (r Request) Validate() error {
	if err := r.Center.Validate(); err != nil {
		return eris.Wrap(err, "staticmaps: center")
	}
	if r.Zoom < 0 || r.Zoom > 21 {
		return eris.Errorf("staticmaps: zoom %d outside [0, 21]", r.Zoom)
	}
	if r.SizePx <= 0 {
		return eris.Errorf("staticmaps: size must be positive, got %d", r.SizePx)
	}
	return nil
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API endpoint.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles outgoing requests.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

// WithRetry sets the retry policy for transient failures (429, 5xx, timeouts).
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a Static Maps client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("staticmaps", "fetch")
	}
	return c
}

func (c *httpClient) URL(req Request) string {
	q := url.Values{}
	q.Set("center", req.Center.String())
	q.Set("zoom", strconv.Itoa(req.Zoom))
	q.Set("size", strconv.Itoa(req.SizePx)+"x"+strconv.Itoa(req.SizePx))
	if req.Scale > 0 {
		q.Set("scale", strconv.Itoa(req.Scale))
	}
	mt := req.MapType
	if mt == "" {
		mt = MapTypeSatellite
	}
	q.Set("maptype", string(mt))
	if req.Timestamp > 0 {
		q.Set("timestamp", strconv.FormatInt(req.Timestamp, 10))
	}
	q.Set("key", c.apiKey)
	return c.baseURL + "?" + q.Encode()
}

func (c *httpClient) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.fetchOnce(ctx, req)
	})
}

func (c *httpClient) fetchOnce(ctx context.Context, req Request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "staticmaps: rate limit wait")
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(req), nil)
	if err != nil {
		return nil, eris.Wrap(err, "staticmaps: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrapf(err, "staticmaps: fetch %s", req.Center)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "staticmaps: read response"), resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("staticmaps: unexpected status %d for %s: %s", resp.StatusCode, req.Center, snippet(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	if bytes.Contains(body, []byte(NoImageryMarker)) {
		return nil, ErrNoImagery
	}
	if len(body) == 0 {
		return nil, eris.Errorf("staticmaps: empty image for %s", req.Center)
	}
	return body, nil
}

func snippet(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit])
	}
	return string(b)
}
