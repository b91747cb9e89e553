// Package transport provides the authenticated, rate-limited JSON client the
// marketplace backends talk through. It classifies every failure as a
// timeout, a connection failure, or a non-2xx API response.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/agentstation/marketsync/pkg/constants"
	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

var tracer = otel.Tracer("marketsync/internal/transport")

// maxErrorBody bounds how much of an error response ends up in an APIError.
const maxErrorBody = 512

// maxResponseBody caps how much of a response is read. Offer pages and
// batch acknowledgements stay far below it.
var maxResponseBody int64 = 32 << 20

// Client performs JSON requests against one marketplace base URL.
type Client struct {
	http        *http.Client
	auth        Authenticator
	limiter     *rate.Limiter
	marketplace string
	baseURL     string
	timeout     time.Duration
	timeoutSet  bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is kept
// unless WithTimeout overrides it; a client without one gets
// DefaultHTTPTimeout. The client is copied before a different timeout is
// set, so it can be shared between accounts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
			c.timeoutSet = true
		}
	}
}

// WithRateLimit paces requests to rps per second. A non-positive rps
// disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = constants.RequestBurst
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a client for marketplace rooted at baseURL.
func New(marketplace, baseURL string, auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http:        &http.Client{Timeout: DefaultHTTPTimeout},
		auth:        auth,
		limiter:     rate.NewLimiter(rate.Limit(constants.DefaultRequestsPerSecond), constants.RequestBurst),
		marketplace: marketplace,
		baseURL:     strings.TrimRight(baseURL, "/"),
		timeout:     DefaultHTTPTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.timeoutSet && c.http.Timeout > 0 {
		c.timeout = c.http.Timeout
	}
	if c.http.Timeout != c.timeout {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// BaseURL returns the root all request paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and decodes the JSON response into target.
func (c *Client) Get(ctx context.Context, path string, query url.Values, target any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, target)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, target any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, target)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, target any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, target)
}

// Do performs an authenticated JSON request. A nil body sends no payload;
// a nil target discards the response. Decoding into *json.RawMessage keeps
// the response verbatim.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, target any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	operation := method + " " + path

	ctx, span := tracer.Start(ctx, c.marketplace+"."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("marketplace", c.marketplace),
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		),
	)
	defer span.End()

	err := c.do(ctx, method, endpoint, operation, body, target, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.Kind(err))
	}
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint, operation string, body, target any, span trace.Span) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.classify(ctx, operation, endpoint, err)
		}
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.NewValidationError("body", nil, "cannot encode request: "+err.Error())
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return errors.NewConnectionError(operation, endpoint, err)
	}
	c.auth.Apply(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return c.classify(ctx, operation, endpoint, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	logging.FromContext(ctx).Trace().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Marketplace request")

	return c.decode(resp, operation, target)
}

// classify maps a failed round trip onto the error taxonomy.
func (c *Client) classify(ctx context.Context, operation, endpoint string, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return errors.NewConnectionError(operation, endpoint, ctx.Err())
	}
	if isTimeout(err) {
		return errors.NewTimeoutError(operation, c.timeout.String(), err)
	}
	return errors.NewConnectionError(operation, endpoint, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}

// decode reads the response, turning non-2xx statuses into an APIError.
func (c *Client) decode(resp *http.Response, operation string, target any) error {
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return errors.NewConnectionError(operation, resp.Request.URL.String(), err)
	}
	oversized := int64(len(data)) > maxResponseBody

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		apiErr := errors.NewAPIError(c.marketplace, resp.StatusCode, msg)
		apiErr.Endpoint = operation
		return apiErr
	}

	if oversized {
		return errors.NewParseError("response", operation, fmt.Errorf("body exceeds %d bytes", maxResponseBody))
	}
	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.NewParseError("response", operation, err)
	}
	return nil
}
