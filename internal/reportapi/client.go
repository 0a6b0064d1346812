// Package reportapi is the HTTP client for the reconciliation report
// backend (/api/dates, /api/diff, /api/prod_row, /api/ticks).
package reportapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"reconviewer/internal/logger"
	"reconviewer/internal/model"
)

const (
	endpointDates   = "dates"
	endpointDiff    = "diff"
	endpointCompare = "prod_row"
	endpointTicks   = "ticks"
)

// Endpoints lists the endpoint labels used in metrics and latency stats.
var Endpoints = []string{endpointDates, endpointDiff, endpointCompare, endpointTicks}

// Request outcomes reported to a Recorder.
const (
	OutcomeOK          = "ok"
	OutcomeCached      = "cached"
	OutcomeBackendErr  = "backend_error"
	OutcomeTransport   = "transport_error"
	OutcomeCircuitOpen = "circuit_open"
)

// Recorder receives client telemetry. internal/metrics implements it.
type Recorder interface {
	BackendRequest(endpoint, outcome string, d time.Duration)
	CacheLookup(result string)
	BreakerChanged(state int)
}

type nopRecorder struct{}

func (nopRecorder) BackendRequest(string, string, time.Duration) {}
func (nopRecorder) CacheLookup(string)                           {}
func (nopRecorder) BreakerChanged(int)                           {}

// Options configures a Client.
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	RetryMax        int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	BreakerFailures int
	BreakerReset    time.Duration

	// Cache, when set, stores successful diff, prod_row and ticks payloads.
	// The date catalog is always fetched live.
	Cache    model.ResponseCache
	Recorder Recorder
	Logger   *slog.Logger
}

// Client implements model.Backend over HTTP.
type Client struct {
	base    string
	http    *retryablehttp.Client
	breaker *Breaker
	cache   model.ResponseCache
	rec     Recorder
	log     *slog.Logger
	latency map[string]*LatencyTracker
}

var _ model.Backend = (*Client)(nil)

// New creates a client for opts.BaseURL.
func New(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	rc.HTTPClient.Timeout = opts.Timeout
	rc.Logger = opts.Logger.With(slog.String("component", "reportapi"))
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		base:    opts.BaseURL,
		http:    rc,
		breaker: NewBreaker(opts.BreakerFailures, opts.BreakerReset),
		cache:   opts.Cache,
		rec:     opts.Recorder,
		log:     opts.Logger,
		latency: make(map[string]*LatencyTracker, len(Endpoints)),
	}
	for _, ep := range Endpoints {
		c.latency[ep] = NewLatencyTracker(1024)
	}
	c.breaker.OnStateChange = func(from, to BreakerState) {
		c.log.Warn("[reportapi] circuit breaker state change",
			slog.String("from", from.String()), slog.String("to", to.String()))
		c.rec.BreakerChanged(int(to))
	}
	return c
}

// retryPolicy retries connection failures and overload statuses only. A
// 500 from the report backend carries a logical error and is not retried.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// BreakerState returns the backend circuit breaker state.
func (c *Client) BreakerState() BreakerState {
	return c.breaker.State()
}

// Latency returns the p50/p95/p99 latency in milliseconds for an endpoint.
func (c *Client) Latency(endpoint string) (p50, p95, p99 float64) {
	lt, ok := c.latency[endpoint]
	if !ok {
		return 0, 0, 0
	}
	return lt.Percentiles()
}

// Ping checks that the backend answers the date catalog.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListDates(ctx)
	return err
}

// ListDates implements model.Backend.
func (c *Client) ListDates(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, endpointDates, "/api/dates")
	if err != nil {
		return nil, err
	}
	return decodeDates(body)
}

// FetchDiffReport implements model.Backend.
func (c *Client) FetchDiffReport(ctx context.Context, q model.DiffReportQuery) (*model.DiffReport, error) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PageSize))
	column := q.Column
	if column == "" {
		column = model.AllColumns
	}
	v.Set("column", column)
	path := "/api/diff/" + url.PathEscape(q.Date) + "?" + v.Encode()

	return fetchDecoded(ctx, c, endpointDiff, path, func(b []byte) (*model.DiffReport, error) {
		return decodeDiffReport(b, q)
	})
}

// FetchCompare implements model.Backend.
func (c *Client) FetchCompare(ctx context.Context, q model.CompareQuery) (*model.CompareResult, error) {
	v := url.Values{}
	v.Set("date", q.Date)
	v.Set("term", q.Term)
	v.Set("strike", q.Strike)
	v.Set("time", q.Time)
	return fetchDecoded(ctx, c, endpointCompare, "/api/prod_row?"+v.Encode(), decodeCompare)
}

// FetchTicks implements model.Backend.
func (c *Client) FetchTicks(ctx context.Context, q model.TickQuery) (*model.TickResult, error) {
	v := url.Values{}
	v.Set("date", q.Date)
	v.Set("term", q.Term)
	v.Set("strike", q.Strike)
	v.Set("cp", string(q.Side))
	v.Set("sys_id", optString(q.SysID))
	v.Set("prev_sys_id", optString(q.PrevSysID))
	setOpt(v, "curr_start", q.CurrStart)
	setOpt(v, "curr_end", q.CurrEnd)
	setOpt(v, "prev_start", q.PrevStart)
	setOpt(v, "prev_end", q.PrevEnd)
	return fetchDecoded(ctx, c, endpointTicks, "/api/ticks?"+v.Encode(), decodeTicks)
}

func optString(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func setOpt(v url.Values, key string, p *int64) {
	if p != nil {
		v.Set(key, strconv.FormatInt(*p, 10))
	}
}

// fetchDecoded serves path from the cache when possible. Only payloads that
// decode cleanly are written back, so logical errors are never cached.
func fetchDecoded[T any](ctx context.Context, c *Client, endpoint, path string, decode func([]byte) (T, error)) (T, error) {
	var zero T
	if body, ok := c.cacheGet(ctx, path); ok {
		if out, err := decode(body); err == nil {
			c.rec.BackendRequest(endpoint, OutcomeCached, 0)
			return out, nil
		}
		c.log.Warn("[reportapi] dropping undecodable cache entry",
			append(logger.LogWithTrace(ctx), slog.String("key", path))...)
	}

	body, err := c.get(ctx, endpoint, path)
	if err != nil {
		return zero, err
	}
	out, err := decode(body)
	if err != nil {
		return zero, err
	}
	c.cachePut(ctx, path, body)
	return out, nil
}

func (c *Client) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	body, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.rec.CacheLookup("error")
		c.log.Warn("[reportapi] cache read failed, bypassing",
			append(logger.LogWithTrace(ctx), slog.String("error", err.Error()))...)
		return nil, false
	case !ok:
		c.rec.CacheLookup("miss")
		return nil, false
	}
	c.rec.CacheLookup("hit")
	return body, true
}

func (c *Client) cachePut(ctx context.Context, key string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(ctx, key, body); err != nil {
		c.log.Warn("[reportapi] cache write failed",
			append(logger.LogWithTrace(ctx), slog.String("error", err.Error()))...)
	}
}

// get performs one GET through the breaker and returns the body of a 2xx
// response. Non-2xx responses become *model.BackendError carrying the
// backend's {"error": "..."} message when present. Only transport failures
// and 5xx statuses count against the breaker.
func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	start := time.Now()
	var (
		body     []byte
		rejected error
	)
	err := c.breaker.Execute(func() error {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if tid := logger.TraceID(ctx); tid != "" {
			req.Header.Set("X-Request-ID", tid)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", endpoint, err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%s: read body: %w", endpoint, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			be := &model.BackendError{
				Endpoint: endpoint,
				Status:   resp.StatusCode,
				Message:  gjson.GetBytes(body, "error").String(),
			}
			if resp.StatusCode >= 500 {
				return be
			}
			rejected = be
		}
		return nil
	})
	if err == nil {
		err = rejected
	}
	took := time.Since(start)

	var be *model.BackendError
	switch {
	case err == nil:
		c.latency[endpoint].Record(float64(took.Microseconds()) / 1000)
		c.rec.BackendRequest(endpoint, OutcomeOK, took)
	case errors.Is(err, ErrCircuitOpen):
		c.rec.BackendRequest(endpoint, OutcomeCircuitOpen, took)
	case errors.As(err, &be):
		c.latency[endpoint].Record(float64(took.Microseconds()) / 1000)
		c.rec.BackendRequest(endpoint, OutcomeBackendErr, took)
	default:
		c.rec.BackendRequest(endpoint, OutcomeTransport, took)
	}
	if err != nil {
		c.log.Debug("[reportapi] request failed",
			append(logger.LogWithTrace(ctx),
				slog.String("endpoint", endpoint),
				slog.String("error", err.Error()),
				slog.Duration("took", took))...)
	}
	return body, err
}
