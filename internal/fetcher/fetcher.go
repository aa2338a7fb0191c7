package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"tubescout/internal/extract"
	"tubescout/internal/proxypool"
	"tubescout/internal/support"
)

// Pool is the slice of proxypool.Pool the fetcher needs. Tests substitute a
// scripted pool to drive the retry loop deterministically.
type Pool interface {
	Select() (proxypool.Endpoint, error)
	ReportSuccess(endpoint proxypool.Endpoint)
	ReportFailure(endpoint proxypool.Endpoint)
	Size() int
}

const (
	DefaultSearchURL    = "https://www.youtube.com/results"
	DefaultTimeout      = 10 * time.Second
	DefaultMinBodyBytes = 1000
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Fetcher runs the search retry loop: select a proxy, issue one request,
// classify the page, report health back to the pool, and either stop on a
// terminal answer or move to the next attempt.
type Fetcher struct {
	pool         Pool
	extractor    extract.Extractor
	sinks        []Sink
	metrics      *Metrics
	searchURL    string
	timeout      time.Duration
	minBodyBytes int
	userAgent    string

	// newTransport is swapped in tests to avoid real proxy dials.
	newTransport func(endpoint proxypool.Endpoint, timeout time.Duration) (*http.Transport, error)
}

type Option func(*Fetcher)

// WithSink registers a destination for terminal results. May be given more
// than once; every sink sees every result.
func WithSink(sink Sink) Option {
	return func(f *Fetcher) {
		if sink != nil {
			f.sinks = append(f.sinks, sink)
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(f *Fetcher) { f.metrics = metrics }
}

func WithSearchURL(searchURL string) Option {
	return func(f *Fetcher) {
		if searchURL != "" {
			f.searchURL = searchURL
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithMinBodyBytes sets the size below which a 200 response is treated as a
// block page instead of a results page.
func WithMinBodyBytes(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.minBodyBytes = n
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(f *Fetcher) {
		if userAgent != "" {
			f.userAgent = userAgent
		}
	}
}

// WithTransportBuilder replaces per-attempt transport construction.
func WithTransportBuilder(build func(endpoint proxypool.Endpoint, timeout time.Duration) (*http.Transport, error)) Option {
	return func(f *Fetcher) {
		if build != nil {
			f.newTransport = build
		}
	}
}

func New(pool Pool, extractor extract.Extractor, opts ...Option) *Fetcher {
	fetcher := &Fetcher{
		pool:         pool,
		extractor:    extractor,
		searchURL:    DefaultSearchURL,
		timeout:      DefaultTimeout,
		minBodyBytes: DefaultMinBodyBytes,
		userAgent:    DefaultUserAgent,
		newTransport: support.CreateProxyTransport,
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch resolves one keyword to a terminal Result. The only error return is
// validation of the keyword itself; every other condition is expressed as a
// Result outcome so the caller always gets a duration.
//
// Attempts are bounded by the pool size. Selection is random, so the same
// proxy may serve more than one attempt, but the total budget matches one
// pass over the pool.
func (f *Fetcher) Fetch(ctx context.Context, keyword string) (Result, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return Result{}, ErrEmptyKeyword
	}

	start := time.Now()
	attempts := f.pool.Size()
	if attempts == 0 {
		return f.finish(Result{
			Keyword: keyword,
			Kind:    Exhausted,
			Detail:  "no proxies configured",
		}, start), nil
	}

	var lastErr string
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return f.finish(Result{
				Keyword: keyword,
				Kind:    TransportError,
				Detail:  ctx.Err().Error(),
			}, start), nil
		}

		endpoint, err := f.pool.Select()
		if err != nil {
			break
		}

		f.metrics.IncAttempt()
		result, done := f.attempt(ctx, keyword, endpoint)
		if done {
			return f.finish(result, start), nil
		}
		if result.Detail != "" {
			lastErr = result.Detail
		}
		log.Debug("search attempt failed",
			"keyword", keyword,
			"proxy", endpoint.Redacted(),
			"attempt", attempt,
			"of", attempts,
			"reason", lastErr)
	}

	if ctx.Err() != nil {
		return f.finish(Result{
			Keyword: keyword,
			Kind:    TransportError,
			Detail:  ctx.Err().Error(),
		}, start), nil
	}

	detail := "all proxy attempts failed"
	if lastErr != "" {
		detail = detail + ": " + lastErr
	}
	return f.finish(Result{
		Keyword: keyword,
		Kind:    Exhausted,
		Detail:  detail,
	}, start), nil
}

// attempt issues one request through one proxy. done reports whether the
// result is terminal; a non-terminal return carries only the failure detail.
func (f *Fetcher) attempt(ctx context.Context, keyword string, endpoint proxypool.Endpoint) (Result, bool) {
	transport, err := f.newTransport(endpoint, f.timeout)
	if err != nil {
		f.reportFailure(endpoint)
		return Result{Detail: err.Error()}, false
	}
	defer transport.CloseIdleConnections()

	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, f.searchQueryURL(keyword), nil)
	if err != nil {
		f.reportFailure(endpoint)
		return Result{Detail: err.Error()}, false
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	client := &http.Client{Transport: transport}
	resp, err := client.Do(req)
	if err != nil {
		// Parent cancellation is the caller's doing, not the proxy's. A
		// per-attempt timeout leaves the parent context intact and counts
		// against the proxy instead.
		if ctx.Err() != nil {
			return Result{Keyword: keyword, Kind: TransportError, Detail: ctx.Err().Error()}, true
		}
		f.reportFailure(endpoint)
		return Result{Detail: err.Error()}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.reportFailure(endpoint)
		return Result{Detail: "unexpected status " + resp.Status}, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.reportFailure(endpoint)
		return Result{Detail: "read body: " + err.Error()}, false
	}
	if len(body) < f.minBodyBytes {
		f.reportFailure(endpoint)
		return Result{Detail: "response too small, likely a block page"}, false
	}

	videoID, err := f.extractor.Extract(body)
	switch {
	case err == nil:
		f.pool.ReportSuccess(endpoint)
		return Result{Keyword: keyword, Kind: Found, VideoID: videoID}, true
	case errors.Is(err, extract.ErrNoResults):
		// The proxy delivered a clean page; the keyword just has no hits.
		f.pool.ReportSuccess(endpoint)
		return Result{Keyword: keyword, Kind: NotFound, Detail: "Video not found"}, true
	default:
		f.reportFailure(endpoint)
		return Result{Detail: err.Error()}, false
	}
}

func (f *Fetcher) reportFailure(endpoint proxypool.Endpoint) {
	f.pool.ReportFailure(endpoint)
	f.metrics.IncProxyFailure()
}

func (f *Fetcher) finish(result Result, start time.Time) Result {
	result.Duration = time.Since(start)
	f.metrics.IncSearch(result.Kind)
	f.metrics.ObserveSearchDuration(result.Duration)
	for _, sink := range f.sinks {
		sink.Record(result)
	}

	logger := log.Info
	if result.Kind == Exhausted || result.Kind == TransportError {
		logger = log.Warn
	}
	logger("search finished",
		"keyword", result.Keyword,
		"outcome", result.Kind.String(),
		"video_id", result.VideoID,
		"duration", result.Duration)
	return result
}

func (f *Fetcher) searchQueryURL(keyword string) string {
	return f.searchURL + "?search_query=" + url.QueryEscape(keyword)
}
