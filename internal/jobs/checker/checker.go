package checker

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"tubescout/internal/fetcher"
	"tubescout/internal/proxypool"
	"tubescout/internal/support"
)

const (
	DefaultInterval = 5 * time.Minute
	DefaultThreads  = 8
	DefaultProbeURL = "https://www.youtube.com/generate_204"
	DefaultTimeout  = 10 * time.Second
)

// Checker probes every configured proxy on a schedule and feeds the results
// back into the pool. A proxy that answers the probe has its failure streak
// cleared even when searches are idle; a dead one accumulates failures until
// the pool bans it.
type Checker struct {
	pool      fetcher.Pool
	endpoints []proxypool.Endpoint
	interval  time.Duration
	threads   int
	probeURL  string
	timeout   time.Duration

	newTransport func(endpoint proxypool.Endpoint, timeout time.Duration) (*http.Transport, error)
}

type Option func(*Checker)

func WithInterval(interval time.Duration) Option {
	return func(c *Checker) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

func WithThreads(threads int) Option {
	return func(c *Checker) {
		if threads > 0 {
			c.threads = threads
		}
	}
}

func WithProbeURL(probeURL string) Option {
	return func(c *Checker) {
		if probeURL != "" {
			c.probeURL = probeURL
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Checker) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithTransportBuilder replaces probe transport construction in tests.
func WithTransportBuilder(build func(endpoint proxypool.Endpoint, timeout time.Duration) (*http.Transport, error)) Option {
	return func(c *Checker) {
		if build != nil {
			c.newTransport = build
		}
	}
}

func New(pool fetcher.Pool, endpoints []proxypool.Endpoint, opts ...Option) *Checker {
	checker := &Checker{
		pool:         pool,
		endpoints:    endpoints,
		interval:     DefaultInterval,
		threads:      DefaultThreads,
		probeURL:     DefaultProbeURL,
		timeout:      DefaultTimeout,
		newTransport: support.CreateProxyTransport,
	}
	for _, opt := range opts {
		opt(checker)
	}
	return checker
}

// Start sweeps once immediately, then on every tick until the context ends.
func (c *Checker) Start(ctx context.Context) {
	c.Sweep(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Launch runs Start on its own goroutine and returns its cancel func.
func Launch(parent context.Context, checker *Checker) context.CancelFunc {
	ctx, cancel := context.WithCancel(parent)
	go checker.Start(ctx)
	return cancel
}

// Sweep probes every endpoint with bounded concurrency and reports each
// result to the pool.
func (c *Checker) Sweep(ctx context.Context) {
	if len(c.endpoints) == 0 {
		return
	}

	start := time.Now()
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.threads)

	for _, endpoint := range c.endpoints {
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return nil
			}
			if c.probe(groupCtx, endpoint) {
				c.pool.ReportSuccess(endpoint)
			} else {
				c.pool.ReportFailure(endpoint)
			}
			return nil
		})
	}

	group.Wait()
	log.Debug("proxy sweep finished", "proxies", len(c.endpoints), "duration", time.Since(start))
}

func (c *Checker) probe(ctx context.Context, endpoint proxypool.Endpoint) bool {
	transport, err := c.newTransport(endpoint, c.timeout)
	if err != nil {
		log.Debug("proxy probe: build transport", "proxy", endpoint.Redacted(), "error", err)
		return false
	}
	defer transport.CloseIdleConnections()

	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.probeURL, nil)
	if err != nil {
		return false
	}

	client := &http.Client{Transport: transport}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < http.StatusBadRequest
}
