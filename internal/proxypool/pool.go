package proxypool

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrNoProxies is returned by Select when the pool was configured without a
// single endpoint. This is a configuration fault, not a transient condition.
var ErrNoProxies = errors.New("no proxies configured")

const DefaultBanThreshold = 5

// Endpoint identifies one upstream proxy. Two endpoints are the same proxy
// only if host, port and credentials all match.
type Endpoint struct {
	Host     string
	Port     int
	Username string
	Password string
	Protocol string // "http" or "socks5", defaults to "http"
}

func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) HasAuth() bool {
	return e.Username != "" && e.Password != ""
}

// Redacted is safe for logs: credentials are never printed.
func (e Endpoint) Redacted() string {
	return e.Addr()
}

type endpointState struct {
	failures int
	banned   bool
}

// EndpointStatus is a read-only view of one endpoint's health, served by the
// proxy listing API.
type EndpointStatus struct {
	Proxy    string `json:"proxy"`
	Failures int    `json:"failures"`
	Status   string `json:"status"`
}

// Pool owns the proxy endpoints and their health state. All health mutation
// goes through a single pool-wide mutex: the global-reset path touches every
// endpoint at once, so per-endpoint locking would buy nothing.
type Pool struct {
	mu        sync.Mutex
	endpoints []Endpoint
	states    []endpointState
	threshold int
	intn      func(n int) int
}

type Option func(*Pool)

// WithBanThreshold overrides the consecutive-failure count that bans an
// endpoint. Values below 1 keep the default.
func WithBanThreshold(threshold int) Option {
	return func(p *Pool) {
		if threshold >= 1 {
			p.threshold = threshold
		}
	}
}

// WithRandSource replaces the selection randomness. Tests use it to make
// Select deterministic.
func WithRandSource(intn func(n int) int) Option {
	return func(p *Pool) {
		if intn != nil {
			p.intn = intn
		}
	}
}

func New(endpoints []Endpoint, opts ...Option) *Pool {
	pool := &Pool{
		endpoints: make([]Endpoint, len(endpoints)),
		states:    make([]endpointState, len(endpoints)),
		threshold: DefaultBanThreshold,
		intn:      rand.IntN,
	}
	copy(pool.endpoints, endpoints)

	for _, opt := range opts {
		opt(pool)
	}

	return pool
}

// Select picks a proxy uniformly at random among unbanned endpoints. Random
// selection instead of round-robin keeps the upstream from seeing a
// predictable cycling pattern. If every endpoint is banned the pool resets
// all health state first, so selection never deadlocks while at least one
// endpoint exists.
func (p *Pool) Select() (Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.endpoints) == 0 {
		return Endpoint{}, ErrNoProxies
	}

	candidates := p.activeIndexesLocked()
	if len(candidates) == 0 {
		log.Warn("proxy pool: all proxies banned, resetting failure counts", "size", len(p.endpoints))
		p.resetLocked()
		candidates = p.activeIndexesLocked()
	}

	idx := candidates[p.intn(len(candidates))]
	return p.endpoints[idx], nil
}

// ReportSuccess clears the consecutive-failure count for the endpoint.
// Unknown endpoints are ignored.
func (p *Pool) ReportSuccess(endpoint Endpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.indexOfLocked(endpoint)
	if !ok {
		return
	}
	p.states[idx].failures = 0
}

// ReportFailure increments the endpoint's consecutive-failure count and bans
// it once the threshold is reached. A ban always resets the count to zero.
func (p *Pool) ReportFailure(endpoint Endpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.indexOfLocked(endpoint)
	if !ok {
		return
	}

	p.states[idx].failures++
	if p.states[idx].failures >= p.threshold {
		p.states[idx].banned = true
		p.states[idx].failures = 0
		log.Warn("proxy pool: proxy banned after repeated failures", "proxy", endpoint.Redacted(), "threshold", p.threshold)
		return
	}

	log.Debug("proxy pool: proxy failure recorded", "proxy", endpoint.Redacted(), "failures", p.states[idx].failures)
}

// Size reports the total configured endpoint count, banned or not. The
// fetcher uses it to bound retry attempts.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.endpoints)
}

// Snapshot lists every endpoint with its current health, credentials
// redacted.
func (p *Pool) Snapshot() []EndpointStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]EndpointStatus, 0, len(p.endpoints))
	for i, endpoint := range p.endpoints {
		status := "active"
		if p.states[i].banned {
			status = "banned"
		}
		statuses = append(statuses, EndpointStatus{
			Proxy:    endpoint.Redacted(),
			Failures: p.states[i].failures,
			Status:   status,
		})
	}
	return statuses
}

func (p *Pool) activeIndexesLocked() []int {
	active := make([]int, 0, len(p.endpoints))
	for i := range p.states {
		if !p.states[i].banned {
			active = append(active, i)
		}
	}
	return active
}

func (p *Pool) resetLocked() {
	for i := range p.states {
		p.states[i] = endpointState{}
	}
}

func (p *Pool) indexOfLocked(endpoint Endpoint) (int, bool) {
	for i, candidate := range p.endpoints {
		if candidate == endpoint {
			return i, true
		}
	}
	return 0, false
}

// String implements fmt.Stringer for debug logging.
func (p *Pool) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	banned := 0
	for i := range p.states {
		if p.states[i].banned {
			banned++
		}
	}
	return fmt.Sprintf("pool(size=%d banned=%d)", len(p.endpoints), banned)
}
