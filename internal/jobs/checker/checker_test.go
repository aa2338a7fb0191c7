package checker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tubescout/internal/proxypool"
)

type recordingPool struct {
	mu        sync.Mutex
	successes []proxypool.Endpoint
	failures  []proxypool.Endpoint
}

func (r *recordingPool) Select() (proxypool.Endpoint, error) {
	return proxypool.Endpoint{}, proxypool.ErrNoProxies
}

func (r *recordingPool) ReportSuccess(endpoint proxypool.Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, endpoint)
}

func (r *recordingPool) ReportFailure(endpoint proxypool.Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, endpoint)
}

func (r *recordingPool) Size() int { return 0 }

func TestSweepReportsProbeResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	endpoints := []proxypool.Endpoint{
		{Host: "10.0.0.1", Port: 8001},
		{Host: "10.0.0.2", Port: 8002},
		{Host: "10.0.0.3", Port: 8003},
	}
	pool := &recordingPool{}

	// The second endpoint fails at transport construction; the rest reach
	// the probe server directly.
	checker := New(pool, endpoints,
		WithProbeURL(server.URL),
		WithThreads(2),
		WithTimeout(2*time.Second),
		WithTransportBuilder(func(endpoint proxypool.Endpoint, _ time.Duration) (*http.Transport, error) {
			if endpoint.Port == 8002 {
				return nil, errors.New("unreachable")
			}
			return &http.Transport{DisableKeepAlives: true}, nil
		}),
	)

	checker.Sweep(context.Background())

	if len(pool.successes) != 2 {
		t.Fatalf("successes = %d, want 2", len(pool.successes))
	}
	if len(pool.failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(pool.failures))
	}
	if pool.failures[0].Port != 8002 {
		t.Fatalf("failed endpoint port = %d, want 8002", pool.failures[0].Port)
	}
}

func TestSweepTreatsErrorStatusAsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusProxyAuthRequired)
	}))
	defer server.Close()

	pool := &recordingPool{}
	checker := New(pool, []proxypool.Endpoint{{Host: "10.0.0.1", Port: 8001}},
		WithProbeURL(server.URL),
		WithTransportBuilder(func(proxypool.Endpoint, time.Duration) (*http.Transport, error) {
			return &http.Transport{DisableKeepAlives: true}, nil
		}),
	)

	checker.Sweep(context.Background())

	if len(pool.failures) != 1 || len(pool.successes) != 0 {
		t.Fatalf("successes = %d failures = %d, want 0 and 1", len(pool.successes), len(pool.failures))
	}
}

func TestSweepWithNoEndpointsIsANoop(t *testing.T) {
	pool := &recordingPool{}
	checker := New(pool, nil)

	checker.Sweep(context.Background())

	if len(pool.successes) != 0 || len(pool.failures) != 0 {
		t.Fatal("sweep without endpoints should not report anything")
	}
}

func TestLaunchStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	pool := &recordingPool{}
	checker := New(pool, []proxypool.Endpoint{{Host: "10.0.0.1", Port: 8001}},
		WithProbeURL(server.URL),
		WithInterval(time.Hour),
		WithTransportBuilder(func(proxypool.Endpoint, time.Duration) (*http.Transport, error) {
			return &http.Transport{DisableKeepAlives: true}, nil
		}),
	)

	cancel := Launch(context.Background(), checker)
	defer cancel()

	deadline := time.After(2 * time.Second)
	for {
		pool.mu.Lock()
		done := len(pool.successes) == 1
		pool.mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("initial sweep never reported")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
