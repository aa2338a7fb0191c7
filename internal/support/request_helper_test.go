package support

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tubescout/internal/proxypool"
)

func TestCreateProxyTransport_ConfiguresHTTPProxyURL(t *testing.T) {
	endpoint := proxypool.Endpoint{
		Host:     "192.0.2.10",
		Port:     8080,
		Username: "user",
		Password: "pass",
		Protocol: "http",
	}

	transport, err := CreateProxyTransport(endpoint, 5*time.Second)
	if err != nil {
		t.Fatalf("CreateProxyTransport returned error: %v", err)
	}
	if transport.Proxy == nil {
		t.Fatal("expected proxy function to be configured")
	}
	if !transport.DisableKeepAlives {
		t.Fatal("expected keep-alives to be disabled")
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	proxyURL, err := transport.Proxy(req)
	if err != nil {
		t.Fatalf("proxy func returned error: %v", err)
	}
	if proxyURL.Scheme != "http" {
		t.Fatalf("proxy scheme = %q, want http", proxyURL.Scheme)
	}
	if proxyURL.Host != "192.0.2.10:8080" {
		t.Fatalf("proxy host = %q, want 192.0.2.10:8080", proxyURL.Host)
	}

	user := proxyURL.User.Username()
	pass, _ := proxyURL.User.Password()
	if user != "user" || pass != "pass" {
		t.Fatalf("proxy credentials = %s:%s, want user:pass", user, pass)
	}
}

func TestCreateProxyTransport_NoCredentialsWithoutAuth(t *testing.T) {
	endpoint := proxypool.Endpoint{Host: "192.0.2.10", Port: 8080}

	transport, err := CreateProxyTransport(endpoint, 5*time.Second)
	if err != nil {
		t.Fatalf("CreateProxyTransport returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	proxyURL, err := transport.Proxy(req)
	if err != nil {
		t.Fatalf("proxy func returned error: %v", err)
	}
	if proxyURL.User != nil {
		t.Fatal("expected no credentials for proxy without auth")
	}
}

func TestCreateProxyTransport_SocksDialerReplacesProxyFunc(t *testing.T) {
	endpoint := proxypool.Endpoint{Host: "192.0.2.10", Port: 1080, Protocol: "socks5"}

	transport, err := CreateProxyTransport(endpoint, 5*time.Second)
	if err != nil {
		t.Fatalf("CreateProxyTransport returned error: %v", err)
	}
	if transport.Proxy != nil {
		t.Fatal("socks5 transport should not set an HTTP proxy URL")
	}
	if transport.DialContext == nil {
		t.Fatal("socks5 transport must override DialContext")
	}
}

func TestCreateProxyTransport_RejectsUnknownProtocol(t *testing.T) {
	endpoint := proxypool.Endpoint{Host: "192.0.2.10", Port: 1080, Protocol: "socks9"}

	if _, err := CreateProxyTransport(endpoint, 5*time.Second); err == nil {
		t.Fatal("expected error for unsupported protocol")
	}
}
