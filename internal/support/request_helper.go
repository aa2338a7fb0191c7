package support

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"tubescout/internal/proxypool"
)

// CreateProxyTransport builds a single-use transport that routes every
// request through the given proxy endpoint. Keep-alives are disabled so one
// slow or broken proxy never leaks pooled connections into later attempts.
func CreateProxyTransport(endpoint proxypool.Endpoint, timeout time.Duration) (*http.Transport, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 0,
		}).DialContext,
		DisableKeepAlives:     true,
		MaxIdleConns:          0,
		MaxIdleConnsPerHost:   0,
		IdleConnTimeout:       0,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	switch endpoint.Protocol {
	case "", "http", "https":
		proxyURL := &url.URL{
			Scheme: "http",
			Host:   endpoint.Addr(),
		}
		if endpoint.HasAuth() {
			proxyURL.User = url.UserPassword(endpoint.Username, endpoint.Password)
		}
		transport.Proxy = http.ProxyURL(proxyURL)

	case "socks5":
		var auth *proxy.Auth
		if endpoint.HasAuth() {
			auth = &proxy.Auth{User: endpoint.Username, Password: endpoint.Password}
		}
		socksDialer, err := proxy.SOCKS5("tcp", endpoint.Addr(), auth, &net.Dialer{Timeout: timeout})
		if err != nil {
			return nil, fmt.Errorf("socks5 dialer for %s: %w", endpoint.Redacted(), err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if contextDialer, ok := socksDialer.(proxy.ContextDialer); ok {
				return contextDialer.DialContext(ctx, network, addr)
			}
			return socksDialer.Dial(network, addr)
		}

	default:
		return nil, fmt.Errorf("unsupported proxy protocol %q", endpoint.Protocol)
	}

	return transport, nil
}
