package proxypool

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// ParseLine turns one proxy list line into an Endpoint. Accepted formats:
//
//	host:port
//	host:port:username:password
//	username:password@host:port
//
// each optionally prefixed with "http://" or "socks5://". Anything else is
// rejected.
func ParseLine(line string) (Endpoint, error) {
	raw := strings.TrimSpace(line)

	protocol := "http"
	switch {
	case strings.HasPrefix(raw, "socks5://"):
		protocol = "socks5"
		raw = strings.TrimPrefix(raw, "socks5://")
	case strings.HasPrefix(raw, "http://"):
		raw = strings.TrimPrefix(raw, "http://")
	}

	if raw == "" {
		return Endpoint{}, fmt.Errorf("invalid proxy format: %q", line)
	}

	if at := strings.LastIndex(raw, "@"); at >= 0 {
		creds, addr := raw[:at], raw[at+1:]
		username, password, ok := strings.Cut(creds, ":")
		if !ok {
			return Endpoint{}, fmt.Errorf("invalid proxy credentials: %q", line)
		}
		host, port, err := splitAddr(addr)
		if err != nil {
			return Endpoint{}, fmt.Errorf("invalid proxy format %q: %w", line, err)
		}
		return Endpoint{Host: host, Port: port, Username: username, Password: password, Protocol: protocol}, nil
	}

	parts := strings.Split(raw, ":")
	switch len(parts) {
	case 2:
		host, port, err := splitAddr(raw)
		if err != nil {
			return Endpoint{}, fmt.Errorf("invalid proxy format %q: %w", line, err)
		}
		return Endpoint{Host: host, Port: port, Protocol: protocol}, nil
	case 4:
		host, port, err := splitAddr(parts[0] + ":" + parts[1])
		if err != nil {
			return Endpoint{}, fmt.Errorf("invalid proxy format %q: %w", line, err)
		}
		return Endpoint{Host: host, Port: port, Username: parts[2], Password: parts[3], Protocol: protocol}, nil
	default:
		return Endpoint{}, fmt.Errorf("invalid proxy format: %q", line)
	}
}

// LoadFile reads a proxy list file, skipping blank lines and '#' comments.
// Malformed lines are logged and dropped rather than failing the whole load;
// a missing file yields an empty slice so the service can still start and
// answer with a configuration error.
func LoadFile(path string) ([]Endpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("proxy pool: proxy list file not found", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("open proxy list: %w", err)
	}
	defer file.Close()

	var endpoints []Endpoint
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		endpoint, parseErr := ParseLine(line)
		if parseErr != nil {
			log.Warn("proxy pool: skipping malformed proxy line", "path", path, "line", lineNo, "error", parseErr)
			continue
		}
		endpoints = append(endpoints, endpoint)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read proxy list: %w", err)
	}

	log.Debug("proxy pool: proxy list loaded", "path", path, "count", len(endpoints))
	return endpoints, nil
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	if host == "" {
		return "", 0, fmt.Errorf("empty host")
	}
	return host, port, nil
}
