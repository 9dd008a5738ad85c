package apiclient

import (
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the total request timeout.
	DefaultTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
)

// HeaderRequestID correlates a request with backend logs.
const HeaderRequestID = "X-Request-Id"

// NewHTTPClient returns an http.Client with bounded timeouts whose transport
// logs request metadata at debug level.
func NewHTTPClient(timeout time.Duration, log *zap.Logger) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: TLSHandshakeTimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingTransport{next: base, log: log},
	}
}

type loggingTransport struct {
	next http.RoundTripper
	log  *zap.Logger
}

// RoundTrip logs metadata only: no bodies, no headers.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Duration("dur", time.Since(start)),
		zap.String("request_id", req.Header.Get(HeaderRequestID)),
	}
	if err != nil {
		t.log.Debug("http", append(fields, zap.Error(err))...)
		return nil, err
	}
	t.log.Debug("http", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}
