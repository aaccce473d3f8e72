package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"time"
)

// Mirrors are given this long to connect and to start answering. A
// transfer already under way has no limit.
const (
	httpDialTimeout           = 30 * time.Second
	httpResponseHeaderTimeout = 60 * time.Second
)

func newHTTPClient(responseHeaderTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   httpDialTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = httpDialTimeout
	transport.ResponseHeaderTimeout = responseHeaderTimeout
	return &http.Client{Transport: transport}
}

type httpBackend struct {
	location string
	base     *url.URL
	client   *http.Client
}

func newHTTPBackend(location string) *httpBackend {
	return &httpBackend{
		location: location,
		client:   newHTTPClient(httpResponseHeaderTimeout),
	}
}

func (b *httpBackend) prepare(_ context.Context) error {
	u, err := url.Parse(b.location)
	if err != nil {
		return fmt.Errorf("invalid URL %s: %w", b.location, err)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %s: missing host", b.location)
	}
	b.base = u
	return nil
}

func (b *httpBackend) cleanup() error {
	return nil
}

func (b *httpBackend) fileURL(name string) (string, error) {
	if b.base == nil {
		return "", fmt.Errorf("location %s not prepared", b.location)
	}
	u := *b.base
	u.Path = path.Join("/", u.Path, name)
	return u.String(), nil
}

func (b *httpBackend) exists(ctx context.Context, name string) (bool, error) {
	target, err := b.fileURL(name)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false, err
	}
	_ = resp.Body.Close()

	// Some mirrors refuse HEAD; retry with a GET we immediately abandon.
	if resp.StatusCode == http.StatusMethodNotAllowed {
		rc, _, err := b.open(ctx, name)
		if err != nil {
			return false, nil
		}
		_ = rc.Close()
		return true, nil
	}

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

func (b *httpBackend) open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	target, err := b.fileURL(name)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, 0, fmt.Errorf("GET %s: %s", target, resp.Status)
	}

	return resp.Body, resp.ContentLength, nil
}
