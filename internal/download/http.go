package download

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	idleConnTimeout = 90 * time.Second
	copyBufferSize  = 8192
)

// HTTPTransport streams a GET response body to the destination writer.
// The timeout bounds connect, TLS handshake, response headers and every
// individual body read; a slow but progressing transfer is never cut off.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// NewHTTPTransport creates an HTTP transport with the given per-operation timeout
func NewHTTPTransport(timeout time.Duration, userAgent string) *HTTPTransport {
	dialer := &net.Dialer{Timeout: timeout}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       idleConnTimeout,
	}

	return &HTTPTransport{
		client:    &http.Client{Transport: transport},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Fetch implements Transport
func (t *HTTPTransport) Fetch(ctx context.Context, locator *url.URL, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body := newIdleReader(resp.Body, t.timeout, cancel)
	defer body.stop()

	if _, err := io.CopyBuffer(w, body, make([]byte, copyBufferSize)); err != nil {
		if body.expired() {
			return fmt.Errorf("no data received for %s", t.timeout)
		}
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

// idleReader cancels the request when no read completes within timeout
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer

	mu    sync.Mutex
	fired bool
}

func newIdleReader(r io.Reader, timeout time.Duration, cancel context.CancelFunc) *idleReader {
	ir := &idleReader{r: r, timeout: timeout}
	ir.timer = time.AfterFunc(timeout, func() {
		ir.mu.Lock()
		ir.fired = true
		ir.mu.Unlock()
		cancel()
	})
	return ir
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.timer.Reset(ir.timeout)
	}
	return n, err
}

func (ir *idleReader) stop() {
	ir.timer.Stop()
}

func (ir *idleReader) expired() bool {
	ir.mu.Lock()
	defer ir.mu.Unlock()
	return ir.fired
}
