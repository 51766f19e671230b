package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pfrederiksen/vols1365/internal/logger"
)

const (
	UserAgent      = "Mozilla/5.0"
	Accept         = "application/xml,text/xml;q=0.9,application/json;q=0.8,*/*;q=0.7"
	AcceptLanguage = "ko,en;q=0.8"
	DefaultTimeout = 45 * time.Second

	// maxConnsPerHost bounds keep-alive sockets shared by every pool.
	maxConnsPerHost = 32
)

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the response Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// NewTransport returns the keep-alive transport shared by all pools. It
// dials IPv4 only and ignores proxy settings. Accept-Encoding is left to the
// transport, which requests and decodes gzip transparently and never
// advertises br.
func NewTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy: nil,
		DialContext: func(ctx context.Context, _, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp4", addr)
		},
		MaxIdleConns:          maxConnsPerHost * 2,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// Client is a bounded pool of in-flight requests. Callers beyond the limit
// wait in FIFO order.
type Client struct {
	name    string
	http    *http.Client
	sem     *semaphore.Weighted
	limit   int64
	timeout time.Duration
}

// New creates a pool named name (used in logs and metrics) allowing limit
// concurrent requests over transport, each bounded by timeout.
func New(name string, transport http.RoundTripper, limit int, timeout time.Duration) *Client {
	if limit < 1 {
		limit = 1
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if transport == nil {
		transport = NewTransport()
	}
	return &Client{
		name:    name,
		http:    &http.Client{Transport: transport},
		sem:     semaphore.NewWeighted(int64(limit)),
		limit:   int64(limit),
		timeout: timeout,
	}
}

// Name returns the pool name.
func (c *Client) Name() string {
	return c.name
}

// Limit returns the pool's concurrency bound.
func (c *Client) Limit() int {
	return int(c.limit)
}

// Get issues a GET for rawURL. See Do.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.Do(ctx, req)
}

// Do waits for a pool slot, sends req with the default headers and the pool
// timeout, and reads the whole body.
//
// A 429 or 5xx status returns the response together with a retriable
// *StatusError. Other 4xx statuses return a non-retriable *StatusError.
// Transport failures are returned as-is.
func (c *Client) Do(ctx context.Context, req *http.Request) (*Response, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req = req.WithContext(ctx)

	setDefault(req.Header, "User-Agent", UserAgent)
	setDefault(req.Header, "Accept", Accept)
	setDefault(req.Header, "Accept-Language", AcceptLanguage)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.IncrCounter("http." + c.name + ".errors")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	logger.RecordTiming("http."+c.name, time.Since(start))
	logger.IncrCounter("http." + c.name + ".requests")
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}
	if resp.StatusCode >= 400 {
		return out, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        redact(req.URL.String()),
		}
	}
	return out, nil
}

func setDefault(h http.Header, key, value string) {
	if h.Get(key) == "" {
		h.Set(key, value)
	}
}
