// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package resolver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/echa/config"
	logpkg "github.com/echa/log"
)

const userAgent = "erc725/v1.0"

func init() {
	config.SetDefault("erc725.fetch.max_retries", 2)
	config.SetDefault("erc725.fetch.retry_delay", 500*time.Millisecond)
	config.SetDefault("erc725.fetch.max_size", int64(10<<20))
}

// Client fetches external content over HTTP with bounded retries for
// transient failures. Transport failures are classified through the
// permanent/timeout/network taxonomy and always surface to the caller.
type Client struct {
	// HTTP client used to fetch external content.
	client *http.Client
	// log is a private log instance
	log logpkg.Logger
	// User agent name for client.
	userAgent string
	// Number of retries
	numRetries int
	// Time between retries
	retryDelay time.Duration
	// Response size limit in bytes
	maxSize int64
}

func NewClient() *Client {
	return (&Client{
		client:    http.DefaultClient,
		log:       logpkg.Log,
		userAgent: userAgent,
		maxSize:   config.GetInt64("erc725.fetch.max_size"),
	}).
		WithRetry(
			config.GetInt("erc725.fetch.max_retries"),
			config.GetDuration("erc725.fetch.retry_delay"),
		)
}

func (c *Client) WithLogger(log logpkg.Logger) *Client {
	c.log = log
	return c
}

func (c *Client) WithHttpClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

func (c *Client) WithUserAgent(s string) *Client {
	c.userAgent = s
	return c
}

func (c *Client) WithRetry(num int, delay time.Duration) *Client {
	c.numRetries = num
	if num < 0 {
		c.numRetries = int(^uint(0)>>1) - 1 // max int - 1
	}
	c.retryDelay = delay
	return c
}

func (c *Client) WithSizeLimit(n int64) *Client {
	c.maxSize = n
	return c
}

// Get fetches a url and returns the raw response body.
func (c *Client) Get(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, WrapError(err, ErrPermanent)
	}
	if u.Host == "" {
		return nil, WrapError(fmt.Errorf("missing host in url %q", location), ErrPermanent)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, WrapError(err, ErrPermanent)
	}
	req.Header.Add("User-Agent", c.userAgent)

	c.log.Debugf("%s %s %s", req.Method, req.URL, req.Proto)
	c.log.Trace(logpkg.NewClosure(func() string {
		d, _ := httputil.DumpRequest(req, true)
		return string(d)
	}))

	var resp *http.Response
	for retries := c.numRetries + 1; ; retries-- {
		resp, err = c.client.Do(req)
		if err == nil && !IsRetriableStatusCode(resp.StatusCode) {
			break
		}
		if err != nil && !IsNetError(err) {
			return nil, WrapNetError(err)
		}
		if retries <= 1 {
			break
		}
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
			// continue
		}
	}
	if err != nil {
		return nil, WrapNetError(err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	c.log.Trace(logpkg.NewClosure(func() string {
		d, _ := httputil.DumpResponse(resp, false)
		return string(d)
	}))

	if resp.StatusCode/100 != 2 {
		return nil, WrapNetError(handleError(resp))
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, io.LimitReader(resp.Body, c.maxSize)); err != nil {
		return nil, WrapNetError(err)
	}
	return buf.Bytes(), nil
}

func handleError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &httpError{
		request:    resp.Request.Method + " " + resp.Request.URL.String(),
		status:     resp.Status,
		statusCode: resp.StatusCode,
		body:       body,
	}
}
