// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/echa/config"
)

const (
	userAgent = "erc725/v1.0"
	mediaType = "application/json"
)

func init() {
	config.SetDefault("erc725.rpc.max_retries", 2)
	config.SetDefault("erc725.rpc.retry_delay", 500*time.Millisecond)
}

// Client manages communication with an Ethereum JSON-RPC endpoint and
// speaks the ERC725Y call surface on top of eth_call.
type Client struct {
	// HTTP client used to communicate with the node.
	client *http.Client
	// Base URL for API requests.
	base *url.URL
	// User agent name for client.
	userAgent string
	// Number of retries
	numRetries int
	// Time between retries
	retryDelay time.Duration
	// request id sequence
	nextId atomic.Uint64
}

// NewClient returns a new JSON-RPC client.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "http://" + baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		client:     httpClient,
		base:       u,
		userAgent:  userAgent,
		numRetries: config.GetInt("erc725.rpc.max_retries"),
		retryDelay: config.GetDuration("erc725.rpc.retry_delay"),
	}
	return c, nil
}

func (c *Client) WithUserAgent(s string) *Client {
	c.userAgent = s
	return c
}

func (c *Client) WithRetry(num int, delay time.Duration) *Client {
	c.numRetries = num
	c.retryDelay = delay
	return c
}

type rpcRequest struct {
	Version string `json:"jsonrpc"`
	Id      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Version string          `json:"jsonrpc"`
	Id      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Call performs one JSON-RPC request and unmarshals the result. RPC
// error objects returned by the node surface as *RPCError. Retries are
// limited to transport-level failures and 5xx replies.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	body, err := json.Marshal(rpcRequest{
		Version: "2.0",
		Id:      c.nextId.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", mediaType)
	req.Header.Add("Accept", mediaType)
	req.Header.Add("User-Agent", c.userAgent)

	log.Debugf("%s %s", method, c.base)
	log.Trace(newLogClosure(func() string {
		d, _ := httputil.DumpRequest(req, true)
		return string(d)
	}))

	var resp *http.Response
	for retries := c.numRetries + 1; ; retries-- {
		resp, err = c.client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			break
		}
		if retries <= 1 {
			break
		}
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
			// continue
		}
	}
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	log.Trace(newLogClosure(func() string {
		d, _ := httputil.DumpResponse(resp, true)
		return string(d)
	}))

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("rpc: %s: %s", method, resp.Status)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("rpc: %s: %w", method, err)
	}
	if rr.Error != nil {
		return rr.Error
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(rr.Result, result)
}
