// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"blockwatch.cc/erc725/schema"
)

const testAddr = "0x1234567890abcdef1234567890abcdef12345678"

// newTestClient starts a JSON-RPC stub that answers every eth_call with
// the hex result produced by fn from the decoded calldata.
func newTestClient(t *testing.T, fn func(data []byte) []byte) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Method != "eth_call" {
			t.Errorf("unexpected method %q", req.Method)
		}
		params := req.Params.([]any)
		call := params[0].(map[string]any)
		data, err := hex.DecodeString(call["data"].(string)[2:])
		if err != nil {
			t.Errorf("bad calldata: %v", err)
		}
		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      req.Id,
			"result":  "0x" + hex.EncodeToString(fn(data)),
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c.WithRetry(0, 0)
}

func TestGetData(t *testing.T) {
	c := newTestClient(t, func(data []byte) []byte {
		want := encodeGetData(testKey1)
		if hex.EncodeToString(data) != hex.EncodeToString(want) {
			t.Errorf("calldata mismatch:\nhave=%x\nwant=%x", data, want)
		}
		return append(word(wordSize), append(word(5), padRight([]byte("hello"))...)...)
	})
	val, err := c.GetData(context.Background(), testAddr, testKey1)
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if string(val) != "hello" {
		t.Errorf("value mismatch: have=%q want=%q", val, "hello")
	}
}

func TestGetDataBatch(t *testing.T) {
	c := newTestClient(t, func(data []byte) []byte {
		return append(word(wordSize), encodeBytesArray([][]byte{[]byte("a"), nil})...)
	})
	entries, err := c.GetDataBatch(context.Background(), testAddr, []schema.Key{testKey1, testKey2})
	if err != nil {
		t.Fatalf("GetDataBatch: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entry count mismatch: have=%d want=2", len(entries))
	}
	if !entries[0].Key.Equal(testKey1) || !entries[1].Key.Equal(testKey2) {
		t.Errorf("entry keys not zipped with request order")
	}
	if string(entries[0].Value) != "a" || entries[1].Value != nil {
		t.Errorf("entry values mismatch: %x %x", entries[0].Value, entries[1].Value)
	}
}

func TestGetDataBatchCountMismatch(t *testing.T) {
	c := newTestClient(t, func(data []byte) []byte {
		return append(word(wordSize), encodeBytesArray([][]byte{[]byte("a")})...)
	})
	_, err := c.GetDataBatch(context.Background(), testAddr, []schema.Key{testKey1, testKey2})
	if err == nil {
		t.Fatal("expected count mismatch error")
	}
}

func TestOwner(t *testing.T) {
	c := newTestClient(t, func(data []byte) []byte {
		if hex.EncodeToString(data) != hex.EncodeToString(encodeOwner()) {
			t.Errorf("calldata mismatch: %x", data)
		}
		buf := make([]byte, wordSize)
		for i := 12; i < wordSize; i++ {
			buf[i] = 0xfe
		}
		return buf
	})
	owner, err := c.Owner(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("Owner: %v", err)
	}
	if want := "0xfefefefefefefefefefefefefefefefefefefefe"; owner != want {
		t.Errorf("owner mismatch: have=%s want=%s", owner, want)
	}
}

func TestRPCErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.Id,
			"error":   map[string]any{"code": -32000, "message": "execution reverted"},
		})
	}))
	defer srv.Close()
	c, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	_, err = c.WithRetry(0, 0).GetData(context.Background(), testAddr, testKey1)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *RPCError, got %v", err)
	}
	if rpcErr.Code != -32000 {
		t.Errorf("code mismatch: have=%d want=-32000", rpcErr.Code)
	}
}

func TestInvalidAddress(t *testing.T) {
	c := newTestClient(t, func(data []byte) []byte { return nil })
	for _, addr := range []string{"", "0x1234", "0xzz34567890abcdef1234567890abcdef12345678"} {
		if _, err := c.GetData(context.Background(), addr, testKey1); err == nil {
			t.Errorf("GetData(%q): expected address error", addr)
		}
	}
}
