// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"blockwatch.cc/erc725/codec"
	"blockwatch.cc/erc725/schema"
)

type callParams struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

func checkAddress(s string) error {
	hx := strings.TrimPrefix(s, "0x")
	if len(hx) != 40 {
		return fmt.Errorf("rpc: invalid address %q", s)
	}
	if _, err := hex.DecodeString(hx); err != nil {
		return fmt.Errorf("rpc: invalid address %q: %v", s, err)
	}
	return nil
}

func (c *Client) ethCall(ctx context.Context, addr string, data []byte) ([]byte, error) {
	if err := checkAddress(addr); err != nil {
		return nil, err
	}
	var result string
	err := c.Call(ctx, "eth_call", []any{
		callParams{To: addr, Data: "0x" + hex.EncodeToString(data)},
		"latest",
	}, &result)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(strings.TrimPrefix(result, "0x"))
}

// GetData reads one raw value from an ERC725Y contract. Unset keys
// return nil.
func (c *Client) GetData(ctx context.Context, addr string, key schema.Key) ([]byte, error) {
	out, err := c.ethCall(ctx, addr, encodeGetData(key))
	if err != nil {
		return nil, err
	}
	return decodeBytesResult(out)
}

// GetDataBatch reads raw values for several keys in one call. The
// returned entries carry the requested keys, so callers can match by key
// instead of relying on result order.
func (c *Client) GetDataBatch(ctx context.Context, addr string, keys []schema.Key) ([]codec.Entry, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	out, err := c.ethCall(ctx, addr, encodeGetDataBatch(keys))
	if err != nil {
		return nil, err
	}
	values, err := decodeBytesArrayResult(out)
	if err != nil {
		return nil, err
	}
	if len(values) != len(keys) {
		return nil, fmt.Errorf("rpc: getDataBatch returned %d values for %d keys",
			len(values), len(keys))
	}
	entries := make([]codec.Entry, len(keys))
	for i, k := range keys {
		entries[i] = codec.Entry{Key: k, Value: values[i]}
	}
	return entries, nil
}

// Owner reads the contract owner.
func (c *Client) Owner(ctx context.Context, addr string) (string, error) {
	out, err := c.ethCall(ctx, addr, encodeOwner())
	if err != nil {
		return "", err
	}
	return decodeAddressResult(out)
}

// SetDataCalldata builds the calldata for a single setData transaction.
// Signing and submitting the transaction is the caller's concern.
func SetDataCalldata(entry codec.Entry) []byte {
	return encodeSetData(entry.Key, entry.Value)
}

// SetDataBatchCalldata builds the calldata for a setDataBatch
// transaction covering all entries in order.
func SetDataBatchCalldata(entries []codec.Entry) []byte {
	keys := make([]schema.Key, len(entries))
	values := make([][]byte, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
		values[i] = e.Value
	}
	return encodeSetDataBatch(keys, values)
}
