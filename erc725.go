// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package erc725 reads and writes schema-typed data against ERC725Y
// smart contract storage. The contract exposes a flat bytes32 to bytes
// store; this package derives storage keys from human-readable names,
// decodes raw values into typed data and resolves externally hosted
// content referenced from storage.
package erc725

import (
	"context"
	"fmt"
	"sync"

	"blockwatch.cc/erc725/codec"
	"blockwatch.cc/erc725/resolver"
	"blockwatch.cc/erc725/rpc"
	"blockwatch.cc/erc725/schema"
)

var (
	_ StoreReader     = (*rpc.Client)(nil)
	_ ContentResolver = (*resolver.Resolver)(nil)
)

// DataValue couples a resolved schema entry with its decoded value.
// Content is only set by the fetch operations and holds externally
// fetched content for reference values, nil when verification failed.
type DataValue struct {
	Name    string      `json:"name"`
	Key     schema.Key  `json:"key"`
	Value   codec.Value `json:"value"`
	Content any         `json:"content,omitempty"`
}

// DataPair names a value to encode.
type DataPair struct {
	KeyOrName string
	Value     codec.Value
}

// Client is the public surface for typed access to one ERC725Y
// contract. It is safe for concurrent use once configured.
type Client struct {
	store    StoreReader
	addr     string
	schemas  *schema.Registry
	resolver ContentResolver
}

// NewClient creates a client for the contract at addr using the default
// schema registry and no external content resolver.
func NewClient(store StoreReader, addr string) *Client {
	return &Client{
		store:   store,
		addr:    addr,
		schemas: schema.NewRegistry(),
	}
}

// WithSchemas registers additional schema descriptors. Descriptors whose
// declared key does not match their name are logged and skipped.
func (c *Client) WithSchemas(descs ...schema.Descriptor) *Client {
	c.schemas.Register(descs...)
	return c
}

// WithResolver enables external content resolution for the fetch
// operations.
func (c *Client) WithResolver(r ContentResolver) *Client {
	c.resolver = r
	return c
}

// Address returns the contract address this client reads from.
func (c *Client) Address() string {
	return c.addr
}

// Schemas returns the client's schema registry.
func (c *Client) Schemas() *schema.Registry {
	return c.schemas
}

// Owner reads the contract owner address.
func (c *Client) Owner(ctx context.Context) (string, error) {
	return c.store.Owner(ctx, c.addr)
}

// GetData reads and decodes a single value. keyOrName is a schema name,
// a template name with a concrete suffix, or a 0x-prefixed storage key.
// Array descriptors assemble the full ordered sequence.
func (c *Client) GetData(ctx context.Context, keyOrName string) (codec.Value, error) {
	d, err := c.schemas.Resolve(keyOrName)
	if err != nil {
		return codec.Value{}, err
	}
	return c.readValue(ctx, d, nil)
}

// GetDataBatch reads and decodes several values in one pass. All
// non-array keys go through a single batched store read. Entries whose
// schema cannot be resolved map to nil instead of failing the batch.
func (c *Client) GetDataBatch(ctx context.Context, keysOrNames []string) ([]*DataValue, error) {
	descs := make([]*schema.Descriptor, len(keysOrNames))
	var plain []schema.Key
	for i, s := range keysOrNames {
		d, err := c.schemas.Resolve(s)
		if err != nil {
			log.Debugf("erc725: no schema for %q: %v", s, err)
			continue
		}
		descs[i] = &d
		if d.KeyType != schema.KeyTypeArray {
			plain = append(plain, d.Key)
		}
	}

	byKey := make(map[schema.Key][]byte)
	if len(plain) > 0 {
		entries, err := c.store.GetDataBatch(ctx, c.addr, plain)
		if err != nil {
			return nil, fmt.Errorf("erc725: batch read: %w", err)
		}
		for _, e := range entries {
			byKey[e.Key] = e.Value
		}
	}

	result := make([]*DataValue, len(keysOrNames))
	for i, d := range descs {
		if d == nil {
			continue
		}
		var (
			val codec.Value
			err error
		)
		if d.KeyType == schema.KeyTypeArray {
			val, err = c.assembleArray(ctx, *d, nil)
		} else {
			val, err = codec.Decode(*d, byKey[d.Key])
		}
		if err != nil {
			// a corrupt stored value fails only its own entry
			log.Warnf("erc725: %s: %v", d.Name, err)
			continue
		}
		result[i] = &DataValue{Name: d.Name, Key: d.Key, Value: val}
	}
	return result, nil
}

// FetchData reads one value and resolves any external references it
// carries, returning the decoded value plus verified content. Content
// stays nil when verification fails or no resolver is configured.
func (c *Client) FetchData(ctx context.Context, keyOrName string) (*DataValue, error) {
	d, err := c.schemas.Resolve(keyOrName)
	if err != nil {
		return nil, err
	}
	val, err := c.readValue(ctx, d, nil)
	if err != nil {
		return nil, err
	}
	dv := &DataValue{Name: d.Name, Key: d.Key, Value: val}
	if err := c.resolveContent(ctx, dv); err != nil {
		return nil, err
	}
	return dv, nil
}

// FetchDataBatch runs GetDataBatch and then resolves external
// references across all results concurrently. Hash mismatches yield nil
// content; transport failures fail the call.
func (c *Client) FetchDataBatch(ctx context.Context, keysOrNames []string) ([]*DataValue, error) {
	result, err := c.GetDataBatch(ctx, keysOrNames)
	if err != nil {
		return nil, err
	}
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fetchErr error
	)
	for _, dv := range result {
		if dv == nil || !hasReference(dv.Value) {
			continue
		}
		wg.Add(1)
		go func(dv *DataValue) {
			defer wg.Done()
			if err := c.resolveContent(ctx, dv); err != nil {
				mu.Lock()
				if fetchErr == nil {
					fetchErr = err
				}
				mu.Unlock()
			}
		}(dv)
	}
	wg.Wait()
	if fetchErr != nil {
		return nil, fetchErr
	}
	return result, nil
}

// EncodeData encodes named values into raw store entries ready for a
// setData transaction. Array values expand into a length entry plus one
// entry per element.
func (c *Client) EncodeData(pairs []DataPair) ([]codec.Entry, error) {
	var entries []codec.Entry
	for _, p := range pairs {
		d, err := c.schemas.Resolve(p.KeyOrName)
		if err != nil {
			return nil, err
		}
		enc, err := codec.Encode(d, p.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, enc...)
	}
	return entries, nil
}

// readValue reads and decodes the value for one descriptor, assembling
// arrays from their per-index entries.
func (c *Client) readValue(ctx context.Context, d schema.Descriptor, have []codec.Entry) (codec.Value, error) {
	if d.KeyType == schema.KeyTypeArray {
		return c.assembleArray(ctx, d, have)
	}
	for _, e := range have {
		if e.Key.Equal(d.Key) {
			return codec.Decode(d, e.Value)
		}
	}
	raw, err := c.store.GetData(ctx, c.addr, d.Key)
	if err != nil {
		return codec.Value{}, err
	}
	return codec.Decode(d, raw)
}

// resolveContent fetches and verifies external content for dv's value.
// Reference lists fan out concurrently and collect content per element.
func (c *Client) resolveContent(ctx context.Context, dv *DataValue) error {
	if c.resolver == nil {
		return nil
	}
	switch dv.Value.Kind {
	case codec.KindReference:
		content, err := c.resolver.Resolve(ctx, dv.Value.Ref)
		if err != nil {
			return fmt.Errorf("erc725: %s: %w", dv.Name, err)
		}
		dv.Content = content
	case codec.KindList:
		contents := make([]any, len(dv.Value.List))
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			fetchErr error
		)
		for i, v := range dv.Value.List {
			if v.Kind != codec.KindReference {
				continue
			}
			wg.Add(1)
			go func(i int, ref *codec.Reference) {
				defer wg.Done()
				content, err := c.resolver.Resolve(ctx, ref)
				if err != nil {
					mu.Lock()
					if fetchErr == nil {
						fetchErr = err
					}
					mu.Unlock()
					return
				}
				contents[i] = content
			}(i, v.Ref)
		}
		wg.Wait()
		if fetchErr != nil {
			return fmt.Errorf("erc725: %s: %w", dv.Name, fetchErr)
		}
		dv.Content = contents
	}
	return nil
}

func hasReference(v codec.Value) bool {
	switch v.Kind {
	case codec.KindReference:
		return true
	case codec.KindList:
		for _, e := range v.List {
			if e.Kind == codec.KindReference {
				return true
			}
		}
	}
	return false
}
