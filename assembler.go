// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package erc725

import (
	"context"

	"blockwatch.cc/erc725/codec"
	"blockwatch.cc/erc725/schema"
)

// maxAssembleLength bounds how many element keys a single array read
// will derive. Longer arrays are treated as corrupt length entries.
const maxAssembleLength = 1 << 16

// assembleArray turns an array descriptor into a decoded ordered
// sequence. It reads the canonical length entry, derives the element
// keys for [0, length), fills indexes missing from the pre-supplied
// snapshot through one batched store read and decodes the combined set.
//
// A failing element fetch yields an empty sequence instead of an error:
// partially populated arrays are expected when schemas evolve and must
// not abort a surrounding multi-key query.
func (c *Client) assembleArray(ctx context.Context, d schema.Descriptor, have []codec.Entry) (codec.Value, error) {
	var (
		lenRaw   []byte
		haveLen  bool
		elements = make(map[schema.Key][]byte)
	)
	for _, e := range have {
		if e.Key.Equal(d.Key) {
			lenRaw, haveLen = e.Value, true
			continue
		}
		if _, ok := schema.ElementIndex(d.Key, e.Key); ok {
			elements[e.Key] = e.Value
		}
	}
	if !haveLen {
		raw, err := c.store.GetData(ctx, c.addr, d.Key)
		if err != nil {
			return codec.Value{}, err
		}
		lenRaw = raw
	}
	if len(lenRaw) == 0 {
		return codec.ListValue(), nil
	}
	length := codec.DecodeLength(lenRaw)
	if length == 0 {
		return codec.ListValue(), nil
	}
	if length > maxAssembleLength {
		log.Warnf("erc725: array %s declares %d elements, treating as empty", d.Name, length)
		return codec.ListValue(), nil
	}

	var missing []schema.Key
	for i := uint64(0); i < length; i++ {
		key := schema.DeriveElementKey(d.Key, i)
		if _, ok := elements[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		fetched, err := c.store.GetDataBatch(ctx, c.addr, missing)
		if err != nil {
			log.Warnf("erc725: fetching %d elements of array %s: %v", len(missing), d.Name, err)
			return codec.ListValue(), nil
		}
		for _, e := range fetched {
			elements[e.Key] = e.Value
		}
	}

	entries := make([]codec.Entry, 0, len(elements)+1)
	entries = append(entries, codec.Entry{Key: d.Key, Value: lenRaw})
	for k, v := range elements {
		entries = append(entries, codec.Entry{Key: k, Value: v})
	}
	return codec.DecodeCollection(d, entries)
}
