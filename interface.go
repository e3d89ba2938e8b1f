// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package erc725

import (
	"context"

	"blockwatch.cc/erc725/codec"
	"blockwatch.cc/erc725/schema"
)

// StoreReader is the transport collaborator used to read raw key-value
// data from an ERC725Y contract. Batched reads return entries carrying
// the requested keys so results can be matched by key, not position.
type StoreReader interface {
	GetData(ctx context.Context, addr string, key schema.Key) ([]byte, error)
	GetDataBatch(ctx context.Context, addr string, keys []schema.Key) ([]codec.Entry, error)
	Owner(ctx context.Context, addr string) (string, error)
}

// ContentResolver fetches externally hosted content behind a decoded
// reference and verifies it against the embedded digest. A verification
// failure or unsupported digest method yields (nil, nil); transport
// failures return an error.
type ContentResolver interface {
	Resolve(ctx context.Context, ref *codec.Reference) (any, error)
}
