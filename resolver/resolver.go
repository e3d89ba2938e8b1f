// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/echa/config"
	"github.com/tidwall/gjson"

	"blockwatch.cc/erc725/codec"
)

func init() {
	config.SetDefault("erc725.ipfs.gateway", "https://ipfs.io/ipfs/")
}

// Resolver fetches externally hosted content referenced by decoded
// JSONURL/AssetURL values and verifies it against the stored content hash
// before handing it to the caller. Verification failures and unsupported
// digest functions resolve to nil content, transport failures are errors.
type Resolver struct {
	client  *Client
	gateway string
	cache   *Cache
}

func New() *Resolver {
	return &Resolver{
		client:  NewClient(),
		gateway: config.GetString("erc725.ipfs.gateway"),
	}
}

func (r *Resolver) WithClient(c *Client) *Resolver {
	r.client = c
	return r
}

// WithGateway sets the HTTP gateway prefix substituted for the ipfs://
// scheme.
func (r *Resolver) WithGateway(url string) *Resolver {
	if url != "" && !strings.HasSuffix(url, "/") {
		url += "/"
	}
	r.gateway = url
	return r
}

// WithCache attaches a content cache. Cached entries are trusted since
// they were verified before insertion and content is hash-addressed.
func (r *Resolver) WithCache(c *Cache) *Resolver {
	r.cache = c
	return r
}

// RewriteURL substitutes the ipfs:// scheme with the configured HTTP
// gateway prefix. Other URLs pass through unchanged.
func (r *Resolver) RewriteURL(location string) string {
	if rest, ok := strings.CutPrefix(location, "ipfs://"); ok {
		return r.gateway + rest
	}
	return location
}

// Resolve fetches and authenticates one external reference. On success it
// returns the content: parsed JSON (any) for structured digest methods,
// raw bytes for byte-oriented ones. It returns nil content without error
// when the digest function is unsupported or the fetched content does not
// hash to the stored value; the latter means unauthenticated, not absent.
func (r *Resolver) Resolve(ctx context.Context, ref *codec.Reference) (any, error) {
	if ref == nil || ref.URL == "" {
		return nil, nil
	}
	d, ok := digests[Method(ref.Method)]
	if !ok {
		log.Debugf("resolver: unsupported digest method %#x for %s", ref.Method, ref.URL)
		return nil, nil
	}

	body, cached := r.cachedContent(ref)
	if !cached {
		var err error
		body, err = r.client.Get(ctx, r.RewriteURL(ref.URL))
		if err != nil {
			return nil, fmt.Errorf("resolver: fetching %s: %w", ref.URL, err)
		}
		sum := d.sum(body)
		if sum != ref.Hash {
			log.Warnf("resolver: %s digest mismatch for %s: have=%x want=%x",
				d.name, ref.URL, sum, ref.Hash)
			return nil, nil
		}
		if r.cache != nil {
			if err := r.cache.Put(ref.Hash, body); err != nil {
				log.Warnf("resolver: caching %s: %v", ref.URL, err)
			}
		}
	}

	if !d.structured {
		return body, nil
	}
	if !gjson.ValidBytes(body) {
		log.Warnf("resolver: authenticated content for %s is not valid JSON", ref.URL)
		return nil, nil
	}
	var content any
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, fmt.Errorf("resolver: parsing %s: %w", ref.URL, err)
	}
	return content, nil
}

func (r *Resolver) cachedContent(ref *codec.Reference) ([]byte, bool) {
	if r.cache == nil {
		return nil, false
	}
	body, ok := r.cache.Get(ref.Hash)
	if ok {
		log.Debugf("resolver: cache hit for %x", ref.Hash)
	}
	return body, ok
}
