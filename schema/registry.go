// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/echa/config"
)

// Registry holds an ordered, immutable-after-registration list of verified
// descriptors and resolves storage keys or names against it. Resolution
// precedence is supplied-at-call > registered > built-in, first match wins.
type Registry struct {
	own []Descriptor
}

// NewRegistry creates a registry pre-loaded with the given descriptors.
// Descriptors whose declared key does not match the derived key are
// dropped with a diagnostic, registration continues with the rest.
func NewRegistry(descs ...Descriptor) *Registry {
	r := &Registry{}
	r.Register(descs...)
	return r
}

// Register verifies and appends descriptors, returning the accepted subset
// in input order. A mismatch between the declared and the derived key
// rejects the single descriptor, never the batch. Re-registering a key
// replaces the earlier entry.
func (r *Registry) Register(descs ...Descriptor) []Descriptor {
	accepted := make([]Descriptor, 0, len(descs))
	for _, d := range descs {
		if !d.IsValid() {
			log.Warnf("schema: dropping incomplete descriptor %q", d.Name)
			continue
		}
		if err := d.Verify(); err != nil {
			log.Warnf("schema: dropping descriptor: %v", err)
			continue
		}
		if i := indexByKey(r.own, d.Key); i >= 0 {
			r.own[i] = d
		} else {
			r.own = append(r.own, d)
		}
		accepted = append(accepted, d)
	}
	return accepted
}

// RegisterJSON parses, validates and registers a JSON schema document.
func (r *Registry) RegisterJSON(buf []byte) ([]Descriptor, error) {
	descs, err := ParseDescriptors(buf)
	if err != nil {
		return nil, err
	}
	return r.Register(descs...), nil
}

// LoadExtensions registers additional schema documents configured under
// the erc725.schema.extensions config key.
func (r *Registry) LoadExtensions() error {
	config.SetDefault("erc725.schema.extensions", []interface{}{})
	return config.ForEach("erc725.schema.extensions", func(c *config.Config) error {
		buf, err := json.Marshal(c.GetInterface("schema"))
		if err != nil {
			return fmt.Errorf("schema: reading extension: %w", err)
		}
		descs, err := r.RegisterJSON(buf)
		if err != nil {
			return fmt.Errorf("schema: loading extension: %w", err)
		}
		log.Infof("Registered %d extension schema descriptors.", len(descs))
		return nil
	})
}

// Descriptors returns a copy of the registered descriptor list.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.own))
	copy(out, r.own)
	return out
}

// Resolve finds the descriptor for a storage key (0x-prefixed 32 byte hex)
// or a schema name. Extra descriptors take precedence over registered
// ones, registered over built-ins. Returns ErrSchemaNotFound when nothing
// matches; this must propagate to the caller.
func (r *Registry) Resolve(keyOrName string, extra ...Descriptor) (Descriptor, error) {
	if isHexKey(keyOrName) {
		key, err := ParseKey(keyOrName)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: %q: %v", ErrSchemaNotFound, keyOrName, err)
		}
		return r.ResolveKey(key, extra...)
	}
	for _, list := range [][]Descriptor{extra, r.own, defaultDescriptors} {
		for _, d := range list {
			if match, ok := matchName(d, keyOrName); ok {
				return match, nil
			}
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrSchemaNotFound, keyOrName)
}

// matchName matches a descriptor against a concrete name. Template
// descriptors match any name sharing their static mapping words; the
// returned copy carries the concrete name and derived key.
func matchName(d Descriptor, name string) (Descriptor, bool) {
	if d.Name == name {
		return d, true
	}
	if !d.IsTemplate() {
		return Descriptor{}, false
	}
	dw := strings.Split(d.Name, ":")
	nw := strings.Split(name, ":")
	if len(dw) != len(nw) || len(dw) < 2 {
		return Descriptor{}, false
	}
	for i := 0; i < len(dw)-1; i++ {
		if dw[i] != nw[i] {
			return Descriptor{}, false
		}
	}
	key, err := DeriveKey(name)
	if err != nil {
		return Descriptor{}, false
	}
	d.Name = name
	d.Key = key
	return d, true
}

// ResolveKey finds the descriptor whose storage key equals key, with the
// same precedence as Resolve. For Array element keys the array's base
// descriptor matches.
func (r *Registry) ResolveKey(key Key, extra ...Descriptor) (Descriptor, error) {
	for _, list := range [][]Descriptor{extra, r.own, defaultDescriptors} {
		for _, d := range list {
			if d.Key.Equal(key) {
				return d, nil
			}
			switch {
			case d.KeyType == KeyTypeArray:
				if _, ok := ElementIndex(d.Key, key); ok {
					return d, nil
				}
			case d.IsTemplate():
				// mapping templates carry a 12 byte static prefix
				if bytes.Equal(d.Key[:12], key[:12]) {
					d.Key = key
					return d, nil
				}
			}
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %s", ErrSchemaNotFound, key)
}

// ResolveAll resolves a batch of keys or names. Entries that fail resolve
// to nil instead of aborting the batch.
func (r *Registry) ResolveAll(keysOrNames []string, extra ...Descriptor) map[string]*Descriptor {
	res := make(map[string]*Descriptor, len(keysOrNames))
	for _, n := range keysOrNames {
		d, err := r.Resolve(n, extra...)
		if err != nil {
			log.Debugf("schema: %v", err)
			res[n] = nil
			continue
		}
		res[n] = &d
	}
	return res
}

func indexByKey(list []Descriptor, key Key) int {
	for i, d := range list {
		if d.Key.Equal(key) {
			return i
		}
	}
	return -1
}

func isHexKey(s string) bool {
	return len(s) == 66 && strings.HasPrefix(s, "0x")
}
