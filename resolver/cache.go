// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package resolver

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var cacheBucket = []byte("content")

// Cache persists verified external content keyed by its digest. Since
// references are content-addressed a hit needs no re-verification.
type Cache struct {
	db *bolt.DB
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("resolver: opening cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("resolver: preparing cache %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Get(hash [32]byte) ([]byte, bool) {
	var body []byte
	c.db.View(func(tx *bolt.Tx) error {
		if buf := tx.Bucket(cacheBucket).Get(hash[:]); buf != nil {
			body = append([]byte(nil), buf...)
		}
		return nil
	})
	return body, body != nil
}

func (c *Cache) Put(hash [32]byte, body []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put(hash[:], body)
	})
}

func (c *Cache) Close() error {
	return c.db.Close()
}
