// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the legacy Keccak-256 digest over the concatenation
// of all buffers. This is the same derivation the storage contract assumes,
// so it must never change.
func Keccak256(buf ...[]byte) (h [32]byte) {
	d := sha3.NewLegacyKeccak256()
	for _, b := range buf {
		d.Write(b)
	}
	copy(h[:], d.Sum(nil))
	return
}

// DeriveKey derives the canonical 32 byte storage key from a human-readable
// schema name. The key family is inferred from the name shape:
//
//	Name                 Singleton             keccak256(name)
//	Name[]               Array                 keccak256(name)
//	First:Last           Mapping               keccak256(First)[:10] + 0x0000 + trail20(Last)
//	First:Second:Third   MappingWithGrouping   keccak256(First)[:6] + keccak256(Second)[:4] + 0x0000 + trail20(Third)
//
// where trail20 is the literal value for address- or hex-shaped words and
// the first 20 bytes of the word's keccak256 digest otherwise.
func DeriveKey(name string) (Key, error) {
	var key Key
	if name == "" {
		return key, fmt.Errorf("%w: empty name", ErrKeyDerivation)
	}
	parts := strings.Split(name, ":")
	switch len(parts) {
	case 1:
		key = Keccak256([]byte(name))
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return key, fmt.Errorf("%w: empty mapping word in %q", ErrKeyDerivation, name)
		}
		first := Keccak256([]byte(parts[0]))
		trail, err := trailingWordBytes(parts[1])
		if err != nil {
			return key, err
		}
		copy(key[:10], first[:10])
		copy(key[12:], trail)
	case 3:
		if parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return key, fmt.Errorf("%w: empty mapping word in %q", ErrKeyDerivation, name)
		}
		first := Keccak256([]byte(parts[0]))
		second := Keccak256([]byte(parts[1]))
		trail, err := trailingWordBytes(parts[2])
		if err != nil {
			return key, err
		}
		copy(key[:6], first[:6])
		copy(key[6:10], second[:4])
		copy(key[12:], trail)
	default:
		return key, fmt.Errorf("%w: too many mapping words in %q", ErrKeyDerivation, name)
	}
	return key, nil
}

// trailingWordBytes maps the trailing word of a mapping name to its 20 byte
// key suffix. Address and hex values are embedded literally (left-padded,
// or truncated to their 20 leading bytes when longer), placeholder words
// like <address> contribute zero bytes, anything else is hashed.
func trailingWordBytes(word string) ([]byte, error) {
	if strings.HasPrefix(word, "<") && strings.HasSuffix(word, ">") {
		return make([]byte, 20), nil
	}
	if strings.HasPrefix(word, "0x") {
		buf, err := hex.DecodeString(word[2:])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid hex word %q: %v", ErrKeyDerivation, word, err)
		}
		if len(buf) >= 20 {
			return buf[:20], nil
		}
		out := make([]byte, 20)
		copy(out[20-len(buf):], buf)
		return out, nil
	}
	h := Keccak256([]byte(word))
	return h[:20], nil
}

// elementIndexWidth is the number of trailing key bytes reserved for the
// big-endian element index of Array-type keys. The leading bytes of the
// base key identify the array.
const elementIndexWidth = 16

// DeriveElementKey derives the storage key of one array element from the
// array's base key and the element index. Injective over the index for a
// fixed base key.
func DeriveElementKey(base Key, index uint64) Key {
	var key Key
	copy(key[:32-elementIndexWidth], base[:32-elementIndexWidth])
	binary.BigEndian.PutUint64(key[24:], index)
	return key
}

// ElementIndex recovers the element index from an element key. The second
// return is false when the key does not belong to the given base key or
// carries an index outside the uint64 range.
func ElementIndex(base, elem Key) (uint64, bool) {
	for i := 0; i < 32-elementIndexWidth; i++ {
		if base[i] != elem[i] {
			return 0, false
		}
	}
	for i := 32 - elementIndexWidth; i < 24; i++ {
		if elem[i] != 0 {
			return 0, false
		}
	}
	return binary.BigEndian.Uint64(elem[24:]), true
}
