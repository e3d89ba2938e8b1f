// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package resolver

import (
	"crypto/sha256"

	"blockwatch.cc/erc725/schema"
)

// Method is a 4 byte digest function selector as stored in external
// reference values. Selectors are the leading bytes of the keccak256
// digest of the function's canonical name.
type Method [4]byte

var (
	// keccak256 over the fetched content interpreted as a UTF-8 JSON document
	MethodKeccak256UTF8 = Method{0x6f, 0x35, 0x7c, 0x6a}
	// keccak256 over the raw fetched bytes
	MethodKeccak256Bytes = Method{0x80, 0x19, 0xf9, 0xb1}
	// sha256 over the raw fetched bytes
	MethodSHA256Bytes = Method{0xbe, 0xbc, 0x76, 0xdd}
)

func (m Method) String() string {
	if d, ok := digests[m]; ok {
		return d.name
	}
	return "unsupported"
}

type digest struct {
	name string
	// structured selects fetching and returning parsed JSON content
	// instead of raw bytes
	structured bool
	sum        func([]byte) [32]byte
}

// digests maps known selectors. Unknown selectors are a first-class
// "unsupported" outcome, never a fault: stored data may legitimately use
// algorithms this implementation does not know yet.
var digests = map[Method]digest{
	MethodKeccak256UTF8: {
		name:       "keccak256(utf8)",
		structured: true,
		sum:        func(buf []byte) [32]byte { return schema.Keccak256(buf) },
	},
	MethodKeccak256Bytes: {
		name:       "keccak256(bytes)",
		structured: false,
		sum:        func(buf []byte) [32]byte { return schema.Keccak256(buf) },
	},
	MethodSHA256Bytes: {
		name:       "sha256(bytes)",
		structured: false,
		sum:        sha256.Sum256,
	},
}

// IsSupported returns whether a selector names a known digest function.
func IsSupported(m Method) bool {
	_, ok := digests[m]
	return ok
}
