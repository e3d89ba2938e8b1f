// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"blockwatch.cc/erc725/schema"
)

// Entry is one raw key-value pair as stored by the contract. A nil value
// means the key is unset.
type Entry struct {
	Key   schema.Key
	Value []byte
}

// Kind tags the variant held by a Value.
type Kind byte

const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindAddress
	KindBool
	KindBytes
	KindList
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindAddress:
		return "address"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindReference:
		return "reference"
	default:
		return "invalid"
	}
}

// Reference points at externally hosted content: a digest method selector,
// the expected content hash and the location to fetch from. It is decoded
// from JSONURL/AssetURL values and consumed by the external resolver.
type Reference struct {
	Method [4]byte  // digest function selector
	Hash   [32]byte // expected content digest
	URL    string
}

// Value is a tagged union over all shapes a decoded storage value can
// take. Consumers switch on Kind; only the fields matching the kind are
// set.
type Value struct {
	Kind  Kind
	Str   string   // KindString, KindAddress (0x-prefixed hex)
	Num   *big.Int // KindNumber
	Flag  bool     // KindBool
	Bytes []byte   // KindBytes
	List  []Value  // KindList
	Ref   *Reference
}

func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

func NumberValue(i int64) Value {
	return Value{Kind: KindNumber, Num: big.NewInt(i)}
}

func BigValue(i *big.Int) Value {
	return Value{Kind: KindNumber, Num: i}
}

func AddressValue(s string) Value {
	return Value{Kind: KindAddress, Str: s}
}

func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Flag: b}
}

func BytesValue(b []byte) Value {
	return Value{Kind: KindBytes, Bytes: b}
}

func ListValue(vals ...Value) Value {
	return Value{Kind: KindList, List: vals}
}

func ReferenceValue(ref *Reference) Value {
	return Value{Kind: KindReference, Ref: ref}
}

func (v Value) IsValid() bool {
	return v.Kind != KindInvalid
}

func (v Value) Equal(v2 Value) bool {
	if v.Kind != v2.Kind {
		return false
	}
	switch v.Kind {
	case KindString, KindAddress:
		return v.Str == v2.Str
	case KindNumber:
		if v.Num == nil || v2.Num == nil {
			return v.Num == v2.Num
		}
		return v.Num.Cmp(v2.Num) == 0
	case KindBool:
		return v.Flag == v2.Flag
	case KindBytes:
		return bytes.Equal(v.Bytes, v2.Bytes)
	case KindList:
		if len(v.List) != len(v2.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(v2.List[i]) {
				return false
			}
		}
		return true
	case KindReference:
		if v.Ref == nil || v2.Ref == nil {
			return v.Ref == v2.Ref
		}
		return *v.Ref == *v2.Ref
	default:
		return true
	}
}

func (v Value) String() string {
	buf, _ := v.MarshalJSON()
	return string(buf)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindAddress:
		return json.Marshal(v.Str)
	case KindNumber:
		if v.Num == nil {
			return []byte("0"), nil
		}
		return []byte(v.Num.String()), nil
	case KindBool:
		return json.Marshal(v.Flag)
	case KindBytes:
		return json.Marshal("0x" + hex.EncodeToString(v.Bytes))
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindReference:
		if v.Ref == nil {
			return []byte("null"), nil
		}
		return json.Marshal(map[string]string{
			"hashFunction": "0x" + hex.EncodeToString(v.Ref.Method[:]),
			"hash":         "0x" + hex.EncodeToString(v.Ref.Hash[:]),
			"url":          v.Ref.URL,
		})
	default:
		return []byte("null"), nil
	}
}
