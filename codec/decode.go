// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package codec

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"blockwatch.cc/erc725/schema"
)

// maxArrayLength caps the element count accepted from a stored array
// length entry. Larger values are treated as corrupt and decode empty.
const maxArrayLength = 1 << 24

// Decode turns raw stored bytes into a typed value according to the
// descriptor's binary layout and semantic content. Unset (nil or empty)
// raw values decode to the type's neutral value, never to an error.
// Array descriptors decode through DecodeCollection; calling Decode with
// only the length entry's raw value yields an empty sequence.
func Decode(d schema.Descriptor, raw []byte) (Value, error) {
	if d.KeyType == schema.KeyTypeArray {
		if len(raw) == 0 {
			return ListValue(), nil
		}
		return DecodeCollection(d, []Entry{{Key: d.Key, Value: raw}})
	}
	if len(raw) == 0 {
		return Neutral(d), nil
	}
	return decodeBody(d.ValueType, d.ValueContent, raw)
}

// DecodeCollection assembles an ordered sequence from an array's raw
// entries: the length entry at the descriptor's base key plus element
// entries at derived element keys. Missing elements within range decode
// to the element type's neutral value; entries outside [0, length) are
// ignored. Supplying only the length yields an empty sequence since
// callers may intentionally query just the count.
func DecodeCollection(d schema.Descriptor, entries []Entry) (Value, error) {
	var (
		length   uint64
		elements = make(map[uint64][]byte)
	)
	for _, e := range entries {
		if e.Key.Equal(d.Key) {
			n := new(big.Int).SetBytes(e.Value)
			if !n.IsUint64() || n.Uint64() > maxArrayLength {
				log.Warnf("codec: implausible length %s for array %s, treating as empty", n, d.Name)
				return ListValue(), nil
			}
			length = n.Uint64()
			continue
		}
		if idx, ok := schema.ElementIndex(d.Key, e.Key); ok {
			elements[idx] = e.Value
		}
	}
	if length == 0 || len(elements) == 0 {
		return ListValue(), nil
	}
	list := make([]Value, 0, length)
	for i := uint64(0); i < length; i++ {
		raw, ok := elements[i]
		if !ok || len(raw) == 0 {
			list = append(list, Neutral(d))
			continue
		}
		v, err := decodeBody(d.ValueType, d.ValueContent, raw)
		if err != nil {
			return Value{}, fmt.Errorf("%s[%d]: %w", d.Name, i, err)
		}
		list = append(list, v)
	}
	return Value{Kind: KindList, List: list}, nil
}

// DecodeLength reads an array length entry.
func DecodeLength(raw []byte) uint64 {
	n := new(big.Int).SetBytes(raw)
	if !n.IsUint64() || n.Uint64() > maxArrayLength {
		return 0
	}
	return n.Uint64()
}

// Neutral returns the zero/empty value for a descriptor's element type.
func Neutral(d schema.Descriptor) Value {
	if d.ValueContent.IsReference() {
		return BytesValue(nil)
	}
	switch d.ValueType.Kind {
	case schema.TypeBoolean:
		return BoolValue(false)
	case schema.TypeUint:
		return NumberValue(0)
	case schema.TypeAddress:
		return AddressValue("0x0000000000000000000000000000000000000000")
	case schema.TypeString:
		return StringValue("")
	case schema.TypeTuple:
		return ListValue()
	default:
		return BytesValue(nil)
	}
}

func decodeBody(t schema.Type, c schema.Content, raw []byte) (Value, error) {
	if c.IsReference() {
		return decodeReference(raw)
	}
	v, err := decodeType(t, raw)
	if err != nil {
		return Value{}, err
	}
	return applyContent(c, v)
}

// decodeReference unpacks the 4 byte digest selector, 32 byte content
// hash and trailing UTF-8 url of a JSONURL/AssetURL value. An unknown
// selector still decodes, leaving support decisions to the resolver.
func decodeReference(raw []byte) (Value, error) {
	if len(raw) < 36 {
		return Value{}, fmt.Errorf("codec: truncated external reference (%d bytes)", len(raw))
	}
	ref := &Reference{URL: string(raw[36:])}
	copy(ref.Method[:], raw[:4])
	copy(ref.Hash[:], raw[4:36])
	return ReferenceValue(ref), nil
}

func decodeType(t schema.Type, raw []byte) (Value, error) {
	switch t.Kind {
	case schema.TypeBoolean:
		var set bool
		for _, b := range raw {
			set = set || b != 0
		}
		return BoolValue(set), nil

	case schema.TypeUint:
		if len(raw) > t.Size {
			return Value{}, fmt.Errorf("codec: %s value too long (%d bytes)", t, len(raw))
		}
		return BigValue(new(big.Int).SetBytes(raw)), nil

	case schema.TypeBytesFixed:
		if len(raw) != t.Size {
			return Value{}, fmt.Errorf("codec: %s value has %d bytes", t, len(raw))
		}
		return BytesValue(append([]byte(nil), raw...)), nil

	case schema.TypeAddress:
		if len(raw) != 20 {
			return Value{}, fmt.Errorf("codec: address value has %d bytes", len(raw))
		}
		return AddressValue("0x" + hex.EncodeToString(raw)), nil

	case schema.TypeBytes:
		return BytesValue(append([]byte(nil), raw...)), nil

	case schema.TypeString:
		return StringValue(string(raw)), nil

	case schema.TypeTuple:
		list := make([]Value, 0, len(t.Elems))
		for i, elem := range t.Elems {
			var part []byte
			if elem.IsFixedSize() {
				sz := elem.FixedSize()
				if len(raw) < sz {
					return Value{}, fmt.Errorf("codec: truncated tuple element %d", i)
				}
				part, raw = raw[:sz], raw[sz:]
			} else {
				// variable element is always last and consumes the rest
				part, raw = raw, nil
			}
			v, err := decodeType(elem, part)
			if err != nil {
				return Value{}, err
			}
			list = append(list, v)
		}
		return Value{Kind: KindList, List: list}, nil

	default:
		return Value{}, fmt.Errorf("codec: invalid value type")
	}
}

// applyContent reinterprets a type-decoded value according to the
// semantic content layer.
func applyContent(c schema.Content, v Value) (Value, error) {
	switch c {
	case schema.ContentNumber:
		if v.Kind == KindBytes {
			return BigValue(new(big.Int).SetBytes(v.Bytes)), nil
		}
	case schema.ContentBoolean:
		if v.Kind == KindBytes {
			var set bool
			for _, b := range v.Bytes {
				set = set || b != 0
			}
			return BoolValue(set), nil
		}
	case schema.ContentAddress:
		if v.Kind == KindBytes && len(v.Bytes) == 20 {
			return AddressValue("0x" + hex.EncodeToString(v.Bytes)), nil
		}
	case schema.ContentString, schema.ContentURL, schema.ContentMarkdown:
		if v.Kind == KindBytes {
			return StringValue(string(v.Bytes)), nil
		}
	}
	return v, nil
}
