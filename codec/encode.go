// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package codec

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"blockwatch.cc/erc725/schema"
)

// arrayLengthWidth is the stored byte width of an array's element count.
const arrayLengthWidth = 16

// Encode turns a typed value into the raw entries to store under a
// descriptor. Singleton and mapping descriptors produce a single entry.
// Array descriptors (and mapping-with-grouping descriptors holding a list)
// expand into one length entry at the base key plus one entry per element
// at the derived element keys, in index order.
func Encode(d schema.Descriptor, v Value) ([]Entry, error) {
	expand := d.KeyType == schema.KeyTypeArray ||
		(d.KeyType == schema.KeyTypeMappingWithGrouping && v.Kind == KindList)
	if !expand {
		buf, err := encodeBody(d.ValueType, d.ValueContent, v, d.Name)
		if err != nil {
			return nil, err
		}
		return []Entry{{Key: d.Key, Value: buf}}, nil
	}

	if v.Kind != KindList {
		return nil, fmt.Errorf("%w: field %s: expected list value, got %s",
			ErrEncode, d.Name, v.Kind)
	}
	entries := make([]Entry, 0, len(v.List)+1)
	length := make([]byte, arrayLengthWidth)
	binary.BigEndian.PutUint64(length[arrayLengthWidth-8:], uint64(len(v.List)))
	entries = append(entries, Entry{Key: d.Key, Value: length})
	for i, elem := range v.List {
		buf, err := encodeBody(d.ValueType, d.ValueContent, elem,
			fmt.Sprintf("%s[%d]", d.Name, i))
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Key:   schema.DeriveElementKey(d.Key, uint64(i)),
			Value: buf,
		})
	}
	return entries, nil
}

func encodeBody(t schema.Type, c schema.Content, v Value, field string) ([]byte, error) {
	// external references are packed regardless of the declared layout,
	// which is always dynamic bytes for JSONURL/AssetURL descriptors
	if c.IsReference() {
		if v.Kind != KindReference || v.Ref == nil {
			return nil, fmt.Errorf("%w: field %s: expected reference value, got %s",
				ErrEncode, field, v.Kind)
		}
		buf := make([]byte, 0, 36+len(v.Ref.URL))
		buf = append(buf, v.Ref.Method[:]...)
		buf = append(buf, v.Ref.Hash[:]...)
		buf = append(buf, []byte(v.Ref.URL)...)
		return buf, nil
	}
	return encodeType(t, v, field)
}

func encodeType(t schema.Type, v Value, field string) ([]byte, error) {
	switch t.Kind {
	case schema.TypeBoolean:
		if v.Kind != KindBool {
			return nil, shapeError(field, "bool", v)
		}
		if v.Flag {
			return []byte{1}, nil
		}
		return []byte{0}, nil

	case schema.TypeUint:
		if v.Kind != KindNumber || v.Num == nil {
			return nil, shapeError(field, "number", v)
		}
		if v.Num.Sign() < 0 {
			return nil, fmt.Errorf("%w: field %s: negative value %s", ErrEncode, field, v.Num)
		}
		if v.Num.BitLen() > t.Size*8 {
			return nil, fmt.Errorf("%w: field %s: value %s overflows %s",
				ErrEncode, field, v.Num, t)
		}
		buf := make([]byte, t.Size)
		v.Num.FillBytes(buf)
		return buf, nil

	case schema.TypeBytesFixed:
		if v.Kind != KindBytes {
			return nil, shapeError(field, "bytes", v)
		}
		if len(v.Bytes) != t.Size {
			return nil, fmt.Errorf("%w: field %s: need %d bytes, got %d",
				ErrEncode, field, t.Size, len(v.Bytes))
		}
		return append([]byte(nil), v.Bytes...), nil

	case schema.TypeAddress:
		if v.Kind != KindAddress && v.Kind != KindString {
			return nil, shapeError(field, "address", v)
		}
		buf, err := parseAddress(v.Str)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrEncode, field, err)
		}
		return buf, nil

	case schema.TypeBytes:
		if v.Kind != KindBytes {
			return nil, shapeError(field, "bytes", v)
		}
		return append([]byte(nil), v.Bytes...), nil

	case schema.TypeString:
		if v.Kind != KindString {
			return nil, shapeError(field, "string", v)
		}
		return []byte(v.Str), nil

	case schema.TypeTuple:
		if v.Kind != KindList {
			return nil, shapeError(field, "list", v)
		}
		if len(v.List) != len(t.Elems) {
			return nil, fmt.Errorf("%w: field %s: tuple needs %d elements, got %d",
				ErrEncode, field, len(t.Elems), len(v.List))
		}
		var buf []byte
		for i, elem := range t.Elems {
			part, err := encodeType(elem, v.List[i], fmt.Sprintf("%s.%d", field, i))
			if err != nil {
				return nil, err
			}
			buf = append(buf, part...)
		}
		return buf, nil

	default:
		return nil, fmt.Errorf("%w: field %s: invalid value type", ErrEncode, field)
	}
}

func shapeError(field, want string, v Value) error {
	return fmt.Errorf("%w: field %s: expected %s value, got %s", ErrEncode, field, want, v.Kind)
}

func parseAddress(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 40 {
		return nil, fmt.Errorf("invalid address length %d", len(s))
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %v", err)
	}
	return buf, nil
}
