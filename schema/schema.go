// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Key is a 32 byte ERC725Y storage key.
type Key [32]byte

var ZeroKey = Key{}

func ParseKey(s string) (Key, error) {
	var k Key
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 2*len(k) {
		return k, fmt.Errorf("schema: invalid key length %d", len(s))
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("schema: invalid key: %v", err)
	}
	copy(k[:], buf)
	return k, nil
}

func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Key) Equal(k2 Key) bool {
	return bytes.Equal(k[:], k2[:])
}

func (k Key) IsZero() bool {
	return k == ZeroKey
}

func (k Key) Bytes() []byte {
	return k[:]
}

func (k Key) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(data []byte) error {
	key, err := ParseKey(string(data))
	if err != nil {
		return err
	}
	*k = key
	return nil
}

// KeyType defines how a descriptor's storage key is derived from its name
// and how values are laid out under it.
type KeyType byte

const (
	KeyTypeInvalid KeyType = iota
	KeyTypeSingleton
	KeyTypeArray
	KeyTypeMapping
	KeyTypeMappingWithGrouping
)

func ParseKeyType(s string) (KeyType, error) {
	switch s {
	case "Singleton":
		return KeyTypeSingleton, nil
	case "Array":
		return KeyTypeArray, nil
	case "Mapping":
		return KeyTypeMapping, nil
	case "MappingWithGrouping":
		return KeyTypeMappingWithGrouping, nil
	default:
		return KeyTypeInvalid, fmt.Errorf("schema: invalid key type %q", s)
	}
}

func (t KeyType) String() string {
	switch t {
	case KeyTypeSingleton:
		return "Singleton"
	case KeyTypeArray:
		return "Array"
	case KeyTypeMapping:
		return "Mapping"
	case KeyTypeMappingWithGrouping:
		return "MappingWithGrouping"
	default:
		return "invalid"
	}
}

func (t KeyType) IsValid() bool {
	return t != KeyTypeInvalid
}

func (t KeyType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *KeyType) UnmarshalText(data []byte) error {
	typ, err := ParseKeyType(string(data))
	if err != nil {
		return err
	}
	*t = typ
	return nil
}

// TypeKind is the binary layout family of a value.
type TypeKind byte

const (
	TypeInvalid TypeKind = iota
	TypeBoolean          // 1 byte
	TypeUint             // fixed width big-endian, Size bytes
	TypeBytesFixed       // exactly Size bytes
	TypeAddress          // 20 bytes
	TypeBytes            // variable length
	TypeString           // variable length UTF-8
	TypeTuple            // concatenation of Elems
)

// Type describes the binary layout of a single stored value.
type Type struct {
	Kind  TypeKind
	Size  int    // byte width for TypeUint and TypeBytesFixed
	Elems []Type // tuple element layouts
}

// ParseType parses a value type expression like "uint128", "bytes32",
// "address", "bytes", "string", "boolean" or "(bytes4,uint128)".
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "boolean" || s == "bool":
		return Type{Kind: TypeBoolean}, nil
	case s == "address":
		return Type{Kind: TypeAddress}, nil
	case s == "bytes":
		return Type{Kind: TypeBytes}, nil
	case s == "string":
		return Type{Kind: TypeString}, nil
	case strings.HasPrefix(s, "uint"):
		bits, err := strconv.Atoi(s[4:])
		if err != nil || bits <= 0 || bits > 256 || bits%8 != 0 {
			return Type{}, fmt.Errorf("schema: invalid value type %q", s)
		}
		return Type{Kind: TypeUint, Size: bits / 8}, nil
	case strings.HasPrefix(s, "bytes"):
		n, err := strconv.Atoi(s[5:])
		if err != nil || n <= 0 || n > 32 {
			return Type{}, fmt.Errorf("schema: invalid value type %q", s)
		}
		return Type{Kind: TypeBytesFixed, Size: n}, nil
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
		elems := make([]Type, 0)
		for i, part := range strings.Split(s[1:len(s)-1], ",") {
			elem, err := ParseType(part)
			if err != nil {
				return Type{}, err
			}
			if elem.Kind == TypeTuple {
				return Type{}, fmt.Errorf("schema: nested tuple in %q", s)
			}
			if !elem.IsFixedSize() && i < strings.Count(s, ",") {
				return Type{}, fmt.Errorf("schema: variable-size tuple element %q must be last", part)
			}
			elems = append(elems, elem)
		}
		if len(elems) == 0 {
			return Type{}, fmt.Errorf("schema: empty tuple type %q", s)
		}
		return Type{Kind: TypeTuple, Elems: elems}, nil
	default:
		return Type{}, fmt.Errorf("schema: invalid value type %q", s)
	}
}

func (t Type) IsValid() bool {
	return t.Kind != TypeInvalid
}

// IsFixedSize is true when the encoded byte width of the type is known
// without looking at a value.
func (t Type) IsFixedSize() bool {
	switch t.Kind {
	case TypeBoolean, TypeUint, TypeBytesFixed, TypeAddress:
		return true
	case TypeTuple:
		for _, e := range t.Elems {
			if !e.IsFixedSize() {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FixedSize returns the encoded byte width of a fixed-size type.
func (t Type) FixedSize() int {
	switch t.Kind {
	case TypeBoolean:
		return 1
	case TypeUint, TypeBytesFixed:
		return t.Size
	case TypeAddress:
		return 20
	case TypeTuple:
		var sz int
		for _, e := range t.Elems {
			sz += e.FixedSize()
		}
		return sz
	default:
		return 0
	}
}

func (t Type) String() string {
	switch t.Kind {
	case TypeBoolean:
		return "boolean"
	case TypeUint:
		return "uint" + strconv.Itoa(t.Size*8)
	case TypeBytesFixed:
		return "bytes" + strconv.Itoa(t.Size)
	case TypeAddress:
		return "address"
	case TypeBytes:
		return "bytes"
	case TypeString:
		return "string"
	case TypeTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	default:
		return "invalid"
	}
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(data []byte) error {
	typ, err := ParseType(string(data))
	if err != nil {
		return err
	}
	*t = typ
	return nil
}

// Content is the semantic interpretation layered on top of a binary value.
type Content byte

const (
	ContentInvalid Content = iota
	ContentString
	ContentNumber
	ContentAddress
	ContentBoolean
	ContentBytes
	ContentKeccak256
	ContentURL
	ContentMarkdown
	ContentJSONURL
	ContentAssetURL
)

func ParseContent(s string) (Content, error) {
	switch s {
	case "String":
		return ContentString, nil
	case "Number":
		return ContentNumber, nil
	case "Address":
		return ContentAddress, nil
	case "Boolean":
		return ContentBoolean, nil
	case "Keccak256":
		return ContentKeccak256, nil
	case "URL":
		return ContentURL, nil
	case "Markdown":
		return ContentMarkdown, nil
	case "JSONURL":
		return ContentJSONURL, nil
	case "AssetURL":
		return ContentAssetURL, nil
	default:
		// fixed-width bytes contents like Bytes4 or Bytes32 share the
		// generic bytes interpretation, the width lives in the value type
		if strings.HasPrefix(s, "Bytes") {
			return ContentBytes, nil
		}
		return ContentInvalid, fmt.Errorf("schema: invalid value content %q", s)
	}
}

func (c Content) String() string {
	switch c {
	case ContentString:
		return "String"
	case ContentNumber:
		return "Number"
	case ContentAddress:
		return "Address"
	case ContentBoolean:
		return "Boolean"
	case ContentBytes:
		return "Bytes"
	case ContentKeccak256:
		return "Keccak256"
	case ContentURL:
		return "URL"
	case ContentMarkdown:
		return "Markdown"
	case ContentJSONURL:
		return "JSONURL"
	case ContentAssetURL:
		return "AssetURL"
	default:
		return "invalid"
	}
}

func (c Content) IsValid() bool {
	return c != ContentInvalid
}

// IsReference is true for contents that point at externally hosted data
// verified by an embedded content hash.
func (c Content) IsReference() bool {
	return c == ContentJSONURL || c == ContentAssetURL
}

func (c Content) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Content) UnmarshalText(data []byte) error {
	content, err := ParseContent(string(data))
	if err != nil {
		return err
	}
	*c = content
	return nil
}

// Descriptor defines one logical field: its human-readable name, the
// derived storage key, key family, binary layout and semantic content.
// Descriptors are immutable after registration.
type Descriptor struct {
	Name         string  `json:"name"`
	Key          Key     `json:"key"`
	KeyType      KeyType `json:"keyType"`
	ValueType    Type    `json:"valueType"`
	ValueContent Content `json:"valueContent"`
}

// IsTemplate is true for descriptors with a dynamic trailing mapping word
// like AddressPermissions:Permissions:<address>. Their declared key carries
// the static prefix with a zeroed 20 byte suffix.
func (d Descriptor) IsTemplate() bool {
	return strings.ContainsRune(d.Name, '<')
}

func (d Descriptor) IsValid() bool {
	return d.Name != "" && !d.Key.IsZero() && d.KeyType.IsValid() &&
		d.ValueType.IsValid() && d.ValueContent.IsValid()
}

// Verify recomputes the storage key from the descriptor name and compares
// it to the declared key. Descriptors failing this check must never be
// used for resolution.
func (d Descriptor) Verify() error {
	key, err := DeriveKey(d.Name)
	if err != nil {
		return err
	}
	if !key.Equal(d.Key) {
		return fmt.Errorf("schema: key mismatch for %q: derived %s, declared %s",
			d.Name, key, d.Key)
	}
	return nil
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s %s/%s %s)", d.Name, d.KeyType, d.ValueType, d.ValueContent, d.Key)
}

// ParseDescriptors reads a JSON schema document (a single descriptor object
// or a list of them) after validating it against the embedded descriptor
// meta-schema.
func ParseDescriptors(buf []byte) ([]Descriptor, error) {
	buf = bytes.TrimSpace(buf)
	if len(buf) == 0 {
		return nil, fmt.Errorf("schema: empty schema document")
	}
	if buf[0] != '[' {
		buf = append(append([]byte{'['}, buf...), ']')
	}
	if err := validateDocument(buf); err != nil {
		return nil, err
	}
	var descs []Descriptor
	if err := json.Unmarshal(buf, &descs); err != nil {
		return nil, fmt.Errorf("schema: reading schema document: %v", err)
	}
	return descs, nil
}
