// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"encoding/binary"
	"fmt"

	"blockwatch.cc/erc725/schema"
)

// Minimal ABI support for the ERC725Y call surface. All arguments are
// bytes32, bytes, or arrays thereof, so we hand-encode the few layouts
// we need instead of pulling in a full ABI implementation.

const wordSize = 32

var (
	selGetData      = methodID("getData(bytes32)")
	selGetDataBatch = methodID("getDataBatch(bytes32[])")
	selSetData      = methodID("setData(bytes32,bytes)")
	selSetDataBatch = methodID("setDataBatch(bytes32[],bytes[])")
	selOwner        = methodID("owner()")
)

func methodID(sig string) [4]byte {
	var id [4]byte
	h := schema.Keccak256([]byte(sig))
	copy(id[:], h[:4])
	return id
}

// word returns v as a left-padded 32 byte big-endian word.
func word(v uint64) []byte {
	buf := make([]byte, wordSize)
	binary.BigEndian.PutUint64(buf[wordSize-8:], v)
	return buf
}

// padRight pads buf with zero bytes up to the next word boundary.
func padRight(buf []byte) []byte {
	if n := len(buf) % wordSize; n != 0 {
		buf = append(buf, make([]byte, wordSize-n)...)
	}
	return buf
}

func encodeGetData(key schema.Key) []byte {
	buf := make([]byte, 0, 4+wordSize)
	buf = append(buf, selGetData[:]...)
	return append(buf, key[:]...)
}

func encodeGetDataBatch(keys []schema.Key) []byte {
	buf := make([]byte, 0, 4+wordSize*(2+len(keys)))
	buf = append(buf, selGetDataBatch[:]...)
	buf = append(buf, word(wordSize)...) // offset of the array argument
	buf = append(buf, word(uint64(len(keys)))...)
	for _, k := range keys {
		buf = append(buf, k[:]...)
	}
	return buf
}

func encodeSetData(key schema.Key, value []byte) []byte {
	buf := append([]byte{}, selSetData[:]...)
	buf = append(buf, key[:]...)
	buf = append(buf, word(2*wordSize)...) // offset of the bytes argument
	buf = append(buf, word(uint64(len(value)))...)
	return append(buf, padRight(append([]byte{}, value...))...)
}

func encodeSetDataBatch(keys []schema.Key, values [][]byte) []byte {
	keysEnc := word(uint64(len(keys)))
	for _, k := range keys {
		keysEnc = append(keysEnc, k[:]...)
	}
	valuesEnc := encodeBytesArray(values)
	buf := append([]byte{}, selSetDataBatch[:]...)
	buf = append(buf, word(2*wordSize)...)
	buf = append(buf, word(uint64(2*wordSize+len(keysEnc)))...)
	buf = append(buf, keysEnc...)
	return append(buf, valuesEnc...)
}

func encodeOwner() []byte {
	return append([]byte{}, selOwner[:]...)
}

// encodeBytesArray encodes values as an ABI bytes[] without the outer
// offset word. Element offsets are relative to the word after the count.
func encodeBytesArray(values [][]byte) []byte {
	buf := word(uint64(len(values)))
	offset := uint64(len(values)) * wordSize
	for _, v := range values {
		buf = append(buf, word(offset)...)
		offset += uint64(wordSize + len(padRight(append([]byte{}, v...))))
	}
	for _, v := range values {
		buf = append(buf, word(uint64(len(v)))...)
		buf = append(buf, padRight(append([]byte{}, v...))...)
	}
	return buf
}

// readWord reads the 32 byte word at offset pos as a uint64. Words with
// any of the upper 24 bytes set are rejected as implausible.
func readWord(out []byte, pos uint64) (uint64, error) {
	if uint64(len(out)) < pos+wordSize {
		return 0, fmt.Errorf("rpc: truncated result: need %d bytes, have %d", pos+wordSize, len(out))
	}
	for _, b := range out[pos : pos+wordSize-8] {
		if b != 0 {
			return 0, fmt.Errorf("rpc: implausible length word at offset %d", pos)
		}
	}
	return binary.BigEndian.Uint64(out[pos+wordSize-8 : pos+wordSize]), nil
}

// readBytes reads a dynamic bytes value whose offset word lives at pos.
// Offsets are relative to base.
func readBytes(out []byte, base, pos uint64) ([]byte, error) {
	offset, err := readWord(out, pos)
	if err != nil {
		return nil, err
	}
	length, err := readWord(out, base+offset)
	if err != nil {
		return nil, err
	}
	start := base + offset + wordSize
	if uint64(len(out)) < start+length {
		return nil, fmt.Errorf("rpc: truncated bytes value: need %d bytes, have %d", start+length, len(out))
	}
	if length == 0 {
		return nil, nil
	}
	buf := make([]byte, length)
	copy(buf, out[start:start+length])
	return buf, nil
}

// decodeBytesResult decodes a single ABI bytes return value. Empty
// bytes decode to nil, the unset representation.
func decodeBytesResult(out []byte) ([]byte, error) {
	return readBytes(out, 0, 0)
}

// decodeBytesArrayResult decodes an ABI bytes[] return value.
func decodeBytesArrayResult(out []byte) ([][]byte, error) {
	base, err := readWord(out, 0)
	if err != nil {
		return nil, err
	}
	count, err := readWord(out, base)
	if err != nil {
		return nil, err
	}
	if count > uint64(len(out))/wordSize {
		return nil, fmt.Errorf("rpc: implausible array count %d", count)
	}
	values := make([][]byte, count)
	inner := base + wordSize
	for i := uint64(0); i < count; i++ {
		values[i], err = readBytes(out, inner, inner+i*wordSize)
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

// decodeAddressResult decodes a single ABI address return value.
func decodeAddressResult(out []byte) (string, error) {
	if len(out) < wordSize {
		return "", fmt.Errorf("rpc: truncated result: need %d bytes, have %d", wordSize, len(out))
	}
	return fmt.Sprintf("0x%x", out[12:wordSize]), nil
}
