// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"blockwatch.cc/erc725/schema"
)

var (
	testKey1 = schema.MustParseKey("0xa8bd06e1d9baadf8394595b6d21996fa8f81f4892cfd4f724351f5955e8a53c5")
	testKey2 = schema.MustParseKey("0x5ef83ad9559033e6e941db7d7c495acdce616347d28e90c7ce47cbfcfcad3bc5")
)

func fromHex(t *testing.T, s string) []byte {
	t.Helper()
	buf, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		t.Fatalf("invalid hex %q: %v", s, err)
	}
	return buf
}

func TestSelectors(t *testing.T) {
	// well-known ERC725Y selectors, pinned to catch signature typos
	for _, test := range []struct {
		sel  [4]byte
		want string
	}{
		{selGetData, "54f6127f"},
		{selGetDataBatch, "dedff9c6"},
		{selSetData, "7f23690c"},
		{selSetDataBatch, "97902421"},
		{selOwner, "8da5cb5b"},
	} {
		if have := hex.EncodeToString(test.sel[:]); have != test.want {
			t.Errorf("selector mismatch: have=%s want=%s", have, test.want)
		}
	}
}

func TestEncodeGetData(t *testing.T) {
	have := encodeGetData(testKey1)
	want := fromHex(t, "54f6127f"+
		"a8bd06e1d9baadf8394595b6d21996fa8f81f4892cfd4f724351f5955e8a53c5")
	if !bytes.Equal(have, want) {
		t.Errorf("calldata mismatch:\nhave=%x\nwant=%x", have, want)
	}
}

func TestEncodeGetDataBatch(t *testing.T) {
	have := encodeGetDataBatch([]schema.Key{testKey1, testKey2})
	want := fromHex(t, "dedff9c6"+
		"0000000000000000000000000000000000000000000000000000000000000020"+
		"0000000000000000000000000000000000000000000000000000000000000002"+
		"a8bd06e1d9baadf8394595b6d21996fa8f81f4892cfd4f724351f5955e8a53c5"+
		"5ef83ad9559033e6e941db7d7c495acdce616347d28e90c7ce47cbfcfcad3bc5")
	if !bytes.Equal(have, want) {
		t.Errorf("calldata mismatch:\nhave=%x\nwant=%x", have, want)
	}
}

func TestEncodeSetData(t *testing.T) {
	have := encodeSetData(testKey1, []byte{0xca, 0xfe})
	want := fromHex(t, "7f23690c"+
		"a8bd06e1d9baadf8394595b6d21996fa8f81f4892cfd4f724351f5955e8a53c5"+
		"0000000000000000000000000000000000000000000000000000000000000040"+
		"0000000000000000000000000000000000000000000000000000000000000002"+
		"cafe000000000000000000000000000000000000000000000000000000000000")
	if !bytes.Equal(have, want) {
		t.Errorf("calldata mismatch:\nhave=%x\nwant=%x", have, want)
	}
}

func TestEncodeSetDataBatch(t *testing.T) {
	have := encodeSetDataBatch([]schema.Key{testKey1}, [][]byte{{0xca, 0xfe}})
	want := fromHex(t, "97902421"+
		// offsets of the two dynamic arguments
		"0000000000000000000000000000000000000000000000000000000000000040"+
		"0000000000000000000000000000000000000000000000000000000000000080"+
		// bytes32[] argument
		"0000000000000000000000000000000000000000000000000000000000000001"+
		"a8bd06e1d9baadf8394595b6d21996fa8f81f4892cfd4f724351f5955e8a53c5"+
		// bytes[] argument
		"0000000000000000000000000000000000000000000000000000000000000001"+
		"0000000000000000000000000000000000000000000000000000000000000020"+
		"0000000000000000000000000000000000000000000000000000000000000002"+
		"cafe000000000000000000000000000000000000000000000000000000000000")
	if !bytes.Equal(have, want) {
		t.Errorf("calldata mismatch:\nhave=%x\nwant=%x", have, want)
	}
}

func TestDecodeBytesResult(t *testing.T) {
	out := fromHex(t,
		"0000000000000000000000000000000000000000000000000000000000000020"+
			"0000000000000000000000000000000000000000000000000000000000000005"+
			"68656c6c6f000000000000000000000000000000000000000000000000000000")
	have, err := decodeBytesResult(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(have) != "hello" {
		t.Errorf("result mismatch: have=%q want=%q", have, "hello")
	}

	// empty bytes decode to nil, the unset representation
	empty := fromHex(t,
		"0000000000000000000000000000000000000000000000000000000000000020"+
			"0000000000000000000000000000000000000000000000000000000000000000")
	have, err = decodeBytesResult(empty)
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if have != nil {
		t.Errorf("empty result not nil: %x", have)
	}
}

func TestDecodeBytesArrayResult(t *testing.T) {
	values := [][]byte{[]byte("hello"), nil, {0xca, 0xfe}}
	out := append(word(wordSize), encodeBytesArray(values)...)
	have, err := decodeBytesArrayResult(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(have) != len(values) {
		t.Fatalf("count mismatch: have=%d want=%d", len(have), len(values))
	}
	for i := range values {
		if !bytes.Equal(have[i], values[i]) {
			t.Errorf("value %d mismatch: have=%x want=%x", i, have[i], values[i])
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	for _, src := range []string{
		"",
		"0000000000000000000000000000000000000000000000000000000000000020",
		"00000000000000000000000000000000000000000000000000000000000000200000000000000000000000000000000000000000000000000000000000000005",
	} {
		if _, err := decodeBytesResult(fromHex(t, src)); err == nil {
			t.Errorf("decodeBytesResult(%q): expected error", src)
		}
	}
}

func TestDecodeAddressResult(t *testing.T) {
	out := fromHex(t, "000000000000000000000000cafecafecafecafecafecafecafecafecafecafe")
	have, err := decodeAddressResult(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := "0xcafecafecafecafecafecafecafecafecafecafe"; have != want {
		t.Errorf("address mismatch: have=%s want=%s", have, want)
	}
}
