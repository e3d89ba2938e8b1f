// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package erc725

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"testing"

	"blockwatch.cc/erc725/codec"
	"blockwatch.cc/erc725/schema"
)

const testContract = "0x1234567890abcdef1234567890abcdef12345678"

type mockStore struct {
	data       map[schema.Key][]byte
	owner      string
	getCalls   int
	batchCalls int
	batchErr   error
}

func (m *mockStore) GetData(_ context.Context, _ string, key schema.Key) ([]byte, error) {
	m.getCalls++
	return m.data[key], nil
}

func (m *mockStore) GetDataBatch(_ context.Context, _ string, keys []schema.Key) ([]codec.Entry, error) {
	m.batchCalls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	entries := make([]codec.Entry, len(keys))
	for i, k := range keys {
		entries[i] = codec.Entry{Key: k, Value: m.data[k]}
	}
	return entries, nil
}

func (m *mockStore) Owner(context.Context, string) (string, error) {
	return m.owner, nil
}

type mockResolver struct {
	mu      sync.Mutex
	content map[string]any
	err     error
	calls   int
}

func (m *mockResolver) Resolve(_ context.Context, ref *codec.Reference) (any, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.content[ref.URL], nil
}

func desc(t *testing.T, name, vt, vc string, kt schema.KeyType) schema.Descriptor {
	t.Helper()
	key, err := schema.DeriveKey(name)
	if err != nil {
		t.Fatalf("DeriveKey(%q): %v", name, err)
	}
	typ, err := schema.ParseType(vt)
	if err != nil {
		t.Fatalf("ParseType(%q): %v", vt, err)
	}
	content, err := schema.ParseContent(vc)
	if err != nil {
		t.Fatalf("ParseContent(%q): %v", vc, err)
	}
	return schema.Descriptor{
		Name:         name,
		Key:          key,
		KeyType:      kt,
		ValueType:    typ,
		ValueContent: content,
	}
}

func lengthBytes(n uint64) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[8:], n)
	return buf
}

// profileReference packs a keccak256(utf8) reference to testProfileJSON.
const testProfileJSON = `{"name":"Alice"}`

func profileReference(t *testing.T, url string) []byte {
	t.Helper()
	hash, err := hex.DecodeString("429077a058b8f8d4acbb6df9499c34b0817042f6468ad7aaf48acbb784df7ecd")
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte{0x6f, 0x35, 0x7c, 0x6a}
	buf = append(buf, hash...)
	return append(buf, url...)
}

func TestGetDataSingleton(t *testing.T) {
	d := desc(t, "MyValue", "string", "String", schema.KeyTypeSingleton)
	store := &mockStore{data: map[schema.Key][]byte{
		d.Key: []byte("hello world"),
	}}
	c := NewClient(store, testContract).WithSchemas(d)
	val, err := c.GetData(context.Background(), "MyValue")
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if !val.Equal(codec.StringValue("hello world")) {
		t.Errorf("value mismatch: %s", val)
	}
	// lookup by raw storage key resolves the same descriptor
	val, err = c.GetData(context.Background(), d.Key.String())
	if err != nil {
		t.Fatalf("GetData by key: %v", err)
	}
	if !val.Equal(codec.StringValue("hello world")) {
		t.Errorf("value mismatch by key: %s", val)
	}
}

func TestGetDataUnknownName(t *testing.T) {
	c := NewClient(&mockStore{}, testContract)
	if _, err := c.GetData(context.Background(), "SomeUnknownName"); !errors.Is(err, schema.ErrSchemaNotFound) {
		t.Errorf("expected ErrSchemaNotFound, got %v", err)
	}
}

func TestGetDataArray(t *testing.T) {
	d := desc(t, "MyArray[]", "string", "String", schema.KeyTypeArray)
	store := &mockStore{data: map[schema.Key][]byte{
		d.Key: lengthBytes(2),
		schema.DeriveElementKey(d.Key, 0): []byte("a"),
		schema.DeriveElementKey(d.Key, 1): []byte("b"),
	}}
	c := NewClient(store, testContract).WithSchemas(d)
	val, err := c.GetData(context.Background(), "MyArray[]")
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	want := codec.ListValue(codec.StringValue("a"), codec.StringValue("b"))
	if !val.Equal(want) {
		t.Errorf("value mismatch: %s", val)
	}
	// all elements must arrive through one batched read
	if store.batchCalls != 1 {
		t.Errorf("element fetch not batched: %d calls", store.batchCalls)
	}
}

func TestGetDataArrayAbsent(t *testing.T) {
	d := desc(t, "MyArray[]", "string", "String", schema.KeyTypeArray)
	c := NewClient(&mockStore{}, testContract).WithSchemas(d)
	val, err := c.GetData(context.Background(), "MyArray[]")
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if !val.Equal(codec.ListValue()) {
		t.Errorf("absent array not empty: %s", val)
	}
}

func TestGetDataArrayFetchFailure(t *testing.T) {
	d := desc(t, "MyArray[]", "string", "String", schema.KeyTypeArray)
	store := &mockStore{
		data:     map[schema.Key][]byte{d.Key: lengthBytes(2)},
		batchErr: errors.New("store rejected range"),
	}
	c := NewClient(store, testContract).WithSchemas(d)
	val, err := c.GetData(context.Background(), "MyArray[]")
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if !val.Equal(codec.ListValue()) {
		t.Errorf("failed element fetch not empty: %s", val)
	}
}

func TestGetDataBatch(t *testing.T) {
	dv := desc(t, "MyValue", "string", "String", schema.KeyTypeSingleton)
	da := desc(t, "MyArray[]", "string", "String", schema.KeyTypeArray)
	store := &mockStore{data: map[schema.Key][]byte{
		dv.Key: []byte("hello"),
		da.Key: lengthBytes(1),
		schema.DeriveElementKey(da.Key, 0): []byte("a"),
	}}
	c := NewClient(store, testContract).WithSchemas(dv, da)

	result, err := c.GetDataBatch(context.Background(), []string{
		"MyValue", "SomeUnknownName", "MyArray[]", "LSP3Profile",
	})
	if err != nil {
		t.Fatalf("GetDataBatch: %v", err)
	}
	if len(result) != 4 {
		t.Fatalf("result count mismatch: have=%d want=4", len(result))
	}
	if result[0] == nil || !result[0].Value.Equal(codec.StringValue("hello")) {
		t.Errorf("MyValue mismatch: %v", result[0])
	}
	if result[1] != nil {
		t.Errorf("unknown name not nil: %v", result[1])
	}
	if result[2] == nil || !result[2].Value.Equal(codec.ListValue(codec.StringValue("a"))) {
		t.Errorf("MyArray[] mismatch: %v", result[2])
	}
	// LSP3Profile is a builtin schema; unset storage decodes to neutral
	if result[3] == nil || result[3].Value.Bytes != nil {
		t.Errorf("unset LSP3Profile not neutral: %v", result[3])
	}
	// one batched read for the non-array keys plus one for array elements
	if store.batchCalls != 2 {
		t.Errorf("batch call count mismatch: have=%d want=2", store.batchCalls)
	}
}

func TestGetDataBatchCorruptEntry(t *testing.T) {
	dv := desc(t, "MyValue", "string", "String", schema.KeyTypeSingleton)
	da := desc(t, "MyAddress", "address", "Address", schema.KeyTypeSingleton)
	store := &mockStore{data: map[schema.Key][]byte{
		dv.Key: []byte("hello"),
		da.Key: {0x01, 0x02, 0x03, 0x04, 0x05}, // not a 20 byte address
	}}
	c := NewClient(store, testContract).WithSchemas(dv, da)

	result, err := c.GetDataBatch(context.Background(), []string{"MyAddress", "MyValue"})
	if err != nil {
		t.Fatalf("GetDataBatch: %v", err)
	}
	// the corrupt entry fails alone, its sibling survives
	if result[0] != nil {
		t.Errorf("corrupt entry not nil: %v", result[0])
	}
	if result[1] == nil || !result[1].Value.Equal(codec.StringValue("hello")) {
		t.Errorf("healthy sibling lost: %v", result[1])
	}
}

func TestFetchData(t *testing.T) {
	store := &mockStore{data: map[schema.Key][]byte{
		schema.MustParseKey("0x5ef83ad9559033e6e941db7d7c495acdce616347d28e90c7ce47cbfcfcad3bc5"): profileReference(t, "ipfs://QmProfile"),
	}}
	res := &mockResolver{content: map[string]any{
		"ipfs://QmProfile": map[string]any{"name": "Alice"},
	}}
	c := NewClient(store, testContract).WithResolver(res)

	dv, err := c.FetchData(context.Background(), "LSP3Profile")
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if dv.Value.Kind != codec.KindReference {
		t.Fatalf("value kind mismatch: %s", dv.Value.Kind)
	}
	profile, ok := dv.Content.(map[string]any)
	if !ok || profile["name"] != "Alice" {
		t.Errorf("content mismatch: %v", dv.Content)
	}
	if res.calls != 1 {
		t.Errorf("resolver call count mismatch: %d", res.calls)
	}
}

func TestFetchDataAuthFailure(t *testing.T) {
	store := &mockStore{data: map[schema.Key][]byte{
		schema.MustParseKey("0x5ef83ad9559033e6e941db7d7c495acdce616347d28e90c7ce47cbfcfcad3bc5"): profileReference(t, "ipfs://QmProfile"),
	}}
	// resolver returns nil content without error, as on hash mismatch
	c := NewClient(store, testContract).WithResolver(&mockResolver{})
	dv, err := c.FetchData(context.Background(), "LSP3Profile")
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if dv.Content != nil {
		t.Errorf("unauthenticated content not nil: %v", dv.Content)
	}
}

func TestFetchDataBatchTransportError(t *testing.T) {
	store := &mockStore{data: map[schema.Key][]byte{
		schema.MustParseKey("0x5ef83ad9559033e6e941db7d7c495acdce616347d28e90c7ce47cbfcfcad3bc5"): profileReference(t, "ipfs://QmProfile"),
	}}
	res := &mockResolver{err: errors.New("gateway unreachable")}
	c := NewClient(store, testContract).WithResolver(res)
	_, err := c.FetchDataBatch(context.Background(), []string{"LSP3Profile"})
	if err == nil || !strings.Contains(err.Error(), "gateway unreachable") {
		t.Errorf("transport error not propagated: %v", err)
	}
}

func TestFetchDataBatchFanOut(t *testing.T) {
	da := desc(t, "MyAssets[]", "bytes", "AssetURL", schema.KeyTypeArray)
	store := &mockStore{data: map[schema.Key][]byte{
		da.Key: lengthBytes(2),
		schema.DeriveElementKey(da.Key, 0): profileReference(t, "ipfs://QmOne"),
		schema.DeriveElementKey(da.Key, 1): profileReference(t, "ipfs://QmTwo"),
	}}
	res := &mockResolver{content: map[string]any{
		"ipfs://QmOne": []byte("one"),
		"ipfs://QmTwo": []byte("two"),
	}}
	c := NewClient(store, testContract).WithSchemas(da).WithResolver(res)

	result, err := c.FetchDataBatch(context.Background(), []string{"MyAssets[]"})
	if err != nil {
		t.Fatalf("FetchDataBatch: %v", err)
	}
	contents, ok := result[0].Content.([]any)
	if !ok || len(contents) != 2 {
		t.Fatalf("content shape mismatch: %v", result[0].Content)
	}
	if string(contents[0].([]byte)) != "one" || string(contents[1].([]byte)) != "two" {
		t.Errorf("content order mismatch: %v", contents)
	}
	if res.calls != 2 {
		t.Errorf("resolver call count mismatch: %d", res.calls)
	}
}

func TestFetchDataWithoutResolver(t *testing.T) {
	store := &mockStore{data: map[schema.Key][]byte{
		schema.MustParseKey("0x5ef83ad9559033e6e941db7d7c495acdce616347d28e90c7ce47cbfcfcad3bc5"): profileReference(t, "ipfs://QmProfile"),
	}}
	dv, err := NewClient(store, testContract).FetchData(context.Background(), "LSP3Profile")
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if dv.Content != nil {
		t.Errorf("content set without resolver: %v", dv.Content)
	}
}

func TestEncodeData(t *testing.T) {
	dv := desc(t, "MyValue", "string", "String", schema.KeyTypeSingleton)
	da := desc(t, "MyArray[]", "string", "String", schema.KeyTypeArray)
	c := NewClient(&mockStore{}, testContract).WithSchemas(dv, da)

	entries, err := c.EncodeData([]DataPair{
		{KeyOrName: "MyValue", Value: codec.StringValue("hello")},
		{KeyOrName: "MyArray[]", Value: codec.ListValue(codec.StringValue("a"), codec.StringValue("b"))},
	})
	if err != nil {
		t.Fatalf("EncodeData: %v", err)
	}
	// one entry for the singleton, length plus two elements for the array
	if len(entries) != 4 {
		t.Fatalf("entry count mismatch: have=%d want=4", len(entries))
	}
	if string(entries[0].Value) != "hello" || !entries[0].Key.Equal(dv.Key) {
		t.Errorf("singleton entry mismatch: %x", entries[0].Value)
	}
	if !entries[1].Key.Equal(da.Key) || string(entries[1].Value) != string(lengthBytes(2)) {
		t.Errorf("length entry mismatch: %x", entries[1].Value)
	}
	if !entries[2].Key.Equal(schema.DeriveElementKey(da.Key, 0)) || string(entries[2].Value) != "a" {
		t.Errorf("element entry mismatch: %x", entries[2].Value)
	}

	if _, err := c.EncodeData([]DataPair{{KeyOrName: "SomeUnknownName"}}); !errors.Is(err, schema.ErrSchemaNotFound) {
		t.Errorf("expected ErrSchemaNotFound, got %v", err)
	}
}

func TestOwner(t *testing.T) {
	store := &mockStore{owner: "0xcafecafecafecafecafecafecafecafecafecafe"}
	owner, err := NewClient(store, testContract).Owner(context.Background())
	if err != nil {
		t.Fatalf("Owner: %v", err)
	}
	if owner != store.owner {
		t.Errorf("owner mismatch: have=%s want=%s", owner, store.owner)
	}
}
