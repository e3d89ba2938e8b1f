// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qri-io/jsonschema"
)

// metaSchema constrains schema documents before descriptor parsing. Key
// correctness against the declared name is checked separately at
// registration time.
const metaSchema = `{
    "$schema": "http://json-schema.org/draft/2019-09/schema#",
    "$id": "https://blockwatch.cc/erc725/schemas/descriptor.json",
    "title": "ERC725Y Schema Descriptor List",
    "type": "array",
    "items": {
        "type": "object",
        "required": ["name", "key", "keyType", "valueType", "valueContent"],
        "properties": {
            "name": { "type": "string", "minLength": 1 },
            "key": { "type": "string", "pattern": "^0x[0-9a-fA-F]{64}$" },
            "keyType": {
                "type": "string",
                "enum": ["Singleton", "Array", "Mapping", "MappingWithGrouping"]
            },
            "valueType": { "type": "string", "minLength": 1 },
            "valueContent": { "type": "string", "minLength": 1 }
        }
    }
}`

var documentSchema = func() *jsonschema.Schema {
	s := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(metaSchema), s); err != nil {
		panic(fmt.Errorf("schema: reading descriptor meta-schema: %v", err))
	}
	return s
}()

func validateDocument(buf []byte) error {
	errs, err := documentSchema.ValidateBytes(context.Background(), buf)
	if err != nil {
		return fmt.Errorf("schema: invalid schema document: %v", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("schema: invalid schema document: %s", errs[0].Error())
	}
	return nil
}

// Built-in descriptors for common LSP storage keys. They resolve at lowest
// precedence and are verified once at package init.
const defaultSchemaDoc = `[
    {
        "name": "LSP3Profile",
        "key": "0x5ef83ad9559033e6e941db7d7c495acdce616347d28e90c7ce47cbfcfcad3bc5",
        "keyType": "Singleton",
        "valueType": "bytes",
        "valueContent": "JSONURL"
    },
    {
        "name": "LSP4Metadata",
        "key": "0x9afb95cacc9f95858ec44aa8c3b685511002e30ae54415823f406128b85b238e",
        "keyType": "Singleton",
        "valueType": "bytes",
        "valueContent": "JSONURL"
    },
    {
        "name": "LSP1UniversalReceiverDelegate",
        "key": "0x0cfc51aec37c55a4d0b1a65c6255c4bf2fbdf6277f3cc0730c45b828b6db8b47",
        "keyType": "Singleton",
        "valueType": "address",
        "valueContent": "Address"
    },
    {
        "name": "LSP12IssuedAssets[]",
        "key": "0x7c8c3416d6cda87cd42c71ea1843df28ac4850354f988d55ee2eaa47b6dc05cd",
        "keyType": "Array",
        "valueType": "address",
        "valueContent": "Address"
    },
    {
        "name": "LSP4Creators[]",
        "key": "0x114bd03b3a46d48759680d81ebb2b414fda7d030a7105a851867accf1c2352e7",
        "keyType": "Array",
        "valueType": "address",
        "valueContent": "Address"
    },
    {
        "name": "AddressPermissions[]",
        "key": "0xdf30dba06db6a30e65354d9a64c609861f089545ca58c6b4dbe31a5f338cb0e3",
        "keyType": "Array",
        "valueType": "address",
        "valueContent": "Address"
    },
    {
        "name": "SupportedStandards:LSP3Profile",
        "key": "0xeafec4d89fa9619884b600005ef83ad9559033e6e941db7d7c495acdce616347",
        "keyType": "Mapping",
        "valueType": "bytes4",
        "valueContent": "Bytes4"
    },
    {
        "name": "AddressPermissions:Permissions:<address>",
        "key": "0x4b80742de2bf82acb36300000000000000000000000000000000000000000000",
        "keyType": "MappingWithGrouping",
        "valueType": "bytes32",
        "valueContent": "Bytes32"
    }
]`

var defaultDescriptors = func() []Descriptor {
	descs, err := ParseDescriptors([]byte(defaultSchemaDoc))
	if err != nil {
		panic(err)
	}
	out := descs[:0]
	for _, d := range descs {
		if err := d.Verify(); err != nil {
			panic(err)
		}
		out = append(out, d)
	}
	return out
}()

// DefaultDescriptors returns a copy of the built-in descriptor list.
func DefaultDescriptors() []Descriptor {
	out := make([]Descriptor, len(defaultDescriptors))
	copy(out, defaultDescriptors)
	return out
}
