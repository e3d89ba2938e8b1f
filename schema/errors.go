// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import "errors"

var (
	// ErrSchemaNotFound is returned when no registered descriptor matches
	// a requested key or name. Callers must not default this silently.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrKeyDerivation is returned for names or indexes that cannot be
	// mapped to a storage key.
	ErrKeyDerivation = errors.New("key derivation failed")
)
