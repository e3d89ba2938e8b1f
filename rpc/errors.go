// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"encoding/json"
	"fmt"
)

// RPCError is a JSON-RPC 2.0 error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc: code = %d, message = %q", e.Code, e.Message)
}

// ErrorCode returns the JSON-RPC error code, or 0 for other errors.
func ErrorCode(err error) int {
	if e, ok := err.(*RPCError); ok {
		return e.Code
	}
	return 0
}
