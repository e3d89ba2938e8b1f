// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package codec

import "errors"

// ErrEncode is wrapped by all encode-time shape mismatch errors. The
// message names the offending field.
var ErrEncode = errors.New("encode failed")
