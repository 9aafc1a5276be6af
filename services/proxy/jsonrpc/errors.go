// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package jsonrpc

import (
	"errors"
	"fmt"
)

// Sentinel errors for the wire codec.
var (
	// ErrFraming indicates a malformed or truncated header block or body.
	//
	// Framing errors are fatal to the stream that produced them: once the
	// byte boundary between messages is lost there is no way to resync.
	ErrFraming = errors.New("lsp framing error")

	// ErrSerialization indicates a body that is not valid JSON or not a
	// JSON-RPC 2.0 request, notification or response.
	ErrSerialization = errors.New("lsp serialization error")
)

// Standard JSON-RPC and LSP error codes seen in ResponseError.Code.
const (
	CodeParseError           = -32700
	CodeInvalidRequest       = -32600
	CodeMethodNotFound       = -32601
	CodeInvalidParams        = -32602
	CodeInternalError        = -32603
	CodeServerNotInitialized = -32002
	CodeRequestCancelled     = -32800
)

// ResponseError is the error object carried by a failed Response.
type ResponseError struct {
	// Code is the JSON-RPC error code.
	Code int64 `json:"code"`

	// Message is a short description of the error.
	Message string `json:"message"`

	// Data contains optional additional information, kept verbatim.
	Data RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("jsonrpc error %d: %s (data: %s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// framingErrorf wraps ErrFraming with detail.
func framingErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFraming, fmt.Sprintf(format, args...))
}

// serializationErrorf wraps ErrSerialization with detail.
func serializationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSerialization, fmt.Sprintf(format, args...))
}
