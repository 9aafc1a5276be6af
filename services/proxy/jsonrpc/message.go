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
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC version used by LSP.
const Version = "2.0"

// RawMessage is an undecoded JSON value kept byte-for-byte.
type RawMessage = json.RawMessage

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Kind classifies a Message.
type Kind int

const (
	// KindRequest is a message with a method and an id.
	KindRequest Kind = iota

	// KindNotification is a message with a method and no id.
	KindNotification

	// KindResponse is a message with an id and a result or an error.
	KindResponse
)

// String returns the kind name used in logs and metric attributes.
func (k Kind) String() string {
	names := []string{"request", "notification", "response"}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Message is one of *Request, *Notification or *Response.
type Message interface {
	// Kind reports which variant the message is.
	Kind() Kind
}

// Request is a JSON-RPC request. The peer must answer with a Response
// carrying the same ID.
type Request struct {
	// ID identifies the request.
	ID ID

	// Method is the method to invoke.
	Method string

	// Params holds the parameters verbatim. Nil means absent.
	Params RawMessage
}

// Notification is a JSON-RPC notification. No response is expected.
type Notification struct {
	// Method is the method to invoke.
	Method string

	// Params holds the parameters verbatim. Nil means absent.
	Params RawMessage
}

// Response answers a Request.
type Response struct {
	// ID is the identifier of the answered request.
	ID ID

	// Result holds the result verbatim. Nil with a nil Error encodes as null.
	Result RawMessage

	// Error is set when the request failed.
	Error *ResponseError
}

// Kind implements Message.
func (*Request) Kind() Kind { return KindRequest }

// Kind implements Message.
func (*Notification) Kind() Kind { return KindNotification }

// Kind implements Message.
func (*Response) Kind() Kind { return KindResponse }

// NewRequest builds a request, marshaling params. A nil params value
// leaves Params absent.
func NewRequest(id ID, method string, params any) (*Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Request{ID: id, Method: method, Params: raw}, nil
}

// NewNotification builds a notification, marshaling params. A nil params
// value leaves Params absent.
func NewNotification(method string, params any) (*Notification, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Notification{Method: method, Params: raw}, nil
}

// MethodOf returns the method of a request or notification, or "" for
// responses.
func MethodOf(msg Message) string {
	switch m := msg.(type) {
	case *Request:
		return m.Method
	case *Notification:
		return m.Method
	default:
		return ""
	}
}

// =============================================================================
// WIRE FORM
// =============================================================================

type wireRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      ID         `json:"id"`
	Method  string     `json:"method"`
	Params  RawMessage `json:"params,omitempty"`
}

type wireNotification struct {
	JSONRPC string     `json:"jsonrpc"`
	Method  string     `json:"method"`
	Params  RawMessage `json:"params,omitempty"`
}

type wireResponse struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      ID             `json:"id"`
	Result  RawMessage     `json:"result,omitempty"`
	Error   *ResponseError `json:"error,omitempty"`
}

var nullResult = RawMessage("null")

// toWire converts a message into its serializable form.
func toWire(msg Message) (any, error) {
	switch m := msg.(type) {
	case *Request:
		return wireRequest{JSONRPC: Version, ID: m.ID, Method: m.Method, Params: m.Params}, nil
	case *Notification:
		return wireNotification{JSONRPC: Version, Method: m.Method, Params: m.Params}, nil
	case *Response:
		w := wireResponse{JSONRPC: Version, ID: m.ID, Result: m.Result, Error: m.Error}
		if w.Error == nil && len(w.Result) == 0 {
			w.Result = nullResult
		}
		return w, nil
	case nil:
		return nil, serializationErrorf("nil message")
	default:
		return nil, serializationErrorf("unsupported message type %T", msg)
	}
}

// Marshal serializes a message body without framing.
//
// HTML characters are not escaped, so bodies stay byte-identical to what a
// typical LSP peer would send.
func Marshal(msg Message) ([]byte, error) {
	w, err := toWire(msg)
	if err != nil {
		return nil, err
	}
	body, err := marshalNoEscape(w)
	if err != nil {
		return nil, serializationErrorf("marshal %s: %v", msg.Kind(), err)
	}
	return body, nil
}

func marshalParams(params any) (RawMessage, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case RawMessage:
		return p, nil
	}
	raw, err := marshalNoEscape(params)
	if err != nil {
		return nil, serializationErrorf("marshal params: %v", err)
	}
	return raw, nil
}

// marshalNoEscape is json.Marshal without HTML escaping and without the
// trailing newline json.Encoder appends.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
