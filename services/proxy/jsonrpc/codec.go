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
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

const (
	// contentLengthHeader is matched case-sensitively, including the space.
	contentLengthHeader = "Content-Length: "

	// maxHeaderBytes bounds the header block of a single message.
	maxHeaderBytes = 64 << 10

	// maxBodyBytes bounds the body a Content-Length header may announce.
	maxBodyBytes = 256 << 20
)

// =============================================================================
// DECODER
// =============================================================================

// Decoder reads framed messages from a byte stream.
//
// Description:
//
//	Implements the LSP base protocol read side: a block of CRLF-terminated
//	header lines, an empty line, then exactly Content-Length bytes of
//	JSON. Headers other than Content-Length are ignored.
//
// Thread Safety:
//
//	Not safe for concurrent use. Each stream has a single reader.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode reads and parses the next message.
//
// Outputs:
//
//	Message - The decoded message.
//	error - io.EOF when the stream ended cleanly between messages,
//	        ErrFraming for malformed headers or a truncated body,
//	        ErrSerialization for a body that is not a JSON-RPC message,
//	        or the underlying read error.
func (d *Decoder) Decode() (Message, error) {
	body, err := d.ReadFrame()
	if err != nil {
		return nil, err
	}
	return Unmarshal(body)
}

// ReadFrame reads the next frame and returns its body unparsed.
func (d *Decoder) ReadFrame() ([]byte, error) {
	length := -1
	headerBytes := 0

	for {
		line, err := d.r.ReadString('\n')
		headerBytes += len(line)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if headerBytes == 0 {
					return nil, io.EOF
				}
				return nil, framingErrorf("unexpected end of stream in header block")
			}
			return nil, fmt.Errorf("read header: %w", err)
		}
		if headerBytes > maxHeaderBytes {
			return nil, framingErrorf("header block exceeds %d bytes", maxHeaderBytes)
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		// Empty line marks end of headers
		if line == "" {
			break
		}

		if value, ok := strings.CutPrefix(line, contentLengthHeader); ok {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, framingErrorf("invalid Content-Length value %q", value)
			}
			if n < 0 {
				return nil, framingErrorf("negative Content-Length: %d", n)
			}
			if n > maxBodyBytes {
				return nil, framingErrorf("Content-Length %d exceeds %d bytes", n, maxBodyBytes)
			}
			length = n
		}
	}

	if length < 0 {
		return nil, framingErrorf("missing Content-Length header")
	}

	// The buffer grows with the bytes actually received, so a short stream
	// announcing a large body fails without allocating the full length.
	var body bytes.Buffer
	if n, err := io.CopyN(&body, d.r, int64(length)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, framingErrorf("body truncated, got %d of %d bytes", n, length)
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body.Bytes(), nil
}

// Unmarshal parses a message body.
//
// Description:
//
//	Classifies the body by field presence: method and id make a request,
//	method alone a notification, id with result or error a response.
//	Params, results and error data are kept as raw JSON.
func Unmarshal(body []byte) (Message, error) {
	if !gjson.ValidBytes(body) {
		return nil, serializationErrorf("body is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, serializationErrorf("body is not a JSON object")
	}

	id := root.Get("id")

	if method := root.Get("method"); method.Exists() {
		if method.Type != gjson.String {
			return nil, serializationErrorf("method is not a string")
		}
		var params RawMessage
		if p := root.Get("params"); p.Exists() {
			params = RawMessage(p.Raw)
		}
		if !id.Exists() {
			return &Notification{Method: method.Str, Params: params}, nil
		}
		reqID, err := parseID(id)
		if err != nil {
			return nil, err
		}
		return &Request{ID: reqID, Method: method.Str, Params: params}, nil
	}

	result := root.Get("result")
	respErr := root.Get("error")
	if !id.Exists() || (!result.Exists() && !respErr.Exists()) {
		return nil, serializationErrorf("not a JSON-RPC request, notification or response")
	}

	respID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	resp := &Response{ID: respID}
	if result.Exists() {
		resp.Result = RawMessage(result.Raw)
	}
	if respErr.Exists() && respErr.Type != gjson.Null {
		var e ResponseError
		if err := json.Unmarshal([]byte(respErr.Raw), &e); err != nil {
			return nil, serializationErrorf("invalid error object: %v", err)
		}
		resp.Error = &e
	}
	return resp, nil
}

// =============================================================================
// ENCODER
// =============================================================================

// Encoder writes framed messages to a byte stream.
//
// Thread Safety:
//
//	Safe for concurrent use. Each frame is written with a single Write
//	call under the encoder lock, so frames from different goroutines
//	never interleave.
type Encoder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode serializes msg and writes it as one frame.
func (e *Encoder) Encode(msg Message) error {
	body, err := Marshal(msg)
	if err != nil {
		return err
	}
	return e.WriteFrame(body)
}

// WriteFrame writes an already serialized body as one frame.
func (e *Encoder) WriteFrame(body []byte) error {
	frame := Frame(body)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Frame prefixes body with its Content-Length header block.
func Frame(body []byte) []byte {
	header := contentLengthHeader + strconv.Itoa(len(body)) + "\r\n\r\n"
	frame := make([]byte, 0, len(header)+len(body))
	frame = append(frame, header...)
	return append(frame, body...)
}
