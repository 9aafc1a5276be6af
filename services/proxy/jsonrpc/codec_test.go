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
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

// errReader fails every read with the wrapped error.
type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

// TestDecoder_ReadsRequest verifies a well-formed request decodes into its parts.
func TestDecoder_ReadsRequest(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"rootUri":"file:///w"}}`
	dec := NewDecoder(strings.NewReader(frame(body)))

	msg, err := dec.Decode()
	require.NoError(t, err)

	req, ok := msg.(*Request)
	require.True(t, ok, "expected *Request, got %T", msg)
	assert.Equal(t, NumberID(1), req.ID)
	assert.Equal(t, "initialize", req.Method)
	assert.JSONEq(t, `{"rootUri":"file:///w"}`, string(req.Params))

	_, err = dec.Decode()
	assert.Equal(t, io.EOF, err)
}

// TestDecoder_Classification verifies bodies are classified by field presence.
func TestDecoder_Classification(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind Kind
	}{
		{"request with string id", `{"jsonrpc":"2.0","id":"a","method":"m"}`, KindRequest},
		{"notification", `{"jsonrpc":"2.0","method":"initialized","params":{}}`, KindNotification},
		{"notification without params", `{"jsonrpc":"2.0","method":"exit"}`, KindNotification},
		{"result response", `{"jsonrpc":"2.0","id":3,"result":{"ok":true}}`, KindResponse},
		{"null result response", `{"jsonrpc":"2.0","id":3,"result":null}`, KindResponse},
		{"error response", `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"parse"}}`, KindResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewDecoder(strings.NewReader(frame(tt.body))).Decode()
			require.NoError(t, err)
			assert.Equal(t, tt.kind, msg.Kind())
		})
	}
}

// TestDecoder_IgnoresOtherHeaders verifies Content-Type and unknown headers are skipped.
func TestDecoder_IgnoresOtherHeaders(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"exit"}`
	input := fmt.Sprintf("Content-Type: application/vscode-jsonrpc; charset=utf-8\r\nContent-Length: %d\r\nX-Extra: 1\r\n\r\n%s", len(body), body)

	msg, err := NewDecoder(strings.NewReader(input)).Decode()
	require.NoError(t, err)
	assert.Equal(t, "exit", MethodOf(msg))
}

// TestDecoder_FramingErrors verifies malformed streams surface ErrFraming.
func TestDecoder_FramingErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing content length", "Content-Type: x\r\n\r\n{}"},
		{"lowercase header", "content-length: 2\r\n\r\n{}"},
		{"non numeric length", "Content-Length: abc\r\n\r\n{}"},
		{"negative length", "Content-Length: -4\r\n\r\n{}"},
		{"eof inside header", "Content-Length: 10\r\n"},
		{"partial header line", "Content-Len"},
		{"truncated body", "Content-Length: 100\r\n\r\n{\"jsonrpc\":\"2.0\"}"},
		{"huge length", "Content-Length: 1125899906842624\r\n\r\n{\"jsonrpc\""},
		{"length above body limit", fmt.Sprintf("Content-Length: %d\r\n\r\n{}", maxBodyBytes+1)},
		{"overflowing length", "Content-Length: 99999999999999999999999\r\n\r\n{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(strings.NewReader(tt.input)).Decode()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFraming)
		})
	}
}

// TestDecoder_HeaderLimit verifies an unbounded header block is rejected.
func TestDecoder_HeaderLimit(t *testing.T) {
	input := strings.Repeat("X-Padding: aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\r\n", 2000)
	_, err := NewDecoder(strings.NewReader(input)).Decode()
	assert.ErrorIs(t, err, ErrFraming)
}

// TestDecoder_SerializationErrors verifies bad bodies surface ErrSerialization.
func TestDecoder_SerializationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"jsonrpc":`},
		{"array body", `[1,2,3]`},
		{"no method no id", `{"jsonrpc":"2.0"}`},
		{"id without result", `{"jsonrpc":"2.0","id":1}`},
		{"numeric method", `{"jsonrpc":"2.0","id":1,"method":5}`},
		{"object id", `{"jsonrpc":"2.0","id":{},"method":"m"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(strings.NewReader(frame(tt.body))).Decode()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSerialization)
		})
	}
}

// TestDecoder_ReadError verifies underlying I/O errors pass through unwrapped by framing.
func TestDecoder_ReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewDecoder(errReader{err: boom}).Decode()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrFraming)
}

// TestDecoder_EmptyStream verifies a stream closed before any byte is a clean EOF.
func TestDecoder_EmptyStream(t *testing.T) {
	_, err := NewDecoder(strings.NewReader("")).Decode()
	assert.Equal(t, io.EOF, err)
}

// TestEncoder_FrameFormat verifies the exact bytes written for one message.
func TestEncoder_FrameFormat(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.Encode(&Notification{Method: "exit"}))

	body := `{"jsonrpc":"2.0","method":"exit"}`
	assert.Equal(t, frame(body), buf.String())
}

// TestEncoder_NoHTMLEscaping verifies markup in params is written verbatim.
func TestEncoder_NoHTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewNotification("window/logMessage", map[string]string{"message": "a<b>&c"})
	require.NoError(t, err)
	require.NoError(t, NewEncoder(&buf).Encode(n))

	assert.Contains(t, buf.String(), `"a<b>&c"`)
}

// TestEncoder_ResponseWithoutResult verifies an empty success response carries result null.
func TestEncoder_ResponseWithoutResult(t *testing.T) {
	body, err := Marshal(&Response{ID: NumberID(9)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":9,"result":null}`, string(body))
}

// TestEncoder_InvalidParams verifies invalid raw params are a serialization error.
func TestEncoder_InvalidParams(t *testing.T) {
	err := NewEncoder(io.Discard).Encode(&Request{ID: NumberID(1), Method: "m", Params: RawMessage(`{bad`)})
	assert.ErrorIs(t, err, ErrSerialization)
}

// TestEncoder_ConcurrentFramesDoNotInterleave verifies frames written from
// several goroutines remain individually decodable.
func TestEncoder_ConcurrentFramesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				n, _ := NewNotification("test/n", map[string]int{"w": w, "i": i})
				_ = enc.Encode(n)
			}
		}(w)
	}
	wg.Wait()

	dec := NewDecoder(&buf)
	count := 0
	for {
		_, err := dec.Decode()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, writers*perWriter, count)
}

// TestRoundTrip verifies decode(encode(m)) preserves every message kind,
// including non-ASCII text and nested params.
func TestRoundTrip(t *testing.T) {
	messages := []Message{
		&Request{ID: NumberID(42), Method: "textDocument/hover", Params: RawMessage(`{"textDocument":{"uri":"file:///c/Проект/Файл.cs"},"position":{"line":1,"character":2}}`)},
		&Request{ID: StringID("req-1"), Method: "shutdown"},
		&Notification{Method: "textDocument/didOpen", Params: RawMessage(`{"textDocument":{"uri":"file:///a.cs","text":"// 日本語 ✓\nclass A {}"}}`)},
		&Notification{Method: "exit"},
		&Response{ID: NumberID(7), Result: RawMessage(`[{"a":[1,2,{"b":null}]}]`)},
		&Response{ID: StringID("x"), Error: &ResponseError{Code: CodeMethodNotFound, Message: "nope", Data: RawMessage(`{"k":"v"}`)}},
	}

	for _, original := range messages {
		t.Run(original.Kind().String()+"/"+MethodOf(original), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewEncoder(&buf).Encode(original))

			decoded, err := NewDecoder(&buf).Decode()
			require.NoError(t, err)
			assertSameMessage(t, original, decoded)
		})
	}
}

// TestRoundTrip_ContentLengthCountsBytes verifies the header counts UTF-8 bytes, not runes.
func TestRoundTrip_ContentLengthCountsBytes(t *testing.T) {
	var buf bytes.Buffer
	n := &Notification{Method: "m", Params: RawMessage(`{"s":"éé"}`)}
	require.NoError(t, NewEncoder(&buf).Encode(n))

	body := `{"jsonrpc":"2.0","method":"m","params":{"s":"éé"}}`
	assert.True(t, strings.HasPrefix(buf.String(), fmt.Sprintf("Content-Length: %d\r\n", len(body))))
}

// TestDecoder_MultipleFrames verifies back-to-back frames decode in order.
func TestDecoder_MultipleFrames(t *testing.T) {
	input := frame(`{"jsonrpc":"2.0","method":"a"}`) + frame(`{"jsonrpc":"2.0","method":"b"}`)
	dec := NewDecoder(strings.NewReader(input))

	first, err := dec.Decode()
	require.NoError(t, err)
	second, err := dec.Decode()
	require.NoError(t, err)

	assert.Equal(t, "a", MethodOf(first))
	assert.Equal(t, "b", MethodOf(second))
}

func assertSameMessage(t *testing.T, want, got Message) {
	t.Helper()
	require.Equal(t, want.Kind(), got.Kind())

	switch w := want.(type) {
	case *Request:
		g := got.(*Request)
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Method, g.Method)
		assertRawEqual(t, w.Params, g.Params)
	case *Notification:
		g := got.(*Notification)
		assert.Equal(t, w.Method, g.Method)
		assertRawEqual(t, w.Params, g.Params)
	case *Response:
		g := got.(*Response)
		assert.Equal(t, w.ID, g.ID)
		if w.Error != nil {
			require.NotNil(t, g.Error)
			assert.Equal(t, w.Error.Code, g.Error.Code)
			assert.Equal(t, w.Error.Message, g.Error.Message)
			assertRawEqual(t, w.Error.Data, g.Error.Data)
		} else {
			assert.Nil(t, g.Error)
			assertRawEqual(t, w.Result, g.Result)
		}
	}
}

func assertRawEqual(t *testing.T, want, got RawMessage) {
	t.Helper()
	if len(want) == 0 {
		assert.Empty(t, got)
		return
	}
	assert.JSONEq(t, string(want), string(got))
}
