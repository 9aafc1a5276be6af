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
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"
)

// textRunes mixes ASCII, JSON-significant characters and multi-byte UTF-8.
var textRunes = []rune("abcXYZ019 _/-.:\"\\\n\t<>&éüПрдж日本語✓😀")

func randomText(r *rand.Rand, maxLen int) string {
	n := r.Intn(maxLen + 1)
	out := make([]rune, n)
	for i := range out {
		out[i] = textRunes[r.Intn(len(textRunes))]
	}
	return string(out)
}

// randomValue builds a nested JSON value no deeper than depth.
func randomValue(r *rand.Rand, depth int) any {
	kind := r.Intn(6)
	if depth <= 0 {
		kind = r.Intn(4)
	}
	switch kind {
	case 0:
		return nil
	case 1:
		return r.Intn(2) == 0
	case 2:
		return float64(r.Int63n(1<<53) - 1<<52)
	case 3:
		return randomText(r, 12)
	case 4:
		arr := make([]any, r.Intn(4))
		for i := range arr {
			arr[i] = randomValue(r, depth-1)
		}
		return arr
	default:
		obj := make(map[string]any, 3)
		for i := r.Intn(4); i > 0; i-- {
			obj[randomText(r, 8)] = randomValue(r, depth-1)
		}
		return obj
	}
}

// randomRaw returns a nested JSON object, or nil for an absent field.
func randomRaw(r *rand.Rand, allowAbsent bool) RawMessage {
	if allowAbsent && r.Intn(4) == 0 {
		return nil
	}
	obj := map[string]any{"v": randomValue(r, 4)}
	raw, err := marshalNoEscape(obj)
	if err != nil {
		panic(err)
	}
	return raw
}

func randomID(r *rand.Rand) ID {
	if r.Intn(2) == 0 {
		return NumberID(r.Int63n(1<<53) - 1<<52)
	}
	return StringID(randomText(r, 16))
}

// anyMessage is a randomly generated Request, Notification or Response.
type anyMessage struct {
	Msg Message
}

// Generate implements quick.Generator.
func (anyMessage) Generate(r *rand.Rand, _ int) reflect.Value {
	var msg Message
	switch r.Intn(3) {
	case 0:
		msg = &Request{ID: randomID(r), Method: randomText(r, 24), Params: randomRaw(r, true)}
	case 1:
		msg = &Notification{Method: randomText(r, 24), Params: randomRaw(r, true)}
	default:
		resp := &Response{ID: randomID(r)}
		if r.Intn(2) == 0 {
			resp.Result = randomRaw(r, false)
		} else {
			resp.Error = &ResponseError{
				Code:    r.Int63n(70000) - 35000,
				Message: randomText(r, 20),
				Data:    randomRaw(r, true),
			}
		}
		msg = resp
	}
	return reflect.ValueOf(anyMessage{Msg: msg})
}

func sameJSON(a, b RawMessage) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

func sameMessage(want, got Message) bool {
	switch w := want.(type) {
	case *Request:
		g, ok := got.(*Request)
		return ok && w.ID == g.ID && w.Method == g.Method && sameJSON(w.Params, g.Params)
	case *Notification:
		g, ok := got.(*Notification)
		return ok && w.Method == g.Method && sameJSON(w.Params, g.Params)
	case *Response:
		g, ok := got.(*Response)
		if !ok || w.ID != g.ID {
			return false
		}
		if w.Error == nil {
			return g.Error == nil && sameJSON(w.Result, g.Result)
		}
		return g.Error != nil &&
			w.Error.Code == g.Error.Code &&
			w.Error.Message == g.Error.Message &&
			sameJSON(w.Error.Data, g.Error.Data)
	}
	return false
}

// TestPropertyRoundTrip verifies decode(encode(m)) == m for generated
// messages of every kind.
func TestPropertyRoundTrip(t *testing.T) {
	f := func(m anyMessage) bool {
		var buf bytes.Buffer
		if err := NewEncoder(&buf).Encode(m.Msg); err != nil {
			t.Logf("encode %#v: %v", m.Msg, err)
			return false
		}
		got, err := NewDecoder(&buf).Decode()
		if err != nil {
			t.Logf("decode %q: %v", buf.String(), err)
			return false
		}
		return sameMessage(m.Msg, got)
	}

	cfg := &quick.Config{MaxCount: 2000}
	if err := quick.Check(f, cfg); err != nil {
		t.Error(err)
	}
}

// TestPropertyStreamOfMessages verifies a stream of generated frames
// decodes back in order with nothing left over.
func TestPropertyStreamOfMessages(t *testing.T) {
	f := func(ms []anyMessage) bool {
		var buf bytes.Buffer
		enc := NewEncoder(&buf)
		for _, m := range ms {
			if err := enc.Encode(m.Msg); err != nil {
				return false
			}
		}
		dec := NewDecoder(&buf)
		for _, m := range ms {
			got, err := dec.Decode()
			if err != nil || !sameMessage(m.Msg, got) {
				return false
			}
		}
		_, err := dec.Decode()
		return err != nil && buf.Len() == 0
	}

	cfg := &quick.Config{MaxCount: 200}
	if err := quick.Check(f, cfg); err != nil {
		t.Error(err)
	}
}
