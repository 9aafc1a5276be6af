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
	"strconv"

	"github.com/tidwall/gjson"
)

type idKind uint8

const (
	idNull idKind = iota
	idNumber
	idString
)

// ID is an opaque JSON-RPC request identifier.
//
// Description:
//
//	An ID is either a number, a string, or null. Numbers keep their
//	literal wire text and are never interpreted arithmetically, so 7 and
//	7.0 are different identifiers and large values survive unchanged.
//	The zero value is the null id.
//
// Thread Safety:
//
//	ID is an immutable value type. It is comparable and can be used as a
//	map key.
type ID struct {
	kind idKind
	text string
}

// NumberID returns a numeric identifier.
func NumberID(n int64) ID {
	return ID{kind: idNumber, text: strconv.FormatInt(n, 10)}
}

// StringID returns a string identifier.
func StringID(s string) ID {
	return ID{kind: idString, text: s}
}

// IsNull reports whether the id is the JSON null id.
func (id ID) IsNull() bool {
	return id.kind == idNull
}

// IsString reports whether the id is a string id.
func (id ID) IsString() bool {
	return id.kind == idString
}

// String renders the id for logs. String ids are quoted.
func (id ID) String() string {
	switch id.kind {
	case idNumber:
		return id.text
	case idString:
		return strconv.Quote(id.text)
	default:
		return "null"
	}
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case idNumber:
		return []byte(id.text), nil
	case idString:
		return marshalNoEscape(id.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	parsed, err := parseID(gjson.ParseBytes(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// parseID converts a gjson value into an ID.
func parseID(v gjson.Result) (ID, error) {
	switch v.Type {
	case gjson.Number:
		return ID{kind: idNumber, text: v.Raw}, nil
	case gjson.String:
		return ID{kind: idString, text: v.Str}, nil
	case gjson.Null:
		return ID{}, nil
	default:
		return ID{}, serializationErrorf("invalid id %s", v.Raw)
	}
}
