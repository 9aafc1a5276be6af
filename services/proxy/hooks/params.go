// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hooks

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/jsonrpc"
)

// ErrMissingParam indicates a parameter a hook depends on is absent.
var ErrMissingParam = errors.New("missing required parameter")

// stringParam reads a string at a gjson path in params.
func stringParam(params jsonrpc.RawMessage, path string) (string, bool) {
	if len(params) == 0 {
		return "", false
	}
	v := gjson.GetBytes(params, path)
	if v.Type != gjson.String || v.Str == "" {
		return "", false
	}
	return v.Str, true
}

// documentURI reads textDocument.uri.
func documentURI(params jsonrpc.RawMessage) (string, error) {
	uri, ok := stringParam(params, "textDocument.uri")
	if !ok {
		return "", fmt.Errorf("%w: textDocument.uri", ErrMissingParam)
	}
	return uri, nil
}

// workspaceRoot reads the workspace root from initialize params: rootUri,
// then the deprecated rootPath, then the first workspace folder.
func workspaceRoot(params jsonrpc.RawMessage) string {
	for _, path := range []string{"rootUri", "rootPath", "workspaceFolders.0.uri"} {
		if root, ok := stringParam(params, path); ok {
			return root
		}
	}
	return ""
}

// diagnosticRequest builds a pull diagnostic request for uri.
func diagnosticRequest(ids *proxy.IDAllocator, uri string) (*jsonrpc.Request, error) {
	params, err := sjson.SetBytes([]byte(`{}`), "textDocument.uri", uri)
	if err != nil {
		return nil, fmt.Errorf("build %s params: %w", MethodDiagnostic, err)
	}
	return &jsonrpc.Request{ID: ids.Next(), Method: MethodDiagnostic, Params: params}, nil
}
