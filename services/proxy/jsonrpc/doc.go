// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package jsonrpc implements the JSON-RPC 2.0 message model and the LSP
// base protocol framing used on the editor and server stdio streams.
//
// # Wire Format
//
// Every message is a header block followed by a JSON body:
//
//	Content-Length: 52\r\n
//	\r\n
//	{"jsonrpc":"2.0","id":1,"method":"initialize",...}
//
// # Usage
//
//	dec := jsonrpc.NewDecoder(os.Stdin)
//	enc := jsonrpc.NewEncoder(os.Stdout)
//	for {
//	    msg, err := dec.Decode()
//	    if err == io.EOF {
//	        return nil
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    if err := enc.Encode(msg); err != nil {
//	        return err
//	    }
//	}
//
// Params and results are kept as raw JSON, so messages the proxy does not
// rewrite pass through with their payloads untouched.
package jsonrpc
