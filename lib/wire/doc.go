// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire implements the coordinator daemon's request-response
// protocol: a CBOR envelope carried over a Unix domain socket, one
// request per connection.
//
// Clients (the CLI, or an agent's own process) dial the socket, write
// a single CBOR request, read a single CBOR response, and close the
// connection. There is no authentication layer — the socket's
// filesystem permissions are the trust boundary.
package wire
