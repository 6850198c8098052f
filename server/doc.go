// Package server exposes the ingestion pipeline and the assistant over a
// small JSON HTTP API.
//
// The calling session is taken from the Session-Id request header; requests
// without the header operate on the global scope. The handlers carry no
// business logic: they decode, delegate and map errors to status codes
// (validation 400, generation 502, everything else 500).
package server
