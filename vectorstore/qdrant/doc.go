// Package qdrant implements vectorstore.Store against a Qdrant server over
// its REST API. The collection is created lazily on first insert, once the
// embedding dimension is known, and session scoping is expressed as a
// payload filter on every search.
package qdrant
