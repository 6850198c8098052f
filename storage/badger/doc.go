// Package badger implements the storage repositories on top of BadgerDB.
//
// A single Backend wraps one BadgerDB instance; repositories share it and
// each own a named collection, a key-prefix namespace inside the database.
// Session scoping is structural: every key embeds the session id between
// fixed delimiters, so listing a session is a single prefix scan and keys
// from different sessions can never share a prefix.
package badger
