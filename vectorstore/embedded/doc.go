// Package embedded implements vectorstore.Store on a local BadgerDB
// instance. Vectors live next to their chunks and search is brute-force
// cosine similarity over a session-prefix scan, which is adequate for the
// per-session index sizes this system targets.
package embedded
