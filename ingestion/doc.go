// Package ingestion orchestrates document uploads and session-wide document
// deletion.
//
// An upload runs extract -> chunk -> index -> catalog, with the catalog
// record written last so a record only ever points at chunks that exist. A
// failed upload best-effort rolls back anything it already produced. Session
// deletion runs the sequence in reverse per document: backing file, then
// index entries, then catalog records, so an interrupted deletion can leave
// an orphaned catalog entry but never an orphaned index entry.
package ingestion
