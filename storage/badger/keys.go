package badger

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Default collection names. A collection is a key-prefix namespace inside
// the shared database; callers may override the names through configuration.
const (
	DefaultDocumentCollection     = "documents"
	DefaultConversationCollection = "conversations"
)

// Key layout. The tag byte after the collection separates record kinds so
// prefix scans over one kind never touch another:
//
//	<collection>:r:<session>:<documentID>  document record
//	<collection>:t:<session>:<seq8>        conversation turn (big-endian sequence)
//	<collection>:c:<session>               conversation sequence counter
//
// Session ids are validated upstream to a charset that excludes ':', so a
// session can never extend its prefix into another session's keyspace.

func validateCollection(name string) error {
	if name == "" {
		return fmt.Errorf("collection name must not be empty")
	}
	if strings.Contains(name, ":") {
		return fmt.Errorf("collection name must not contain ':'")
	}
	return nil
}

// makeDocumentKey generates the key for a document record.
func makeDocumentKey(collection, sessionID, documentID string) []byte {
	return []byte(fmt.Sprintf("%s:r:%s:%s", collection, sessionID, documentID))
}

// makeDocumentPrefix generates the scan prefix covering one session's
// document records.
func makeDocumentPrefix(collection, sessionID string) []byte {
	return []byte(fmt.Sprintf("%s:r:%s:", collection, sessionID))
}

// makeTurnKey generates the key for a conversation turn. The sequence is
// written in BigEndian order so lexicographic sort matches append order.
func makeTurnKey(collection, sessionID string, seq uint64) []byte {
	prefix := makeTurnPrefix(collection, sessionID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeTurnPrefix generates the scan prefix covering one session's turns.
func makeTurnPrefix(collection, sessionID string) []byte {
	return []byte(fmt.Sprintf("%s:t:%s:", collection, sessionID))
}

// makeTurnSeqKey generates the key holding a session's sequence counter.
func makeTurnSeqKey(collection, sessionID string) []byte {
	return []byte(fmt.Sprintf("%s:c:%s", collection, sessionID))
}
