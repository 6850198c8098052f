package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Binary serializers for the record types that reach persistent storage.
// Times travel as microseconds since the Unix epoch and are restored in UTC.

var stringSliceMUS = ord.NewSliceSer[string](ord.String)

// DocumentRecordMUS is the binary serializer for DocumentRecord.
var DocumentRecordMUS = documentRecordMUS{}

type documentRecordMUS struct{}

func (s documentRecordMUS) Marshal(v DocumentRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.FilePath, bs[n:])
	n += ord.String.Marshal(v.Filename, bs[n:])
	n += stringSliceMUS.Marshal(v.ChunkIDs, bs[n:])
	n += ord.String.Marshal(v.SessionID, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	return
}

func (s documentRecordMUS) Unmarshal(bs []byte) (v DocumentRecord, n int, err error) {
	var n1 int
	v.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.FilePath, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Filename, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ChunkIDs, n1, err = stringSliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.SessionID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = time.UnixMicro(micros).UTC()
	return
}

func (s documentRecordMUS) Size(v DocumentRecord) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.FilePath)
	size += ord.String.Size(v.Filename)
	size += stringSliceMUS.Size(v.ChunkIDs)
	size += ord.String.Size(v.SessionID)
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	return
}

func (s documentRecordMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = stringSliceMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}

// ConversationTurnMUS is the binary serializer for ConversationTurn.
var ConversationTurnMUS = conversationTurnMUS{}

type conversationTurnMUS struct{}

func (s conversationTurnMUS) Marshal(v ConversationTurn, bs []byte) (n int) {
	n = ord.String.Marshal(v.SessionID, bs)
	n += varint.Int.Marshal(int(v.Role), bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += varint.Uint64.Marshal(v.Sequence, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	return
}

func (s conversationTurnMUS) Unmarshal(bs []byte) (v ConversationTurn, n int, err error) {
	var n1 int
	v.SessionID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var role int
	role, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Role = Role(role)
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Sequence, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = time.UnixMicro(micros).UTC()
	return
}

func (s conversationTurnMUS) Size(v ConversationTurn) (size int) {
	size = ord.String.Size(v.SessionID)
	size += varint.Int.Size(int(v.Role))
	size += ord.String.Size(v.Content)
	size += varint.Uint64.Size(v.Sequence)
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	return
}

func (s conversationTurnMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Uint64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}
