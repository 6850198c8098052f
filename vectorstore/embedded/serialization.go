package embedded

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/chelorope/local-llm-rag/core"
	"github.com/chelorope/local-llm-rag/storage"
)

// chunkRecord is the stored form of an indexed chunk: the chunk itself plus
// its embedding.
type chunkRecord struct {
	Chunk  core.Chunk
	Vector []float32
}

var vectorMUS = ord.NewSliceSer[float32](raw.Float32)

var chunkRecordMUS = chunkRecordSer{}

type chunkRecordSer struct{}

func (s chunkRecordSer) Marshal(v chunkRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.Chunk.ID, bs)
	n += ord.String.Marshal(v.Chunk.Text, bs[n:])
	n += ord.String.Marshal(v.Chunk.SessionID, bs[n:])
	n += ord.String.Marshal(v.Chunk.SourcePath, bs[n:])
	n += varint.Int.Marshal(v.Chunk.PageIndex, bs[n:])
	n += varint.Int.Marshal(v.Chunk.Position, bs[n:])
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	return
}

func (s chunkRecordSer) Unmarshal(bs []byte) (v chunkRecord, n int, err error) {
	var n1 int
	v.Chunk.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Chunk.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Chunk.SessionID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Chunk.SourcePath, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Chunk.PageIndex, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Chunk.Position, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s chunkRecordSer) Size(v chunkRecord) (size int) {
	size = ord.String.Size(v.Chunk.ID)
	size += ord.String.Size(v.Chunk.Text)
	size += ord.String.Size(v.Chunk.SessionID)
	size += ord.String.Size(v.Chunk.SourcePath)
	size += varint.Int.Size(v.Chunk.PageIndex)
	size += varint.Int.Size(v.Chunk.Position)
	size += vectorMUS.Size(v.Vector)
	return
}

func marshalChunkRecord(record *chunkRecord) []byte {
	buf := make([]byte, chunkRecordMUS.Size(*record))
	chunkRecordMUS.Marshal(*record, buf)
	return buf
}

func unmarshalChunkRecord(data []byte) (*chunkRecord, error) {
	record, _, err := chunkRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode chunk record: %w", storage.ErrCorruptRecord, err)
	}
	return &record, nil
}
