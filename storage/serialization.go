// Copyright 2025 The pdfstash authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mus-format/mus-go/varint"
)

// ChunkRecord is the stored form of an embedded chunk: the chunk fields
// plus the vector its text embedded to.
type ChunkRecord struct {
	ID       string
	Text     string
	Source   string
	Page     int
	Index    int
	Checksum uint64
	Vector   []float32
}

// ChunkRecordMUS serializes ChunkRecord values in the MUS format.
var ChunkRecordMUS = chunkRecordMUS{}

type chunkRecordMUS struct{}

func (chunkRecordMUS) Marshal(v ChunkRecord, bs []byte) (n int) {
	n = marshalString(v.ID, bs)
	n += marshalString(v.Text, bs[n:])
	n += marshalString(v.Source, bs[n:])
	n += varint.Int.Marshal(v.Page, bs[n:])
	n += varint.Int.Marshal(v.Index, bs[n:])
	n += varint.Uint64.Marshal(v.Checksum, bs[n:])
	n += marshalVector(v.Vector, bs[n:])
	return n
}

func (chunkRecordMUS) Unmarshal(bs []byte) (v ChunkRecord, n int, err error) {
	var n1 int
	if v.ID, n, err = unmarshalString(bs); err != nil {
		return
	}
	if v.Text, n1, err = unmarshalString(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Source, n1, err = unmarshalString(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Page, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Index, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Checksum, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Vector, n1, err = unmarshalVector(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (chunkRecordMUS) Size(v ChunkRecord) (size int) {
	size = sizeString(v.ID)
	size += sizeString(v.Text)
	size += sizeString(v.Source)
	size += varint.Int.Size(v.Page)
	size += varint.Int.Size(v.Index)
	size += varint.Uint64.Size(v.Checksum)
	size += sizeVector(v.Vector)
	return size
}

// MarshalChunkRecord serializes a ChunkRecord to bytes.
func MarshalChunkRecord(record *ChunkRecord) []byte {
	buf := make([]byte, ChunkRecordMUS.Size(*record))
	ChunkRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalChunkRecord deserializes a ChunkRecord from bytes.
func UnmarshalChunkRecord(data []byte) (*ChunkRecord, error) {
	record, _, err := ChunkRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return &record, nil
}

func marshalString(v string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	n += copy(bs[n:], v)
	return n
}

func unmarshalString(bs []byte) (v string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return "", n, err
	}
	if length < 0 || len(bs) < n+length {
		return "", n, ErrTruncatedData
	}
	return string(bs[n : n+length]), n + length, nil
}

func sizeString(v string) int {
	return varint.Int.Size(len(v)) + len(v)
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		binary.LittleEndian.PutUint32(bs[n:], math.Float32bits(f))
		n += 4
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || len(bs) < n+length*4 {
		return nil, n, ErrTruncatedData
	}
	v = make([]float32, length)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(bs[n:]))
		n += 4
	}
	return v, n, nil
}

func sizeVector(v []float32) int {
	return varint.Int.Size(len(v)) + len(v)*4
}
