package mscfb

import (
	"bytes"
)

// Stream is a fully resolved stream. It reads and seeks like a file.
type Stream struct {
	*bytes.Reader

	Entry *Entry
	data  []byte
}

func newStream(entry *Entry, data []byte) *Stream {
	return &Stream{
		Reader: bytes.NewReader(data),
		Entry:  entry,
		data:   data,
	}
}

// Bytes returns the whole stream regardless of the read position.
func (s *Stream) Bytes() []byte {
	return s.data
}
