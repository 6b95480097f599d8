package stream

import (
	"github.com/strombase/strom/common/buf"
)

// ReadBuffer fills the free space of an empty buffer with one transfer.
func (s *Stream) ReadBuffer(buffer *buf.Buffer, block bool) error {
	n, err := s.Read(buffer.FreeBytes(), block)
	if err != nil {
		return err
	}
	buffer.Truncate(n)
	return nil
}

// WriteBuffer transfers the buffered bytes once and advances past the
// written prefix. The buffer keeps the remainder after a short write.
func (s *Stream) WriteBuffer(buffer *buf.Buffer, block bool) error {
	if buffer.IsEmpty() {
		return nil
	}
	n, err := s.Write(buffer.Bytes(), block)
	if err != nil {
		return err
	}
	buffer.Advance(n)
	return nil
}
