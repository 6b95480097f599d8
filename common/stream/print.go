package stream

import (
	"bufio"
	"fmt"
	"os"

	E "github.com/strombase/strom/common/exceptions"
)

// Print writes formatted text through a buffered facade over the
// descriptor, created on first use. Buffered text reaches the peer when
// the buffer fills or the stream is closed. Mixing Print with raw Write
// calls can interleave output.
func (s *Stream) Print(format string, args ...any) (int, error) {
	return s.Vprint(format, args)
}

// Vprint is Print with the arguments already collected.
func (s *Stream) Vprint(format string, args []any) (int, error) {
	if s.out == nil {
		err := validateFD(s.fd)
		if err != nil {
			return -1, E.Cause(err, "stream facade")
		}
		s.file = os.NewFile(uintptr(s.fd), "stream")
		s.out = bufio.NewWriter(s.file)
	}
	return fmt.Fprintf(s.out, format, args...)
}
