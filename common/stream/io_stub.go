//go:build !linux && !darwin

package stream

import (
	E "github.com/strombase/strom/common/exceptions"
)

var ErrWouldBlock error = E.New("would block")

func (s *Stream) Read(p []byte, block bool) (int, error) {
	return -1, E.New("stream transfers not supported on this platform")
}

func (s *Stream) Write(p []byte, block bool) (int, error) {
	return -1, E.New("stream transfers not supported on this platform")
}

func dupFileDescriptor(fd int) (int, error) {
	return -1, E.New("stream descriptors not supported on this platform")
}

func validateFD(fd int) error {
	return E.New("stream descriptors not supported on this platform")
}

func closeFD(fd int) error {
	return E.New("stream descriptors not supported on this platform")
}
