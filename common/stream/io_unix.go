//go:build linux || darwin

package stream

import (
	"io"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock reports that a non-blocking transfer found no room or no
// data. Both platform spellings of the condition collapse into it.
var ErrWouldBlock error = unix.EWOULDBLOCK

// Read transfers up to len(p) bytes out of the stream. With block set it
// issues a plain read, otherwise a non-blocking receive. Interrupted calls
// are retried, an orderly end of stream surfaces as io.EOF.
func (s *Stream) Read(p []byte, block bool) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		var (
			n   int
			err error
		)
		if block {
			n, err = unix.Read(s.fd, p)
		} else {
			n, _, err = unix.Recvfrom(s.fd, p, unix.MSG_DONTWAIT)
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				err = ErrWouldBlock
			}
		}
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write transfers up to len(p) bytes into the stream. With block set it
// issues a plain write, otherwise a non-blocking send. Interrupted calls
// are retried. Short writes return the transferred count with a nil error.
func (s *Stream) Write(p []byte, block bool) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		var (
			n   int
			err error
		)
		if block {
			n, err = unix.Write(s.fd, p)
		} else {
			n, err = unix.SendmsgN(s.fd, p, nil, nil, unix.MSG_DONTWAIT)
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				err = ErrWouldBlock
			}
		}
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1, err
		}
		return n, nil
	}
}

func dupFileDescriptor(fd int) (int, error) {
	newFD, err := unix.Dup(fd)
	if err != nil {
		return -1, err
	}
	unix.CloseOnExec(newFD)
	err = unix.SetNonblock(newFD, false)
	if err != nil {
		unix.Close(newFD)
		return -1, err
	}
	return newFD, nil
}

func validateFD(fd int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	return err
}

func closeFD(fd int) error {
	return unix.Close(fd)
}
