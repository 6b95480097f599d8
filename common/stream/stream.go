// Package stream wraps a single open transport descriptor behind a byte
// stream with both blocking and non-blocking transfers, readiness callbacks
// driven by a watcher, and a buffered formatted-text facade.
//
// A Stream owns its descriptor exclusively and performs no internal
// locking: all calls, including callbacks dispatched by the watcher, must
// stay on a single flow of control.
package stream

import (
	"bufio"
	"os"
	"syscall"

	"github.com/strombase/strom/common"
	E "github.com/strombase/strom/common/exceptions"
	"github.com/strombase/strom/common/watcher"
)

// Callback handles a readiness event on its direction. Returning false
// clears the slot and stops watching that direction.
type Callback func(s *Stream) bool

type Stream struct {
	fd            int
	watcher       watcher.Watcher
	readCallback  Callback
	writeCallback Callback
	file          *os.File
	out           *bufio.Writer
}

var _ watcher.Handler = (*Stream)(nil)

// New takes ownership of an open descriptor. For sockets the descriptor
// must be connected, and it must be in blocking mode for blocking
// transfers to actually block. Readiness callbacks use the shared default
// watcher, resolved on first registration.
func New(fd int) *Stream {
	return &Stream{fd: fd}
}

// NewWithWatcher is New with an explicit readiness watcher.
func NewWithWatcher(fd int, w watcher.Watcher) *Stream {
	return &Stream{fd: fd, watcher: w}
}

// NewFromConn duplicates the descriptor out of conn and wraps the
// duplicate. The duplicate is switched to blocking mode and closed on
// exec; conn itself stays owned by the caller. Status flags live on the
// open file description shared by both descriptors, so the mode switch
// leaves conn in blocking mode as well.
func NewFromConn(conn syscall.Conn) (*Stream, error) {
	rawFD, err := common.GetFileDescriptor(conn)
	if err != nil {
		return nil, err
	}
	fd, err := dupFileDescriptor(int(rawFD))
	if err != nil {
		return nil, E.Cause(err, "duplicate stream descriptor")
	}
	return New(fd), nil
}

func (s *Stream) resolveWatcher() (watcher.Watcher, error) {
	if s.watcher == nil {
		poller, err := watcher.Default()
		if err != nil {
			return nil, err
		}
		s.watcher = poller
	}
	return s.watcher, nil
}

// OnRead installs callback for read readiness, replacing any previous one.
// A nil callback clears the slot.
func (s *Stream) OnRead(callback Callback) error {
	return s.rewatch(callback, s.writeCallback)
}

// OnWrite installs callback for write readiness, replacing any previous
// one. A nil callback clears the slot.
func (s *Stream) OnWrite(callback Callback) error {
	return s.rewatch(s.readCallback, callback)
}

// The watcher holds at most one registration per fd, so changing either
// direction removes the whole registration and reinstalls the union of the
// remaining interests. On a failed reinstall both slots are cleared, never
// left half registered.
func (s *Stream) rewatch(readCallback, writeCallback Callback) error {
	if s.readCallback != nil || s.writeCallback != nil {
		s.watcher.Remove(s.fd)
	}
	s.readCallback = readCallback
	s.writeCallback = writeCallback

	var events watcher.Events
	if readCallback != nil {
		events |= watcher.Read
	}
	if writeCallback != nil {
		events |= watcher.Write
	}
	if events == 0 {
		return nil
	}

	w, err := s.resolveWatcher()
	if err == nil {
		err = w.Add(s.fd, events, s)
	}
	if err != nil {
		s.readCallback = nil
		s.writeCallback = nil
		return E.Cause(err, "register stream with watcher")
	}
	return nil
}

// HandleEvent dispatches a readiness event to the matching callback slot.
// Except events carry no slot and are dropped.
func (s *Stream) HandleEvent(fd int, event watcher.Events) bool {
	switch event {
	case watcher.Read:
		if s.readCallback == nil {
			return false
		}
		if s.readCallback(s) {
			return true
		}
		s.readCallback = nil
		return false
	case watcher.Write:
		if s.writeCallback == nil {
			return false
		}
		if s.writeCallback(s) {
			return true
		}
		s.writeCallback = nil
		return false
	default:
		return false
	}
}

// Close deregisters any callbacks and closes the descriptor, through the
// facade when one was created so buffered text is flushed first. A second
// Close returns os.ErrClosed instead of touching a recycled descriptor.
func (s *Stream) Close() error {
	if s.fd == -1 {
		return os.ErrClosed
	}
	if s.readCallback != nil || s.writeCallback != nil {
		s.watcher.Remove(s.fd)
		s.readCallback = nil
		s.writeCallback = nil
	}
	fd := s.fd
	s.fd = -1
	if s.file != nil {
		file, out := s.file, s.out
		s.file = nil
		s.out = nil
		return E.Errors(out.Flush(), file.Close())
	}
	return closeFD(fd)
}
