// Package watcher multiplexes readiness notifications for raw file
// descriptors. Registrations are level triggered: the handler keeps firing
// while the descriptor stays ready, until it returns false for that
// direction or the descriptor is removed.
package watcher

import (
	"context"

	"github.com/strombase/strom/common"
)

type Events uint8

const (
	Read Events = 1 << iota
	Write
	Except
)

// Handler receives readiness events. Each call carries exactly one event
// bit. The return value decides whether the fd stays watched for that
// direction.
type Handler interface {
	HandleEvent(fd int, event Events) bool
}

type HandlerFunc func(fd int, event Events) bool

func (f HandlerFunc) HandleEvent(fd int, event Events) bool {
	return f(fd, event)
}

// Watcher holds at most one registration per fd. Add on an fd that is
// already registered fails with EEXIST, Remove of an unknown fd is a no-op.
// Watched fds are never closed by the watcher.
type Watcher interface {
	Add(fd int, events Events, handler Handler) error
	Remove(fd int)
}

var _ Watcher = (*Poller)(nil)

var defaultPoller = common.OnceValues(func() (*Poller, error) {
	return New(context.Background())
})

// Default returns the shared process-wide poller, creating it on first use.
func Default() (*Poller, error) {
	return defaultPoller()
}
