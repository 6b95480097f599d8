//go:build !linux && !darwin

package watcher

import (
	"context"

	E "github.com/strombase/strom/common/exceptions"
)

type Poller struct{}

func New(ctx context.Context) (*Poller, error) {
	return nil, E.New("fd watcher not supported on this platform")
}

func (p *Poller) Add(fd int, events Events, handler Handler) error {
	return E.New("fd watcher not supported on this platform")
}

func (p *Poller) Remove(fd int) {}

func (p *Poller) Close() error {
	return nil
}
