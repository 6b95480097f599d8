//go:build darwin

package watcher

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

type pollEntry struct {
	fd      int
	events  Events
	handler Handler
}

type Poller struct {
	ctx      context.Context
	cancel   context.CancelFunc
	kqueueFD int
	mutex    sync.Mutex
	entries  map[int]*pollEntry
	running  bool
	closed   atomic.Bool
	wg       sync.WaitGroup
	pipeFDs  [2]int
}

func New(ctx context.Context) (*Poller, error) {
	kqueueFD, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}

	var pipeFDs [2]int
	err = unix.Pipe(pipeFDs[:])
	if err != nil {
		unix.Close(kqueueFD)
		return nil, err
	}

	for _, pipeFD := range pipeFDs {
		err = unix.SetNonblock(pipeFD, true)
		if err != nil {
			unix.Close(pipeFDs[0])
			unix.Close(pipeFDs[1])
			unix.Close(kqueueFD)
			return nil, err
		}
	}

	_, err = unix.Kevent(kqueueFD, []unix.Kevent_t{{
		Ident:  uint64(pipeFDs[0]),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD,
	}}, nil, nil)
	if err != nil {
		unix.Close(pipeFDs[0])
		unix.Close(pipeFDs[1])
		unix.Close(kqueueFD)
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	poller := &Poller{
		ctx:      ctx,
		cancel:   cancel,
		kqueueFD: kqueueFD,
		entries:  make(map[int]*pollEntry),
		pipeFDs:  pipeFDs,
	}
	return poller, nil
}

func filterChanges(fd int, events Events, flags uint16) []unix.Kevent_t {
	changes := make([]unix.Kevent_t, 0, 2)
	if events&Read != 0 {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_READ,
			Flags:  flags,
		})
	}
	if events&Write != 0 {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_WRITE,
			Flags:  flags,
		})
	}
	return changes
}

// Except has no kqueue filter here and is accepted but never delivered.
func (p *Poller) Add(fd int, events Events, handler Handler) error {
	if events&(Read|Write|Except) == 0 {
		return unix.EINVAL
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed.Load() {
		return unix.EINVAL
	}
	if _, loaded := p.entries[fd]; loaded {
		return unix.EEXIST
	}

	changes := filterChanges(fd, events, unix.EV_ADD)
	if len(changes) > 0 {
		_, err := unix.Kevent(p.kqueueFD, changes, nil, nil)
		if err != nil {
			unix.Kevent(p.kqueueFD, filterChanges(fd, events, unix.EV_DELETE), nil, nil)
			return err
		}
	}

	p.entries[fd] = &pollEntry{
		fd:      fd,
		events:  events,
		handler: handler,
	}

	if !p.running {
		p.running = true
		p.wg.Add(1)
		go p.run()
	}

	return nil
}

func (p *Poller) Remove(fd int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	entry, ok := p.entries[fd]
	if !ok {
		return
	}

	unix.Kevent(p.kqueueFD, filterChanges(fd, entry.events, unix.EV_DELETE), nil, nil)
	delete(p.entries, fd)

	if len(p.entries) == 0 {
		p.wakeup()
	}
}

func (p *Poller) wakeup() {
	unix.Write(p.pipeFDs[1], []byte{0})
}

func (p *Poller) Close() error {
	p.mutex.Lock()
	p.closed.Store(true)
	p.mutex.Unlock()

	p.cancel()
	p.wakeup()
	p.wg.Wait()

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.kqueueFD != -1 {
		unix.Close(p.kqueueFD)
		p.kqueueFD = -1
	}
	if p.pipeFDs[0] != -1 {
		unix.Close(p.pipeFDs[0])
		unix.Close(p.pipeFDs[1])
		p.pipeFDs[0] = -1
		p.pipeFDs[1] = -1
	}
	return nil
}

func (p *Poller) run() {
	defer p.wg.Done()

	events := make([]unix.Kevent_t, 64)
	var buffer [1]byte

	for {
		select {
		case <-p.ctx.Done():
			p.mutex.Lock()
			p.running = false
			p.mutex.Unlock()
			return
		default:
		}

		n, err := unix.Kevent(p.kqueueFD, nil, events, nil)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			p.mutex.Lock()
			p.running = false
			p.mutex.Unlock()
			return
		}

		for i := 0; i < n; i++ {
			event := events[i]
			fd := int(event.Ident)

			if fd == p.pipeFDs[0] {
				unix.Read(p.pipeFDs[0], buffer[:])
				continue
			}

			if event.Flags&unix.EV_ERROR != 0 {
				continue
			}

			switch event.Filter {
			case unix.EVFILT_READ:
				p.deliver(fd, Read)
			case unix.EVFILT_WRITE:
				p.deliver(fd, Write)
			}
		}

		p.mutex.Lock()
		if len(p.entries) == 0 {
			p.running = false
			p.mutex.Unlock()
			return
		}
		p.mutex.Unlock()
	}
}

func (p *Poller) deliver(fd int, direction Events) {
	p.mutex.Lock()
	entry, ok := p.entries[fd]
	if !ok || entry.events&direction == 0 {
		p.mutex.Unlock()
		return
	}
	handler := entry.handler
	p.mutex.Unlock()

	if handler.HandleEvent(fd, direction) {
		return
	}
	p.drop(fd, direction)
}

func (p *Poller) drop(fd int, direction Events) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	entry, ok := p.entries[fd]
	if !ok || entry.events&direction == 0 {
		return
	}

	unix.Kevent(p.kqueueFD, filterChanges(fd, direction, unix.EV_DELETE), nil, nil)
	entry.events &^= direction
	if entry.events&(Read|Write) == 0 {
		delete(p.entries, fd)
	}
}
