//go:build linux

package watcher

import (
	"context"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

type pollEntry struct {
	fd             int
	registrationID uint64
	events         Events
	handler        Handler
}

type Poller struct {
	ctx                 context.Context
	cancel              context.CancelFunc
	epollFD             int
	mutex               sync.Mutex
	entries             map[int]*pollEntry
	registrationCounter uint64
	registrationToFD    map[uint64]int
	running             bool
	closed              atomic.Bool
	wg                  sync.WaitGroup
	pipeFDs             [2]int
}

func New(ctx context.Context) (*Poller, error) {
	epollFD, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	var pipeFDs [2]int
	err = unix.Pipe2(pipeFDs[:], unix.O_NONBLOCK|unix.O_CLOEXEC)
	if err != nil {
		unix.Close(epollFD)
		return nil, err
	}

	pipeEvent := &unix.EpollEvent{Events: unix.EPOLLIN}
	*(*uint64)(unsafe.Pointer(&pipeEvent.Fd)) = 0
	err = unix.EpollCtl(epollFD, unix.EPOLL_CTL_ADD, pipeFDs[0], pipeEvent)
	if err != nil {
		unix.Close(pipeFDs[0])
		unix.Close(pipeFDs[1])
		unix.Close(epollFD)
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	poller := &Poller{
		ctx:              ctx,
		cancel:           cancel,
		epollFD:          epollFD,
		entries:          make(map[int]*pollEntry),
		registrationToFD: make(map[uint64]int),
		pipeFDs:          pipeFDs,
	}
	return poller, nil
}

func epollEvents(events Events) uint32 {
	var rawEvents uint32
	if events&Read != 0 {
		rawEvents |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if events&Write != 0 {
		rawEvents |= unix.EPOLLOUT
	}
	if events&Except != 0 {
		rawEvents |= unix.EPOLLPRI
	}
	return rawEvents
}

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

	p.registrationCounter++
	registrationID := p.registrationCounter

	event := &unix.EpollEvent{Events: epollEvents(events)}
	*(*uint64)(unsafe.Pointer(&event.Fd)) = registrationID

	err := unix.EpollCtl(p.epollFD, unix.EPOLL_CTL_ADD, fd, event)
	if err != nil {
		return err
	}

	entry := &pollEntry{
		fd:             fd,
		registrationID: registrationID,
		events:         events,
		handler:        handler,
	}
	p.entries[fd] = entry
	p.registrationToFD[registrationID] = fd

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

	unix.EpollCtl(p.epollFD, unix.EPOLL_CTL_DEL, fd, nil)
	delete(p.registrationToFD, entry.registrationID)
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

	if p.epollFD != -1 {
		unix.Close(p.epollFD)
		p.epollFD = -1
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

	events := make([]unix.EpollEvent, 64)
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

		n, err := unix.EpollWait(p.epollFD, events, -1)
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
			registrationID := *(*uint64)(unsafe.Pointer(&event.Fd))

			if registrationID == 0 {
				unix.Read(p.pipeFDs[0], buffer[:])
				continue
			}

			p.dispatch(registrationID, event.Events)
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

// Error and hangup conditions reach every registered direction so the
// callback observes the failure from its own read or write call.
func (p *Poller) dispatch(registrationID uint64, rawEvents uint32) {
	if rawEvents&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		p.deliver(registrationID, Read)
	}
	if rawEvents&(unix.EPOLLOUT|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		p.deliver(registrationID, Write)
	}
	if rawEvents&unix.EPOLLPRI != 0 {
		p.deliver(registrationID, Except)
	}
}

func (p *Poller) deliver(registrationID uint64, direction Events) {
	p.mutex.Lock()
	fd, loaded := p.registrationToFD[registrationID]
	if !loaded {
		p.mutex.Unlock()
		return
	}
	entry := p.entries[fd]
	if entry == nil || entry.registrationID != registrationID || entry.events&direction == 0 {
		p.mutex.Unlock()
		return
	}
	handler := entry.handler
	p.mutex.Unlock()

	if handler.HandleEvent(fd, direction) {
		return
	}
	p.drop(registrationID, direction)
}

func (p *Poller) drop(registrationID uint64, direction Events) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	fd, loaded := p.registrationToFD[registrationID]
	if !loaded {
		return
	}
	entry := p.entries[fd]
	if entry == nil || entry.registrationID != registrationID {
		return
	}

	entry.events &^= direction
	if entry.events&(Read|Write|Except) == 0 {
		unix.EpollCtl(p.epollFD, unix.EPOLL_CTL_DEL, fd, nil)
		delete(p.registrationToFD, registrationID)
		delete(p.entries, fd)
		return
	}

	event := &unix.EpollEvent{Events: epollEvents(entry.events)}
	*(*uint64)(unsafe.Pointer(&event.Fd)) = registrationID
	unix.EpollCtl(p.epollFD, unix.EPOLL_CTL_MOD, fd, event)
}
