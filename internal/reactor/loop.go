// Package reactor runs the compositor's single-threaded event loop. Every
// mutation of compositor state happens on the goroutine that calls
// EventLoop.Run; other goroutines hand work over through a JobExecutor.
package reactor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/bnema/wayfold/internal/logger"
	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

// Events is an epoll event mask.
type Events uint32

const (
	Readable Events = unix.EPOLLIN
	Writable Events = unix.EPOLLOUT
	Hangup   Events = unix.EPOLLHUP
	Error    Events = unix.EPOLLERR
)

// Handler is called on the reactor when fd is ready.
type Handler func(fd int, events Events)

// Source is a file descriptor registered with an EventLoop.
type Source struct {
	loop    *EventLoop
	fd      int
	handler Handler
}

// FD returns the watched descriptor.
func (s *Source) FD() int { return s.fd }

// Remove stops watching the descriptor. It does not close it.
func (s *Source) Remove() error {
	return s.loop.remove(s)
}

// EventLoop is a level-triggered epoll loop.
type EventLoop struct {
	epfd   int
	wakefd int
	log    *log.Logger

	mu      sync.Mutex
	sources map[int]*Source

	running atomic.Bool
	stopped atomic.Bool
}

func NewEventLoop() (*EventLoop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll_ctl wakeup: %w", err)
	}
	return &EventLoop{
		epfd:    epfd,
		wakefd:  wakefd,
		log:     logger.WithPrefix("reactor"),
		sources: make(map[int]*Source),
	}, nil
}

// AddFD watches fd for events and calls h on the reactor when it is ready.
func (l *EventLoop) AddFD(fd int, events Events, h Handler) (*Source, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.sources[fd]; ok {
		return nil, fmt.Errorf("fd %d already registered", fd)
	}
	ev := unix.EpollEvent{Events: uint32(events), Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return nil, fmt.Errorf("epoll_ctl add %d: %w", fd, err)
	}
	src := &Source{loop: l, fd: fd, handler: h}
	l.sources[fd] = src
	return src, nil
}

func (l *EventLoop) remove(s *Source) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sources[s.fd] != s {
		return nil
	}
	delete(l.sources, s.fd)
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, s.fd, nil); err != nil && !errors.Is(err, unix.EBADF) {
		return fmt.Errorf("epoll_ctl del %d: %w", s.fd, err)
	}
	return nil
}

// Sources returns the number of registered descriptors.
func (l *EventLoop) Sources() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sources)
}

// Run dispatches ready descriptors on the calling goroutine until Stop is
// called or ctx is done. The goroutine stays locked to its OS thread.
func (l *EventLoop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("event loop already running")
	}
	defer l.running.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			l.Stop()
		case <-done:
		}
	}()

	l.log.Debug("Event loop running")
	events := make([]unix.EpollEvent, 32)
	for !l.stopped.Load() {
		n, err := unix.EpollWait(l.epfd, events, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}
		for _, ev := range events[:n] {
			fd := int(ev.Fd)
			if fd == l.wakefd {
				l.drainWakeup()
				continue
			}
			l.mu.Lock()
			src := l.sources[fd]
			l.mu.Unlock()
			if src == nil {
				// Removed by an earlier handler in this batch.
				continue
			}
			src.handler(fd, Events(ev.Events))
		}
	}
	l.log.Debug("Event loop stopped")
	return ctx.Err()
}

// Stop makes Run return after the current dispatch. Safe from any goroutine.
func (l *EventLoop) Stop() {
	if l.stopped.Swap(true) {
		return
	}
	var one [8]byte
	one[0] = 1
	if _, err := unix.Write(l.wakefd, one[:]); err != nil && !errors.Is(err, unix.EAGAIN) {
		l.log.Warn("wakeup failed", "err", err)
	}
}

func (l *EventLoop) drainWakeup() {
	var buf [8]byte
	_, _ = unix.Read(l.wakefd, buf[:])
}

// Close releases the epoll instance. The loop must not be running.
func (l *EventLoop) Close() error {
	l.mu.Lock()
	clear(l.sources)
	l.mu.Unlock()
	return errors.Join(unix.Close(l.wakefd), unix.Close(l.epfd))
}
