package reactor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/wayfold/internal/logger"
	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

var (
	ErrAlreadyStarted = errors.New("job executor already started")
	ErrFinished       = errors.New("job executor finished")
	// ErrQueueFull is returned when the pipe holds as many wake bytes as it
	// can buffer. The job is not queued.
	ErrQueueFull = errors.New("job queue full")
)

const (
	eventFinished byte = 0
	eventNewJob   byte = 1
)

// JobExecutor moves work from any goroutine onto the reactor. Each submitted
// job writes one byte to a pipe whose read end the reactor watches; each
// readable byte runs the oldest queued job. A zero byte shuts it down.
type JobExecutor struct {
	loop  *EventLoop
	pipeR int
	pipeW int
	log   *log.Logger

	// pipeMu guards the pipe descriptors against close while a writer uses them.
	pipeMu   sync.RWMutex
	finished bool

	queueMu  sync.Mutex
	jobs     []func()
	started  bool
	source   *Source
	onFinish func()
}

func NewJobExecutor(loop *EventLoop) (*JobExecutor, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("pipe2: %w", err)
	}
	// Writers never block, so a full pipe cannot stall the reactor.
	if err := unix.SetNonblock(fds[1], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, fmt.Errorf("set job pipe nonblocking: %w", err)
	}
	return &JobExecutor{
		loop:  loop,
		pipeR: fds[0],
		pipeW: fds[1],
		log:   logger.WithPrefix("jobs"),
	}, nil
}

// Start registers the pipe with the event loop. It may be called once.
func (e *JobExecutor) Start() error {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	if e.started {
		return ErrAlreadyStarted
	}
	src, err := e.loop.AddFD(e.pipeR, Readable, e.Handle)
	if err != nil {
		return fmt.Errorf("register job pipe: %w", err)
	}
	e.source = src
	e.started = true
	return nil
}

// OnFinish registers fn to run on the reactor after the executor shut down.
func (e *JobExecutor) OnFinish(fn func()) {
	e.queueMu.Lock()
	e.onFinish = fn
	e.queueMu.Unlock()
}

// Submit queues job to run on the reactor. Jobs run in submission order.
func (e *JobExecutor) Submit(job func()) error {
	e.pipeMu.RLock()
	defer e.pipeMu.RUnlock()

	if e.finished {
		return ErrFinished
	}
	// The queue and the pipe stay one byte per job.
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	if err := e.signal(eventNewJob); err != nil {
		return err
	}
	e.jobs = append(e.jobs, job)
	return nil
}

// FireFinishedEvent asks the reactor to shut the executor down once every
// job submitted before it has run.
func (e *JobExecutor) FireFinishedEvent() error {
	e.pipeMu.RLock()
	defer e.pipeMu.RUnlock()

	if e.finished {
		return ErrFinished
	}
	return e.signal(eventFinished)
}

func (e *JobExecutor) signal(b byte) error {
	buf := [1]byte{b}
	for {
		_, err := unix.Write(e.pipeW, buf[:])
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EAGAIN) {
			return ErrQueueFull
		}
		if err != nil {
			return fmt.Errorf("job pipe write: %w", err)
		}
		return nil
	}
}

// Finished reports whether the executor has shut down.
func (e *JobExecutor) Finished() bool {
	e.pipeMu.RLock()
	defer e.pipeMu.RUnlock()
	return e.finished
}

// Pending returns the number of queued jobs.
func (e *JobExecutor) Pending() int {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	return len(e.jobs)
}

// Handle consumes exactly one byte from the pipe. It is the event loop
// handler of the read end and runs on the reactor.
func (e *JobExecutor) Handle(fd int, _ Events) {
	var buf [1]byte
	n, err := unix.Read(fd, buf[:])
	for errors.Is(err, unix.EINTR) {
		n, err = unix.Read(fd, buf[:])
	}
	if err != nil || n != 1 {
		e.log.Error("job pipe read failed", "n", n, "err", err)
		return
	}

	switch buf[0] {
	case eventNewJob:
		e.queueMu.Lock()
		if len(e.jobs) == 0 {
			e.queueMu.Unlock()
			return
		}
		job := e.jobs[0]
		e.jobs[0] = nil
		e.jobs = e.jobs[1:]
		e.queueMu.Unlock()
		job()
	case eventFinished:
		e.finish()
	}
}

func (e *JobExecutor) finish() {
	e.queueMu.Lock()
	src := e.source
	dropped := len(e.jobs)
	e.jobs = nil
	onFinish := e.onFinish
	e.queueMu.Unlock()

	if src != nil {
		if err := src.Remove(); err != nil {
			e.log.Warn("remove job pipe", "err", err)
		}
	}

	e.pipeMu.Lock()
	e.finished = true
	unix.Close(e.pipeR)
	unix.Close(e.pipeW)
	e.pipeMu.Unlock()

	e.log.Info("Job executor finished", "dropped", dropped)
	if onFinish != nil {
		onFinish()
	}
}
