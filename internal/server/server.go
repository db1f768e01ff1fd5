// Package server wires the reactor, the compositor core, a platform, an
// input backend and the control socket into a running compositor.
package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/wayfold/internal/config"
	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/geo"
	"github.com/bnema/wayfold/internal/input"
	"github.com/bnema/wayfold/internal/ipc"
	"github.com/bnema/wayfold/internal/logger"
	"github.com/bnema/wayfold/internal/reactor"
	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"
)

// SizedBuffer is a buffer that knows its pixel size.
type SizedBuffer interface {
	core.Buffer
	Size() (width, height int)
}

// bufferSizes sizes buffers that implement SizedBuffer. Other buffers count
// as empty.
type bufferSizes struct{}

func (bufferSizes) QueryBuffer(b core.Buffer) (int, int) {
	if sb, ok := b.(SizedBuffer); ok {
		return sb.Size()
	}
	return 0, 0
}

// Server represents a running compositor
type Server struct {
	cfg  *config.Config
	loop *reactor.EventLoop
	exec *reactor.JobExecutor
	comp *core.Compositor
	seat *input.Seat

	platform  *platform
	capture   *input.EvdevCapture
	emergency *EmergencyRelease
	ipc       *ipc.SocketServer

	cancel context.CancelFunc
	wg     conc.WaitGroup
	log    *log.Logger
}

// New creates the reactor and the compositor core. Nothing runs until Run.
func New(cfg *config.Config) (*Server, error) {
	loop, err := reactor.NewEventLoop()
	if err != nil {
		return nil, fmt.Errorf("failed to create event loop: %w", err)
	}
	exec, err := reactor.NewJobExecutor(loop)
	if err != nil {
		loop.Close()
		return nil, fmt.Errorf("failed to create job executor: %w", err)
	}
	if err := exec.Start(); err != nil {
		loop.Close()
		return nil, err
	}

	comp := core.NewCompositor(core.NewDisplay(), exec, bufferSizes{})
	s := &Server{
		cfg:  cfg,
		loop: loop,
		exec: exec,
		comp: comp,
		seat: input.NewSeat(cfg.Compositor.Seat, comp),
		log:  logger.WithPrefix("server"),
	}
	exec.OnFinish(loop.Stop)
	return s, nil
}

func (s *Server) Compositor() *core.Compositor   { return s.comp }
func (s *Server) Seat() *input.Seat              { return s.seat }
func (s *Server) Executor() *reactor.JobExecutor { return s.exec }

// Run brings up the platform, the input backend and the control socket, then
// runs the reactor on the calling goroutine until ctx is done or the
// platform asks to quit. Teardown happens before Run returns.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()

	p, err := newPlatform(s.cfg, s, cancel)
	if err != nil {
		return s.abort(fmt.Errorf("failed to create %s platform: %w", s.cfg.Compositor.Platform, err))
	}
	s.platform = p
	s.log.Info("Platform ready", "platform", p.name, "outputs", len(s.comp.Outputs()))

	if err := s.startInput(); err != nil {
		return s.abort(err)
	}

	ipcServer, err := ipc.NewSocketServer(s.cfg.IPC.SocketPath, &queryHandler{server: s})
	if err != nil {
		return s.abort(err)
	}
	if err := ipcServer.Start(); err != nil {
		return s.abort(err)
	}
	s.ipc = ipcServer

	p.start()

	s.wg.Go(func() {
		<-ctx.Done()
		s.stopWorkers()
		if err := s.exec.FireFinishedEvent(); err != nil {
			s.log.Warn("Could not finish job executor", "err", err)
			s.loop.Stop()
		}
	})

	runErr := s.loop.Run(context.Background())
	cancel()
	s.wg.Wait()
	s.teardown()
	if runErr != nil {
		return fmt.Errorf("event loop: %w", runErr)
	}
	return nil
}

// Stop asks a running server to shut down.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// startInput starts the evdev backend where the platform has no input of
// its own.
func (s *Server) startInput() error {
	in := s.cfg.Input
	configured := in.PointerDevice != "" || in.KeyboardDevice != "" || in.TouchDevice != ""
	if !s.platform.wantsEvdev && !configured {
		return nil
	}
	if !input.IsEvdevAvailable() {
		if configured {
			return fmt.Errorf("evdev input devices are not accessible")
		}
		s.log.Warn("No evdev devices accessible, running without input")
		return nil
	}

	s.capture = input.NewEvdevCapture(input.EvdevConfig{
		PointerDevice:  in.PointerDevice,
		KeyboardDevice: in.KeyboardDevice,
		TouchDevice:    in.TouchDevice,
		Grab:           in.Grab,
	}, s.exec, s.seat, s.layoutExtents)
	if err := s.capture.Start(); err != nil {
		s.capture = nil
		if configured {
			return fmt.Errorf("failed to start input capture: %w", err)
		}
		s.log.Warn("Input capture unavailable", "err", err)
		return nil
	}

	if in.Grab {
		s.emergency = NewEmergencyRelease(s.capture.ReleaseGrab, s.Stop)
		s.seat.Keyboard().KeySignal().Connect(s.emergency.HandleKey)
		s.emergency.Start()
	}
	return nil
}

// layoutExtents is the rectangle touchscreens map onto. Runs on the reactor.
func (s *Server) layoutExtents() geo.Rectangle {
	return s.comp.OutputRegion().Extents()
}

// abort undoes a partial start before the reactor ran.
func (s *Server) abort(err error) error {
	s.stopWorkers()
	s.teardown()
	return err
}

func (s *Server) stopWorkers() {
	if s.ipc != nil {
		s.ipc.Stop()
	}
	if s.emergency != nil {
		s.emergency.Stop()
	}
	if s.capture != nil {
		s.capture.Stop()
	}
	if s.platform != nil {
		s.platform.stop()
	}
}

func (s *Server) teardown() {
	var errs []error
	if s.platform != nil {
		errs = append(errs, s.platform.close())
	}
	errs = append(errs, s.loop.Close())
	if err := errors.Join(errs...); err != nil {
		s.log.Warn("Teardown incomplete", "err", err)
	}
	s.log.Info("Compositor stopped", "frames", s.comp.Frames())
}
