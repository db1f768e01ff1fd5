package server

import (
	"context"
	"time"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/ipc"
	"github.com/bnema/wayfold/internal/reactor"
)

// queryTimeout bounds how long a control request waits for the reactor.
const queryTimeout = 2 * time.Second

// queryHandler answers control socket requests by reading compositor state
// on the reactor.
type queryHandler struct {
	server *Server
}

// query runs fn on the reactor. The result is only read after fn returned.
func query[T any](s *Server, fn func() T) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	return reactor.Call(ctx, s.exec, func() (T, error) {
		return fn(), nil
	})
}

func (h *queryHandler) HandleStatus() (ipc.StatusInfo, error) {
	s := h.server
	info, err := query(s, func() ipc.StatusInfo {
		return ipc.StatusInfo{
			Platform:      s.cfg.Compositor.Platform,
			Seat:          s.seat.Name(),
			Capabilities:  s.seat.Capabilities().String(),
			Outputs:       len(s.comp.Outputs()),
			Surfaces:      s.comp.Surfaces().Len(),
			Views:         len(s.comp.Scene().Views()),
			Frames:        s.comp.Frames(),
			Serial:        s.comp.Display().Serial(),
			PointerFocus:  viewName(s.seat.Pointer().Focus()),
			KeyboardFocus: viewName(s.seat.Keyboard().Focus()),
		}
	})
	if err != nil {
		return ipc.StatusInfo{}, err
	}
	info.PendingJobs = s.exec.Pending()
	return info, nil
}

func (h *queryHandler) HandleOutputs() ([]ipc.OutputInfo, error) {
	return query(h.server, func() []ipc.OutputInfo {
		var out []ipc.OutputInfo
		for _, o := range h.server.comp.Outputs() {
			g, m, b := o.Geometry(), o.Mode(), o.Bounds()
			out = append(out, ipc.OutputInfo{
				Name:    o.Name(),
				Make:    g.Make,
				Model:   g.Model,
				X:       b.X,
				Y:       b.Y,
				Width:   m.Width,
				Height:  m.Height,
				Refresh: m.Refresh,
				Scale:   o.Scale(),
				Enabled: o.Enabled(),
			})
		}
		return out
	})
}

func (h *queryHandler) HandleScene() ([]ipc.ViewInfo, error) {
	return query(h.server, func() []ipc.ViewInfo {
		var out []ipc.ViewInfo
		for _, v := range h.server.comp.Scene().Views() {
			client, ok := v.Client()
			if !ok {
				continue
			}
			b := v.Bounds()
			out = append(out, ipc.ViewInfo{
				Surface: v.Handle().String(),
				Client:  uint64(client),
				X:       b.X,
				Y:       b.Y,
				Width:   b.Width,
				Height:  b.Height,
			})
		}
		return out
	})
}

func viewName(v *core.SurfaceView) string {
	if v == nil || !v.Alive() {
		return ""
	}
	return v.Handle().String()
}
