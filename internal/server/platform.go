package server

import (
	"fmt"

	"github.com/bnema/wayfold/internal/config"
	"github.com/bnema/wayfold/internal/drm"
	"github.com/bnema/wayfold/internal/headless"
	"github.com/bnema/wayfold/internal/nested"
	"github.com/bnema/wayfold/internal/x11"
	"github.com/spf13/afero"
)

// platform is the server's view of whichever backend provides the outputs.
type platform struct {
	name string
	// wantsEvdev is set for platforms without input of their own.
	wantsEvdev bool

	start func()
	// stop ends worker goroutines; it runs before the executor finishes.
	stop func()
	// close releases the backend after the reactor stopped.
	close func() error
}

func noop()          {}
func noopErr() error { return nil }

// newPlatform creates the configured platform. Its outputs are added to the
// compositor before it returns. quit stops the server.
func newPlatform(cfg *config.Config, s *Server, quit func()) (*platform, error) {
	switch cfg.Compositor.Platform {
	case config.PlatformDRM:
		p, err := drm.NewPlatform(drm.Config{
			Seat:      cfg.Compositor.Seat,
			Device:    cfg.DRM.Device,
			SysfsRoot: cfg.DRM.SysfsRoot,
			UdevData:  cfg.DRM.UdevData,
		}, afero.NewOsFs(), drm.DirectOpener, s.comp, s.loop)
		if err != nil {
			return nil, err
		}
		return &platform{name: config.PlatformDRM, wantsEvdev: true, start: noop, stop: noop, close: p.Close}, nil

	case config.PlatformX11:
		p, err := x11.NewPlatform(x11.Config{
			Display: cfg.X11.Display,
			Outputs: x11Outputs(cfg.X11.Outputs),
		}, s.comp, s.exec, s.seat, quit)
		if err != nil {
			return nil, err
		}
		// The pump exits once Close drops the connection. Windows are
		// destroyed after the reactor stopped so no queued event races them.
		return &platform{name: config.PlatformX11, start: p.Start, stop: noop, close: func() error {
			p.Close()
			return nil
		}}, nil

	case config.PlatformWayland:
		p, err := nested.NewPlatform(nested.Config{Display: cfg.Wayland.Display}, s.comp, s.exec)
		if err != nil {
			return nil, err
		}
		return &platform{name: config.PlatformWayland, start: p.Start, stop: p.Close, close: noopErr}, nil

	case config.PlatformHeadless:
		if _, err := headless.NewPlatform(headlessOutputs(cfg.Headless.Outputs), s.comp); err != nil {
			return nil, err
		}
		return &platform{name: config.PlatformHeadless, start: noop, stop: noop, close: noopErr}, nil
	}
	return nil, fmt.Errorf("unknown platform %q", cfg.Compositor.Platform)
}

func x11Outputs(in []config.OutputConfig) []x11.OutputConfig {
	out := make([]x11.OutputConfig, 0, len(in))
	for _, o := range in {
		out = append(out, x11.OutputConfig{Name: o.Name, Width: o.Width, Height: o.Height})
	}
	return out
}

func headlessOutputs(in []config.OutputConfig) []headless.OutputConfig {
	out := make([]headless.OutputConfig, 0, len(in))
	for _, o := range in {
		out = append(out, headless.OutputConfig{Name: o.Name, Width: o.Width, Height: o.Height, Refresh: o.Refresh, Scale: o.Scale})
	}
	return out
}
