// Package nested runs the compositor as a client of a host Wayland
// compositor, mirroring the host's outputs.
package nested

import (
	"fmt"
	"sync"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/logger"
	"github.com/charmbracelet/log"
	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/sourcegraph/conc"
)

// maxOutputVersion is the highest wl_output version bound; version 4 adds
// the name event.
const maxOutputVersion = 4

// outputInterface is the registry interface name of wl_output.
const outputInterface = "wl_output"

// Config selects the host display. An empty Display uses $WAYLAND_DISPLAY.
type Config struct {
	Display string
}

// Platform mirrors the host's wl_outputs as compositor outputs.
type Platform struct {
	display  *client.Display
	registry *client.Registry
	comp     *core.Compositor
	sched    core.Scheduler
	log      *log.Logger

	// host side, touched only by the dispatching goroutine
	mirrors map[uint32]*mirror
	hosts   map[uint32]*client.Output

	// compositor side, touched only on the reactor
	outputs map[uint32]*core.Output

	mu      sync.Mutex
	started bool
	wg      conc.WaitGroup
}

// NewPlatform connects to the host compositor, binds its outputs and waits
// until their initial state has arrived. The outputs are added to comp
// before NewPlatform returns.
func NewPlatform(cfg Config, comp *core.Compositor, sched core.Scheduler) (*Platform, error) {
	l := logger.WithPrefix("nested")

	display, err := client.Connect(cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Wayland display: %w", err)
	}
	p := newPlatform(comp, sched, l)
	p.display = display

	registry, err := display.GetRegistry()
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to get registry: %w", err)
	}
	p.registry = registry
	registry.SetGlobalHandler(p.handleGlobal)
	registry.SetGlobalRemoveHandler(p.handleGlobalRemove)

	// The first roundtrip announces the globals, the second delivers the
	// events of the outputs bound during the first.
	for range 2 {
		if err := p.roundtrip(); err != nil {
			p.Close()
			return nil, fmt.Errorf("wayland roundtrip: %w", err)
		}
	}
	if len(p.outputs) == 0 {
		p.Close()
		return nil, fmt.Errorf("host compositor advertises no outputs")
	}
	return p, nil
}

func newPlatform(comp *core.Compositor, sched core.Scheduler, l *log.Logger) *Platform {
	return &Platform{
		comp:    comp,
		sched:   sched,
		log:     l,
		mirrors: make(map[uint32]*mirror),
		hosts:   make(map[uint32]*client.Output),
		outputs: make(map[uint32]*core.Output),
	}
}

func (p *Platform) roundtrip() error {
	cb, err := p.display.Sync()
	if err != nil {
		return err
	}
	defer cb.Destroy()

	done := false
	cb.SetDoneHandler(func(client.CallbackDoneEvent) { done = true })
	for !done {
		if err := p.display.Context().Dispatch(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Platform) handleGlobal(e client.RegistryGlobalEvent) {
	if e.Interface != outputInterface {
		return
	}
	output := client.NewOutput(p.display.Context())
	if err := p.registry.Bind(e.Name, e.Interface, min(e.Version, maxOutputVersion), output); err != nil {
		p.log.Warn("Failed to bind host output", "global", e.Name, "err", err)
		return
	}
	m := newMirror(e.Name)
	p.mirrors[e.Name] = m
	p.hosts[e.Name] = output

	output.SetGeometryHandler(m.geometry)
	output.SetModeHandler(m.mode)
	output.SetScaleHandler(m.scale)
	output.SetNameHandler(m.name)
	output.SetDoneHandler(func(client.OutputDoneEvent) { p.publish(m.done()) })
	p.log.Debug("Bound host output", "global", e.Name, "version", e.Version)
}

func (p *Platform) handleGlobalRemove(e client.RegistryGlobalRemoveEvent) {
	output, ok := p.hosts[e.Name]
	if !ok {
		return
	}
	delete(p.hosts, e.Name)
	delete(p.mirrors, e.Name)
	if err := output.Release(); err != nil {
		p.log.Debug("Release host output", "global", e.Name, "err", err)
	}
	p.run(func() { p.remove(e.Name) })
}

func (p *Platform) publish(s Snapshot) {
	p.run(func() { p.apply(s) })
}

// run executes job directly while the platform is being set up and on the
// reactor once the dispatch goroutine owns the connection.
func (p *Platform) run(job func()) {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		job()
		return
	}
	if err := p.sched.Submit(job); err != nil {
		p.log.Debug("Host update dropped", "err", err)
	}
}

// apply creates or updates the compositor output mirroring s.
func (p *Platform) apply(s Snapshot) {
	out, ok := p.outputs[s.Global]
	if !ok {
		out = core.NewOutput(s.Name, s.Geometry, s.Mode, nil)
		out.SetScale(s.Scale)
		p.outputs[s.Global] = out
		p.comp.AddOutput(out)
		p.log.Info("Mirroring host output", "name", s.Name, "mode", s.Mode.String(), "scale", s.Scale)
		return
	}
	out.SetGeometry(s.Geometry)
	out.SetMode(s.Mode)
	out.SetScale(s.Scale)
	p.comp.RequestRender()
}

func (p *Platform) remove(global uint32) {
	out, ok := p.outputs[global]
	if !ok {
		return
	}
	delete(p.outputs, global)
	p.comp.RemoveOutput(out)
}

// Outputs returns the mirrored outputs keyed by host global name.
func (p *Platform) Outputs() map[uint32]*core.Output {
	out := make(map[uint32]*core.Output, len(p.outputs))
	for k, v := range p.outputs {
		out[k] = v
	}
	return out
}

// Start keeps dispatching host events on a worker goroutine. Updates are
// applied on the reactor.
func (p *Platform) Start() {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	p.wg.Go(func() {
		for {
			if err := p.display.Context().Dispatch(); err != nil {
				p.log.Debug("Host dispatch stopped", "err", err)
				return
			}
		}
	})
}

// Close disconnects from the host and waits for the dispatcher.
func (p *Platform) Close() {
	if p.display != nil {
		if err := p.display.Context().Close(); err != nil {
			p.log.Debug("Close host connection", "err", err)
		}
	}
	p.wg.Wait()
}
