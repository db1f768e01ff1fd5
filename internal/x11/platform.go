// Package x11 runs the compositor nested inside an X server. Every output is
// an X window; input delivered to those windows feeds the seat.
package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/input"
	"github.com/bnema/wayfold/internal/logger"
	"github.com/bnema/wayfold/internal/reactor"
	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"
)

const (
	outputMake    = "wayfold"
	outputModel   = "X11"
	outputRefresh = 60000
	windowClass   = "wayfold"
)

const windowEvents = xproto.EventMaskKeyPress | xproto.EventMaskKeyRelease |
	xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease |
	xproto.EventMaskEnterWindow | xproto.EventMaskLeaveWindow |
	xproto.EventMaskPointerMotion | xproto.EventMaskKeymapState |
	xproto.EventMaskFocusChange

// OutputConfig is one window to open.
type OutputConfig struct {
	Name   string
	Width  int
	Height int
}

// Config selects the X display and the windows opened on it. An empty
// Display uses $DISPLAY.
type Config struct {
	Display string
	Outputs []OutputConfig
}

// DefaultOutputs is used when the configuration lists none.
var DefaultOutputs = []OutputConfig{{Name: "X1", Width: 1024, Height: 640}}

// Output is the render side of one X window.
type Output struct {
	core.RenderHooks
	window xproto.Window
	output *core.Output
}

func (o *Output) Window() xproto.Window { return o.window }
func (o *Output) Output() *core.Output  { return o.output }

// Platform owns the X connection and the output windows.
type Platform struct {
	xu           *xgbutil.XUtil
	comp         *core.Compositor
	sched        core.Scheduler
	seat         *input.Seat
	deleteWindow xproto.Atom
	outputs      map[xproto.Window]*Output
	order        []*Output
	onQuit       func()
	log          *log.Logger
	wg           conc.WaitGroup

	destroyWindow func(xproto.Window)
	disconnect    func()
	closed        bool
}

// NewPlatform connects to the X server and opens one window per configured
// output, laid out left to right. onQuit runs on the reactor once the last
// window has been closed.
func NewPlatform(cfg Config, comp *core.Compositor, sched core.Scheduler, seat *input.Seat, onQuit func()) (*Platform, error) {
	l := logger.WithPrefix("x11")

	xu, err := xgbutil.NewConnDisplay(cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	deleteWindow, err := xprop.Atm(xu, "WM_DELETE_WINDOW")
	if err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("intern WM_DELETE_WINDOW: %w", err)
	}

	p := &Platform{
		xu:           xu,
		comp:         comp,
		sched:        sched,
		seat:         seat,
		deleteWindow: deleteWindow,
		outputs:      make(map[xproto.Window]*Output),
		onQuit:       onQuit,
		log:          l,
	}
	p.destroyWindow = func(win xproto.Window) { xproto.DestroyWindow(xu.Conn(), win) }
	p.disconnect = func() { xu.Conn().Close() }

	outputs := cfg.Outputs
	if len(outputs) == 0 {
		outputs = DefaultOutputs
	}
	x := 0
	for _, oc := range outputs {
		out, err := p.createOutput(oc, x)
		if err != nil {
			p.Close()
			return nil, err
		}
		x += oc.Width
		p.outputs[out.window] = out
		p.order = append(p.order, out)
		comp.AddOutput(out.output)
		l.Info("Output window created", "name", oc.Name, "window", out.window, "size", fmt.Sprintf("%dx%d", oc.Width, oc.Height))
	}
	seat.AddCapabilities(input.CapabilityPointer | input.CapabilityKeyboard)
	return p, nil
}

func (p *Platform) createOutput(oc OutputConfig, x int) (*Output, error) {
	if oc.Width <= 0 || oc.Height <= 0 {
		return nil, fmt.Errorf("output %q: invalid size %dx%d", oc.Name, oc.Width, oc.Height)
	}
	conn := p.xu.Conn()
	screen := p.xu.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, fmt.Errorf("allocate window id: %w", err)
	}
	err = xproto.CreateWindowChecked(conn, screen.RootDepth, wid, p.xu.RootWin(),
		int16(x), 0, uint16(oc.Width), uint16(oc.Height), 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwEventMask, []uint32{windowEvents}).Check()
	if err != nil {
		return nil, fmt.Errorf("create window for %s: %w", oc.Name, err)
	}

	if err := icccm.WmProtocolsSet(p.xu, wid, []string{"WM_DELETE_WINDOW"}); err != nil {
		p.log.Warn("Failed to set WM_PROTOCOLS", "window", wid, "err", err)
	}
	if err := ewmh.WmNameSet(p.xu, wid, oc.Name); err != nil {
		p.log.Warn("Failed to set _NET_WM_NAME", "window", wid, "err", err)
	}
	if err := icccm.WmClassSet(p.xu, wid, &icccm.WmClass{Instance: oc.Name, Class: windowClass}); err != nil {
		p.log.Warn("Failed to set WM_CLASS", "window", wid, "err", err)
	}
	if err := xproto.MapWindowChecked(conn, wid).Check(); err != nil {
		xproto.DestroyWindow(conn, wid)
		return nil, fmt.Errorf("map window for %s: %w", oc.Name, err)
	}

	geometry := core.OutputGeometry{
		X:              p.comp.NextOutputX(),
		PhysicalWidth:  PhysicalSize(oc.Width, int(screen.WidthInPixels), int(screen.WidthInMillimeters)),
		PhysicalHeight: PhysicalSize(oc.Height, int(screen.HeightInPixels), int(screen.HeightInMillimeters)),
		Make:           outputMake,
		Model:          outputModel,
	}
	out := &Output{window: wid}
	out.output = core.NewOutput(oc.Name, geometry, core.Mode{Width: oc.Width, Height: oc.Height, Refresh: outputRefresh}, out)
	return out, nil
}

// PhysicalSize scales a window extent to millimetres using the screen's
// physical size.
func PhysicalSize(px, screenPx, screenMM int) int {
	if screenPx <= 0 {
		return 0
	}
	return px * screenMM / screenPx
}

// Outputs returns the open windows in creation order.
func (p *Platform) Outputs() []*Output {
	out := make([]*Output, 0, len(p.order))
	for _, o := range p.order {
		if _, ok := p.outputs[o.window]; ok {
			out = append(out, o)
		}
	}
	return out
}

// Start runs the event pump. Events are handled on the reactor.
func (p *Platform) Start() {
	p.wg.Go(p.pump)
}

func (p *Platform) pump() {
	conn := p.xu.Conn()
	for {
		ev, xerr := conn.WaitForEvent()
		if ev == nil && xerr == nil {
			p.log.Debug("X connection closed")
			return
		}
		if xerr != nil {
			p.log.Warn("X error", "err", xerr)
			continue
		}
		err := p.sched.Submit(func() { p.handle(ev) })
		if errors.Is(err, reactor.ErrQueueFull) {
			p.log.Warn("Reactor busy, X event dropped")
			continue
		}
		if err != nil {
			p.log.Debug("Event pump stopping", "err", err)
			return
		}
	}
}

func (p *Platform) handle(ev xgb.Event) {
	if p.closed {
		return
	}
	if win, ok := IsDeleteRequest(ev, p.deleteWindow); ok {
		p.closeWindow(win)
		return
	}
	win, ok := EventWindow(ev)
	if !ok {
		return
	}
	out, ok := p.outputs[win]
	if !ok {
		return
	}
	if events := Translate(ev, out.output.Bounds().Position()); len(events) > 0 {
		p.seat.Dispatch(events...)
	}
}

func (p *Platform) closeWindow(win xproto.Window) {
	out, ok := p.outputs[win]
	if !ok {
		return
	}
	delete(p.outputs, win)
	p.destroyWindow(win)
	p.comp.RemoveOutput(out.output)
	p.log.Info("Output window closed", "name", out.output.Name())
	if len(p.outputs) == 0 && p.onQuit != nil {
		p.onQuit()
	}
}

// Close destroys the remaining windows, disconnects and waits for the pump.
// It touches compositor state, so it must run on the reactor goroutine or
// after the reactor has stopped.
func (p *Platform) Close() {
	if p.closed {
		return
	}
	p.closed = true
	for _, out := range p.order {
		if _, ok := p.outputs[out.window]; !ok {
			continue
		}
		delete(p.outputs, out.window)
		p.destroyWindow(out.window)
		p.comp.RemoveOutput(out.output)
	}
	p.disconnect()
	p.wg.Wait()
}
