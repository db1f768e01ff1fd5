package input

import (
	"fmt"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/geo"
)

type testBuffer struct{ w, h int }

func (b *testBuffer) Release()                          {}
func (b *testBuffer) AddDestroyListener(func()) func() { return func() {} }

type testQuerier struct{}

func (testQuerier) QueryBuffer(b core.Buffer) (int, int) {
	tb := b.(*testBuffer)
	return tb.w, tb.h
}

type inlineScheduler struct{}

func (inlineScheduler) Submit(job func()) error {
	job()
	return nil
}

// testWorld is a compositor without outputs plus a shared event log.
type testWorld struct {
	comp *core.Compositor
	log  []string
}

func newTestWorld() *testWorld {
	return &testWorld{comp: core.NewCompositor(core.NewDisplay(), inlineScheduler{}, testQuerier{})}
}

// mapView creates a w x h surface for client at pos and pushes a view of it
// to the front of the scene.
func (w *testWorld) mapView(client core.ClientID, pos geo.Point, width, height int) (*core.Surface, *core.SurfaceView) {
	s := w.comp.Surfaces().Create(client)
	s.AttachBuffer(&testBuffer{w: width, h: height}, 0, 0)
	s.Commit()
	s.SetPosition(pos)
	return s, w.comp.Scene().CreateView(s.Handle())
}

func (w *testWorld) record(format string, args ...any) {
	w.log = append(w.log, fmt.Sprintf(format, args...))
}

type testPointer struct {
	w      *testWorld
	name   string
	client core.ClientID
}

func (p *testPointer) Client() core.ClientID { return p.client }

func (p *testPointer) Enter(serial uint32, s *core.Surface, x, y float64) {
	p.w.record("%s.enter %v %v,%v", p.name, s.Handle(), x, y)
}

func (p *testPointer) Leave(serial uint32, s *core.Surface) {
	p.w.record("%s.leave %v", p.name, s.Handle())
}

func (p *testPointer) Motion(time uint32, x, y float64) {
	p.w.record("%s.motion %v,%v", p.name, x, y)
}

func (p *testPointer) Button(serial, time, button uint32, state ButtonState) {
	p.w.record("%s.button %d %d", p.name, button, state)
}

func (p *testPointer) Axis(time uint32, axis Axis, value float64) {
	p.w.record("%s.axis %d %v", p.name, axis, value)
}

func (p *testPointer) Frame() { p.w.record("%s.frame", p.name) }

type testKeyboard struct {
	w      *testWorld
	name   string
	client core.ClientID
}

func (k *testKeyboard) Client() core.ClientID { return k.client }

func (k *testKeyboard) Enter(serial uint32, s *core.Surface, keys []uint32) {
	k.w.record("%s.enter %v %v", k.name, s.Handle(), keys)
}

func (k *testKeyboard) Leave(serial uint32, s *core.Surface) {
	k.w.record("%s.leave %v", k.name, s.Handle())
}

func (k *testKeyboard) Key(serial, time, key uint32, state KeyState) {
	k.w.record("%s.key %d %d", k.name, key, state)
}

type testTouch struct {
	w       *testWorld
	name    string
	client  core.ClientID
	serials []uint32
}

func (t *testTouch) Client() core.ClientID { return t.client }

func (t *testTouch) Down(serial, time uint32, s *core.Surface, id int32, x, y float64) {
	t.serials = append(t.serials, serial)
	t.w.record("%s.down %d %v,%v", t.name, id, x, y)
}

func (t *testTouch) Up(serial, time uint32, id int32) {
	t.serials = append(t.serials, serial)
	t.w.record("%s.up %d", t.name, id)
}

func (t *testTouch) Motion(time uint32, id int32, x, y float64) {
	t.w.record("%s.motion %d %v,%v", t.name, id, x, y)
}

func (t *testTouch) Frame()  { t.w.record("%s.frame", t.name) }
func (t *testTouch) Cancel() { t.w.record("%s.cancel", t.name) }
