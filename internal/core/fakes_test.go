package core

import (
	"time"

	"github.com/bnema/wayfold/internal/geo"
)

type fakeBuffer struct {
	name      string
	width     int
	height    int
	released  int
	listeners map[int]func()
	nextID    int
}

func newFakeBuffer(name string, w, h int) *fakeBuffer {
	return &fakeBuffer{name: name, width: w, height: h, listeners: map[int]func(){}}
}

func (b *fakeBuffer) Release() { b.released++ }

func (b *fakeBuffer) AddDestroyListener(fn func()) func() {
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn
	return func() { delete(b.listeners, id) }
}

func (b *fakeBuffer) destroy() {
	for id, fn := range b.listeners {
		delete(b.listeners, id)
		fn()
	}
}

type fakeQuerier struct{}

func (fakeQuerier) QueryBuffer(b Buffer) (int, int) {
	fb := b.(*fakeBuffer)
	return fb.width, fb.height
}

type countingRender struct{ requests int }

func (r *countingRender) RequestRender() { r.requests++ }

type fakeCallback struct {
	log    *[]string
	name   string
	serial uint32
	onDone func()
}

func (c *fakeCallback) Done(serial uint32) {
	c.serial = serial
	*c.log = append(*c.log, c.name+".done")
	if c.onDone != nil {
		c.onDone()
	}
}

func (c *fakeCallback) Destroy() {
	*c.log = append(*c.log, c.name+".destroy")
}

type fakeRole struct {
	name      string
	commits   int
	destroyed int
}

func (r *fakeRole) Name() string          { return r.name }
func (r *fakeRole) BeforeCommit(*Surface) { r.commits++ }
func (r *fakeRole) AfterDestroy(*Surface) { r.destroyed++ }

// queueScheduler collects jobs until run is called, like a reactor that has
// not woken up yet.
type queueScheduler struct {
	jobs []func()
}

func (q *queueScheduler) Submit(job func()) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *queueScheduler) run() {
	for len(q.jobs) > 0 {
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		job()
	}
}

func newTestSurfaces() (*Surfaces, *countingRender) {
	r := &countingRender{}
	return NewSurfaces(r, fakeQuerier{}), r
}

// mappedSurface commits a w x h buffer and moves the surface to pos.
func mappedSurface(a *Surfaces, client ClientID, pos geo.Point, w, h int) *Surface {
	s := a.Create(client)
	s.AttachBuffer(newFakeBuffer("buf", w, h), 0, 0)
	s.Commit()
	s.SetPosition(pos)
	return s
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
