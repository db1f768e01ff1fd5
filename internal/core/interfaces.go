// Package core holds the compositor state that lives on the reactor
// goroutine: surfaces and their double-buffered state, the scene used for
// hit-testing, outputs and the display-wide serial counter.
//
// Nothing in this package is safe for concurrent use. Other goroutines hand
// work to the reactor through a Scheduler.
package core

// ClientID identifies a client connection.
type ClientID uint64

// ClientResource is any per-client protocol object.
type ClientResource interface {
	Client() ClientID
}

// Buffer is a client pixel buffer handle.
type Buffer interface {
	// Release tells the client the compositor no longer reads the buffer.
	Release()
	// AddDestroyListener registers fn to run once when the buffer is
	// destroyed and returns a function that unregisters it.
	AddDestroyListener(fn func()) (remove func())
}

// BufferQuerier reports the pixel size of a buffer.
type BufferQuerier interface {
	QueryBuffer(b Buffer) (width, height int)
}

// FrameCallback is a wl_callback requested through wl_surface.frame.
type FrameCallback interface {
	Done(serial uint32)
	Destroy()
}

// RenderRequester schedules a repaint. Implementations coalesce requests.
type RenderRequester interface {
	RequestRender()
}

// Scheduler runs a job on the reactor goroutine.
type Scheduler interface {
	Submit(job func()) error
}
