package protocol

// CallbackSender delivers wl_callback events to the client.
type CallbackSender interface {
	SendDone(data uint32)
	Destroy()
}

// WlCallback is a frame callback. It satisfies core.FrameCallback.
type WlCallback struct {
	sender CallbackSender
	done   bool
}

func NewWlCallback(sender CallbackSender) *WlCallback {
	return &WlCallback{sender: sender}
}

// Done sends the done event once. Repeated calls are dropped.
func (c *WlCallback) Done(serial uint32) {
	if c.done {
		return
	}
	c.done = true
	c.sender.SendDone(serial)
}

func (c *WlCallback) Destroy() {
	c.sender.Destroy()
}
