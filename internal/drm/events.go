package drm

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/bnema/wayfold/internal/reactor"
	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

// drm_event types.
const (
	EventVBlank       uint32 = 0x01
	EventFlipComplete uint32 = 0x02
	EventCRTCSequence uint32 = 0x03
)

const (
	eventHeaderSize = 8
	vblankEventSize = 32
)

// VBlankEvent is a decoded struct drm_event_vblank, used for both vblank
// and page flip completion.
type VBlankEvent struct {
	Type     uint32
	UserData uint64
	Time     time.Duration // since CLOCK_MONOTONIC zero
	Sequence uint32
	CRTCID   uint32
}

// DecodeEvents splits a read from the card descriptor into events. Unknown
// event types are skipped by their length; a truncated tail is dropped.
func DecodeEvents(buf []byte) []VBlankEvent {
	var out []VBlankEvent
	for len(buf) >= eventHeaderSize {
		typ := binary.NativeEndian.Uint32(buf[0:4])
		length := int(binary.NativeEndian.Uint32(buf[4:8]))
		if length < eventHeaderSize || length > len(buf) {
			break
		}
		if (typ == EventVBlank || typ == EventFlipComplete) && length >= vblankEventSize {
			sec := binary.NativeEndian.Uint32(buf[16:20])
			usec := binary.NativeEndian.Uint32(buf[20:24])
			out = append(out, VBlankEvent{
				Type:     typ,
				UserData: binary.NativeEndian.Uint64(buf[8:16]),
				Time:     time.Duration(sec)*time.Second + time.Duration(usec)*time.Microsecond,
				Sequence: binary.NativeEndian.Uint32(buf[24:28]),
				CRTCID:   binary.NativeEndian.Uint32(buf[28:32]),
			})
		}
		buf = buf[length:]
	}
	return out
}

// EventBus reads the card descriptor on the reactor and hands page flip and
// vblank events to the handler registered for their CRTC.
type EventBus struct {
	log    *log.Logger
	flips  map[uint32]func(VBlankEvent)
	vblank map[uint32]func(VBlankEvent)
}

func NewEventBus(logger *log.Logger) *EventBus {
	return &EventBus{
		log:    logger,
		flips:  make(map[uint32]func(VBlankEvent)),
		vblank: make(map[uint32]func(VBlankEvent)),
	}
}

// OnPageFlip registers fn for flip completions of crtc.
func (b *EventBus) OnPageFlip(crtc uint32, fn func(VBlankEvent)) { b.flips[crtc] = fn }

// OnVBlank registers fn for vblank events of crtc.
func (b *EventBus) OnVBlank(crtc uint32, fn func(VBlankEvent)) { b.vblank[crtc] = fn }

// Dispatch delivers decoded events.
func (b *EventBus) Dispatch(events []VBlankEvent) {
	for _, ev := range events {
		handlers := b.vblank
		if ev.Type == EventFlipComplete {
			handlers = b.flips
		}
		if fn, ok := handlers[ev.CRTCID]; ok {
			fn(ev)
			continue
		}
		b.log.Debug("unclaimed drm event", "type", ev.Type, "crtc", ev.CRTCID)
	}
}

// Handle is the event loop handler of the card descriptor.
func (b *EventBus) Handle(fd int, _ reactor.Events) {
	buf := make([]byte, 1024)
	n, err := unix.Read(fd, buf)
	if err != nil {
		if !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR) {
			b.log.Error("drm event read failed", "err", err)
		}
		return
	}
	b.Dispatch(DecodeEvents(buf[:n]))
}
