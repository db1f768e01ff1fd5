package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ThomasT75/uinput"
	evdev "github.com/gvalkov/golang-evdev"
)

// ErrInvalidStep is returned for an injection step that cannot be parsed.
var ErrInvalidStep = errors.New("invalid injection step")

// VirtualPointer is the part of a uinput mouse the injector drives.
type VirtualPointer interface {
	Move(x, y int32) error
	LeftPress() error
	LeftRelease() error
	RightPress() error
	RightRelease() error
	MiddlePress() error
	MiddleRelease() error
	Wheel(horizontal bool, delta int32) error
	Close() error
}

// VirtualKeyboard is the part of a uinput keyboard the injector drives.
type VirtualKeyboard interface {
	KeyDown(key int) error
	KeyUp(key int) error
	Close() error
}

// StepKind is one kind of injected action.
type StepKind int

const (
	StepMove StepKind = iota
	StepPress
	StepRelease
	StepClick
	StepScroll
	StepKey
	StepWait
)

// Step is one parsed injection action.
type Step struct {
	Kind StepKind
	// DX, DY for moves; DY alone for vertical scroll, DX for horizontal.
	DX, DY int32
	Button uint32
	Key    int
	Wait   time.Duration
}

var buttonNames = map[string]uint32{
	"left":   evdev.BTN_LEFT,
	"right":  evdev.BTN_RIGHT,
	"middle": evdev.BTN_MIDDLE,
}

var keyNames = map[string]int{
	"esc": evdev.KEY_ESC, "enter": evdev.KEY_ENTER, "space": evdev.KEY_SPACE,
	"tab": evdev.KEY_TAB, "backspace": evdev.KEY_BACKSPACE,
	"leftctrl": evdev.KEY_LEFTCTRL, "rightctrl": evdev.KEY_RIGHTCTRL,
	"leftalt": evdev.KEY_LEFTALT, "rightalt": evdev.KEY_RIGHTALT,
	"leftshift": evdev.KEY_LEFTSHIFT, "rightshift": evdev.KEY_RIGHTSHIFT,
	"leftmeta": evdev.KEY_LEFTMETA,
	"up": evdev.KEY_UP, "down": evdev.KEY_DOWN, "left": evdev.KEY_LEFT, "right": evdev.KEY_RIGHT,
}

func init() {
	letters := []int{
		evdev.KEY_A, evdev.KEY_B, evdev.KEY_C, evdev.KEY_D, evdev.KEY_E, evdev.KEY_F, evdev.KEY_G,
		evdev.KEY_H, evdev.KEY_I, evdev.KEY_J, evdev.KEY_K, evdev.KEY_L, evdev.KEY_M, evdev.KEY_N,
		evdev.KEY_O, evdev.KEY_P, evdev.KEY_Q, evdev.KEY_R, evdev.KEY_S, evdev.KEY_T, evdev.KEY_U,
		evdev.KEY_V, evdev.KEY_W, evdev.KEY_X, evdev.KEY_Y, evdev.KEY_Z,
	}
	for i, code := range letters {
		keyNames[string(rune('a'+i))] = code
	}
	digits := []int{
		evdev.KEY_0, evdev.KEY_1, evdev.KEY_2, evdev.KEY_3, evdev.KEY_4,
		evdev.KEY_5, evdev.KEY_6, evdev.KEY_7, evdev.KEY_8, evdev.KEY_9,
	}
	for i, code := range digits {
		keyNames[strconv.Itoa(i)] = code
	}
	fkeys := []int{
		evdev.KEY_F1, evdev.KEY_F2, evdev.KEY_F3, evdev.KEY_F4, evdev.KEY_F5, evdev.KEY_F6,
		evdev.KEY_F7, evdev.KEY_F8, evdev.KEY_F9, evdev.KEY_F10, evdev.KEY_F11, evdev.KEY_F12,
	}
	for i, code := range fkeys {
		keyNames[fmt.Sprintf("f%d", i+1)] = code
	}
}

// ParseSteps parses a script such as "move:10,-5 click:left key:a wait:50ms".
// Keys are names ("a", "enter", "leftctrl") or raw evdev codes.
func ParseSteps(script []string) ([]Step, error) {
	var steps []Step
	for _, field := range script {
		for _, tok := range strings.Fields(field) {
			step, err := parseStep(tok)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)
		}
	}
	return steps, nil
}

func parseStep(tok string) (Step, error) {
	verb, arg, ok := strings.Cut(tok, ":")
	if !ok || arg == "" {
		return Step{}, fmt.Errorf("%w: %q", ErrInvalidStep, tok)
	}
	arg = strings.ToLower(arg)

	switch verb {
	case "move":
		xs, ys, ok := strings.Cut(arg, ",")
		if !ok {
			return Step{}, fmt.Errorf("%w: move needs dx,dy: %q", ErrInvalidStep, tok)
		}
		dx, errX := strconv.ParseInt(xs, 10, 32)
		dy, errY := strconv.ParseInt(ys, 10, 32)
		if errX != nil || errY != nil {
			return Step{}, fmt.Errorf("%w: %q", ErrInvalidStep, tok)
		}
		return Step{Kind: StepMove, DX: int32(dx), DY: int32(dy)}, nil

	case "press", "release", "click":
		button, ok := buttonNames[arg]
		if !ok {
			return Step{}, fmt.Errorf("%w: unknown button %q", ErrInvalidStep, arg)
		}
		kind := map[string]StepKind{"press": StepPress, "release": StepRelease, "click": StepClick}[verb]
		return Step{Kind: kind, Button: button}, nil

	case "scroll", "hscroll":
		n, err := strconv.ParseInt(arg, 10, 32)
		if err != nil {
			return Step{}, fmt.Errorf("%w: %q", ErrInvalidStep, tok)
		}
		if verb == "hscroll" {
			return Step{Kind: StepScroll, DX: int32(n)}, nil
		}
		return Step{Kind: StepScroll, DY: int32(n)}, nil

	case "key":
		if code, ok := keyNames[arg]; ok {
			return Step{Kind: StepKey, Key: code}, nil
		}
		code, err := strconv.Atoi(arg)
		if err != nil || code <= 0 {
			return Step{}, fmt.Errorf("%w: unknown key %q", ErrInvalidStep, arg)
		}
		return Step{Kind: StepKey, Key: code}, nil

	case "wait":
		d, err := time.ParseDuration(arg)
		if err != nil || d < 0 {
			return Step{}, fmt.Errorf("%w: %q", ErrInvalidStep, tok)
		}
		return Step{Kind: StepWait, Wait: d}, nil
	}
	return Step{}, fmt.Errorf("%w: unknown action %q", ErrInvalidStep, verb)
}

// Injector replays steps through uinput devices.
type Injector struct {
	pointer  VirtualPointer
	keyboard VirtualKeyboard
	sleep    func(time.Duration)
}

// NewInjector creates the virtual devices on the uinput node at path.
func NewInjector(path string) (*Injector, error) {
	mouse, err := uinput.CreateMouse(path, []byte("wayfold virtual pointer"))
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual pointer: %w", err)
	}
	keyboard, err := uinput.CreateKeyboard(path, []byte("wayfold virtual keyboard"))
	if err != nil {
		mouse.Close()
		return nil, fmt.Errorf("failed to create virtual keyboard: %w", err)
	}
	return NewInjectorWithDevices(mouse, keyboard), nil
}

// NewInjectorWithDevices wraps existing devices.
func NewInjectorWithDevices(pointer VirtualPointer, keyboard VirtualKeyboard) *Injector {
	return &Injector{pointer: pointer, keyboard: keyboard, sleep: time.Sleep}
}

// Run replays steps in order and stops at the first failure.
func (in *Injector) Run(steps []Step) error {
	for i, step := range steps {
		if err := in.step(step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (in *Injector) step(s Step) error {
	switch s.Kind {
	case StepMove:
		return in.pointer.Move(s.DX, s.DY)
	case StepPress:
		return in.button(s.Button, true)
	case StepRelease:
		return in.button(s.Button, false)
	case StepClick:
		if err := in.button(s.Button, true); err != nil {
			return err
		}
		return in.button(s.Button, false)
	case StepScroll:
		if s.DX != 0 {
			return in.pointer.Wheel(true, s.DX)
		}
		return in.pointer.Wheel(false, s.DY)
	case StepKey:
		if err := in.keyboard.KeyDown(s.Key); err != nil {
			return err
		}
		return in.keyboard.KeyUp(s.Key)
	case StepWait:
		in.sleep(s.Wait)
		return nil
	}
	return fmt.Errorf("%w: kind %d", ErrInvalidStep, s.Kind)
}

func (in *Injector) button(button uint32, pressed bool) error {
	switch button {
	case evdev.BTN_LEFT:
		if pressed {
			return in.pointer.LeftPress()
		}
		return in.pointer.LeftRelease()
	case evdev.BTN_RIGHT:
		if pressed {
			return in.pointer.RightPress()
		}
		return in.pointer.RightRelease()
	case evdev.BTN_MIDDLE:
		if pressed {
			return in.pointer.MiddlePress()
		}
		return in.pointer.MiddleRelease()
	}
	return fmt.Errorf("%w: button %d", ErrInvalidStep, button)
}

// Close destroys the virtual devices.
func (in *Injector) Close() error {
	return errors.Join(in.pointer.Close(), in.keyboard.Close())
}
