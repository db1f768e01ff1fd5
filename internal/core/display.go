package core

// Display owns the serial counter shared by every input device. It is only
// touched on the reactor goroutine.
type Display struct {
	serial uint32
}

func NewDisplay() *Display {
	return &Display{}
}

// NextSerial advances and returns the display serial.
func (d *Display) NextSerial() uint32 {
	d.serial++
	return d.serial
}

// Serial returns the last serial handed out.
func (d *Display) Serial() uint32 {
	return d.serial
}
