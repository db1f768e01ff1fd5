package input

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// AbsInfo mirrors struct input_absinfo.
type AbsInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// Scale maps v from [Minimum, Maximum] onto [origin, origin+length).
func (a AbsInfo) Scale(v, origin, length int) int {
	span := int(a.Maximum) - int(a.Minimum)
	if span <= 0 || length <= 0 {
		return origin + v
	}
	off := v - int(a.Minimum)
	if off < 0 {
		off = 0
	}
	if off > span {
		off = span
	}
	return origin + off*(length-1)/span
}

// QueryAbsInfo reads the range of an absolute axis.
func QueryAbsInfo(file *os.File, axis uint16) (AbsInfo, error) {
	var info AbsInfo
	// EVIOCGABS(abs) = _IOR('E', 0x40 + abs, struct input_absinfo)
	cmd := uintptr(0x80000000) | uintptr(unsafe.Sizeof(info))<<16 | uintptr('E')<<8 | uintptr(0x40+uint(axis))

	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		file.Fd(),
		cmd,
		uintptr(unsafe.Pointer(&info)), //nolint:gosec // required for ioctl syscall
	)
	if errno != 0 {
		return AbsInfo{}, fmt.Errorf("EVIOCGABS(0x%x): %w", axis, errno)
	}
	return info, nil
}
