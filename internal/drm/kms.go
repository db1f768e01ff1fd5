package drm

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl numbers, _IOWR('d', nr, size).
const (
	ioctlModeGetResources = 0xC0406400 | 0xA0 // struct drm_mode_card_res, 64 bytes
	ioctlModeGetEncoder   = 0xC0146400 | 0xA6 // struct drm_mode_get_encoder, 20 bytes
	ioctlModeGetConnector = 0xC0506400 | 0xA7 // struct drm_mode_get_connector, 80 bytes
)

type modeCardRes struct {
	fbIDPtr         uint64
	crtcIDPtr       uint64
	connectorIDPtr  uint64
	encoderIDPtr    uint64
	countFBs        uint32
	countCRTCs      uint32
	countConnectors uint32
	countEncoders   uint32
	minWidth        uint32
	maxWidth        uint32
	minHeight       uint32
	maxHeight       uint32
}

type modeGetEncoder struct {
	encoderID      uint32
	encoderType    uint32
	crtcID         uint32
	possibleCRTCs  uint32
	possibleClones uint32
}

type modeGetConnector struct {
	encodersPtr     uint64
	modesPtr        uint64
	propsPtr        uint64
	propValuesPtr   uint64
	countModes      uint32
	countProps      uint32
	countEncoders   uint32
	encoderID       uint32
	connectorID     uint32
	connectorType   uint32
	connectorTypeID uint32
	connection      uint32
	mmWidth         uint32
	mmHeight        uint32
	subpixel        uint32
	pad             uint32
}

type modeModeInfo struct {
	clock                                         uint32
	hdisplay, hsyncStart, hsyncEnd, htotal, hskew uint16
	vdisplay, vsyncStart, vsyncEnd, vtotal, vscan uint16
	vrefresh                                      uint32
	flags                                         uint32
	typ                                           uint32
	name                                          [32]byte
}

// KMSCard talks to a card node with raw mode setting ioctls.
type KMSCard struct {
	fd int
}

// OpenCard opens a card node read-write.
func OpenCard(devnode string) (*KMSCard, error) {
	fd, err := unix.Open(devnode, unix.O_RDWR|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", devnode, err)
	}
	return &KMSCard{fd: fd}, nil
}

// NewKMSCard wraps an already open descriptor, e.g. one passed by a launcher.
func NewKMSCard(fd int) *KMSCard { return &KMSCard{fd: fd} }

func (c *KMSCard) FD() int      { return c.fd }
func (c *KMSCard) Close() error { return unix.Close(c.fd) }

func (c *KMSCard) ioctl(req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.fd), req, uintptr(arg))
		switch {
		case errno == 0:
			return nil
		case errors.Is(errno, unix.EINTR), errors.Is(errno, unix.EAGAIN):
			continue
		default:
			return errno
		}
	}
}

// Resources queries the card's CRTCs, connectors and encoders. The kernel is
// asked twice: once for the counts, once to fill the arrays.
func (c *KMSCard) Resources() (Resources, error) {
	for {
		var res modeCardRes
		if err := c.ioctl(ioctlModeGetResources, unsafe.Pointer(&res)); err != nil {
			return Resources{}, fmt.Errorf("DRM_IOCTL_MODE_GETRESOURCES: %w", err)
		}
		counts := res

		out := Resources{
			FBs:        make([]uint32, res.countFBs),
			CRTCs:      make([]uint32, res.countCRTCs),
			Connectors: make([]uint32, res.countConnectors),
			Encoders:   make([]uint32, res.countEncoders),
		}
		res.fbIDPtr = slicePtr(out.FBs)
		res.crtcIDPtr = slicePtr(out.CRTCs)
		res.connectorIDPtr = slicePtr(out.Connectors)
		res.encoderIDPtr = slicePtr(out.Encoders)

		err := c.ioctl(ioctlModeGetResources, unsafe.Pointer(&res))
		runtime.KeepAlive(out)
		if err != nil {
			return Resources{}, fmt.Errorf("DRM_IOCTL_MODE_GETRESOURCES: %w", err)
		}
		// A hotplug between the two calls changes the counts; start over.
		if res.countFBs > counts.countFBs || res.countCRTCs > counts.countCRTCs ||
			res.countConnectors > counts.countConnectors || res.countEncoders > counts.countEncoders {
			continue
		}
		out.FBs = out.FBs[:res.countFBs]
		out.CRTCs = out.CRTCs[:res.countCRTCs]
		out.Connectors = out.Connectors[:res.countConnectors]
		out.Encoders = out.Encoders[:res.countEncoders]
		out.MinWidth, out.MaxWidth = res.minWidth, res.maxWidth
		out.MinHeight, out.MaxHeight = res.minHeight, res.maxHeight
		return out, nil
	}
}

// Connector queries a connector, its encoders and its modes.
func (c *KMSCard) Connector(id uint32) (Connector, error) {
	for {
		conn := modeGetConnector{connectorID: id}
		if err := c.ioctl(ioctlModeGetConnector, unsafe.Pointer(&conn)); err != nil {
			return Connector{}, fmt.Errorf("DRM_IOCTL_MODE_GETCONNECTOR %d: %w", id, err)
		}
		counts := conn

		encoders := make([]uint32, conn.countEncoders)
		modes := make([]modeModeInfo, conn.countModes)
		props := make([]uint32, conn.countProps)
		values := make([]uint64, conn.countProps)
		conn.encodersPtr = slicePtr(encoders)
		conn.modesPtr = slicePtr(modes)
		conn.propsPtr = slicePtr(props)
		conn.propValuesPtr = slicePtr(values)

		err := c.ioctl(ioctlModeGetConnector, unsafe.Pointer(&conn))
		runtime.KeepAlive(encoders)
		runtime.KeepAlive(modes)
		runtime.KeepAlive(props)
		runtime.KeepAlive(values)
		if err != nil {
			return Connector{}, fmt.Errorf("DRM_IOCTL_MODE_GETCONNECTOR %d: %w", id, err)
		}
		if conn.countEncoders > counts.countEncoders || conn.countModes > counts.countModes ||
			conn.countProps > counts.countProps {
			continue
		}

		out := Connector{
			ID:         conn.connectorID,
			EncoderID:  conn.encoderID,
			Type:       conn.connectorType,
			TypeID:     conn.connectorTypeID,
			Connection: conn.connection,
			MMWidth:    conn.mmWidth,
			MMHeight:   conn.mmHeight,
			Subpixel:   conn.subpixel,
			Encoders:   encoders[:conn.countEncoders],
		}
		for _, m := range modes[:conn.countModes] {
			out.Modes = append(out.Modes, m.toModeInfo())
		}
		return out, nil
	}
}

// Encoder queries an encoder's CRTC compatibility mask.
func (c *KMSCard) Encoder(id uint32) (Encoder, error) {
	enc := modeGetEncoder{encoderID: id}
	if err := c.ioctl(ioctlModeGetEncoder, unsafe.Pointer(&enc)); err != nil {
		return Encoder{}, fmt.Errorf("DRM_IOCTL_MODE_GETENCODER %d: %w", id, err)
	}
	return Encoder{
		ID:             enc.encoderID,
		Type:           enc.encoderType,
		CRTCID:         enc.crtcID,
		PossibleCRTCs:  enc.possibleCRTCs,
		PossibleClones: enc.possibleClones,
	}, nil
}

func (m modeModeInfo) toModeInfo() ModeInfo {
	name := m.name[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return ModeInfo{
		Clock:      m.clock,
		HDisplay:   m.hdisplay,
		HSyncStart: m.hsyncStart,
		HSyncEnd:   m.hsyncEnd,
		HTotal:     m.htotal,
		HSkew:      m.hskew,
		VDisplay:   m.vdisplay,
		VSyncStart: m.vsyncStart,
		VSyncEnd:   m.vsyncEnd,
		VTotal:     m.vtotal,
		VScan:      m.vscan,
		VRefresh:   m.vrefresh,
		Flags:      m.flags,
		Type:       m.typ,
		Name:       string(name),
	}
}

func slicePtr[T any](s []T) uint64 {
	if len(s) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&s[0])))
}
