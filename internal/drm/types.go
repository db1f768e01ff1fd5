package drm

import (
	"fmt"

	"github.com/bnema/wayfold/internal/core"
)

// Connection states of a connector.
const (
	ModeConnected         uint32 = 1
	ModeDisconnected      uint32 = 2
	ModeUnknownConnection uint32 = 3
)

// Card is an open KMS device.
type Card interface {
	Resources() (Resources, error)
	Connector(id uint32) (Connector, error)
	Encoder(id uint32) (Encoder, error)
	// FD is the descriptor page flip events are read from.
	FD() int
	Close() error
}

// Resources lists the mode setting objects of a card. CRTC indices used by
// encoder masks refer to positions in CRTCs.
type Resources struct {
	FBs        []uint32
	CRTCs      []uint32
	Connectors []uint32
	Encoders   []uint32

	MinWidth, MaxWidth   uint32
	MinHeight, MaxHeight uint32
}

// ModeInfo is a display timing.
type ModeInfo struct {
	Clock                                         uint32
	HDisplay, HSyncStart, HSyncEnd, HTotal, HSkew uint16
	VDisplay, VSyncStart, VSyncEnd, VTotal, VScan uint16
	VRefresh                                      uint32
	Flags                                         uint32
	Type                                          uint32
	Name                                          string
}

// Area is the number of visible pixels.
func (m ModeInfo) Area() int { return int(m.HDisplay) * int(m.VDisplay) }

// Refresh returns the refresh rate in millihertz, computed from the timings
// when they are available.
func (m ModeInfo) Refresh() int {
	if m.HTotal == 0 || m.VTotal == 0 {
		return int(m.VRefresh) * 1000
	}
	// clock is in kHz
	return int((uint64(m.Clock)*1000000/uint64(m.HTotal) + uint64(m.VTotal)/2) / uint64(m.VTotal))
}

func (m ModeInfo) String() string {
	return fmt.Sprintf("%dx%d@%d", m.HDisplay, m.VDisplay, m.VRefresh)
}

// CoreMode converts the timing into the compositor's mode.
func (m ModeInfo) CoreMode() core.Mode {
	return core.Mode{Width: int(m.HDisplay), Height: int(m.VDisplay), Refresh: m.Refresh()}
}

// Connector is a display connector and the modes its monitor supports.
type Connector struct {
	ID         uint32
	EncoderID  uint32
	Type       uint32
	TypeID     uint32
	Connection uint32
	MMWidth    uint32
	MMHeight   uint32
	Subpixel   uint32
	Encoders   []uint32
	Modes      []ModeInfo
}

func (c Connector) Connected() bool { return c.Connection == ModeConnected }

var connectorTypeNames = []string{
	"Unknown", "VGA", "DVI-I", "DVI-D", "DVI-A", "Composite", "SVIDEO", "LVDS",
	"Component", "DIN", "DP", "HDMI-A", "HDMI-B", "TV", "eDP", "Virtual", "DSI",
	"DPI", "Writeback", "SPI", "USB",
}

// Name is the conventional connector name, e.g. HDMI-A-1.
func (c Connector) Name() string {
	typ := "Unknown"
	if int(c.Type) < len(connectorTypeNames) {
		typ = connectorTypeNames[c.Type]
	}
	return fmt.Sprintf("%s-%d", typ, c.TypeID)
}

// CoreSubpixel maps the kernel subpixel order to wl_output's.
func (c Connector) CoreSubpixel() core.Subpixel {
	switch c.Subpixel {
	case 2:
		return core.SubpixelHorizontalRGB
	case 3:
		return core.SubpixelHorizontalBGR
	case 4:
		return core.SubpixelVerticalRGB
	case 5:
		return core.SubpixelVerticalBGR
	case 6:
		return core.SubpixelNone
	}
	return core.SubpixelUnknown
}

// Encoder routes a connector to one of the CRTCs in its mask.
type Encoder struct {
	ID             uint32
	Type           uint32
	CRTCID         uint32
	PossibleCRTCs  uint32
	PossibleClones uint32
}
