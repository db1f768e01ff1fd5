package drm

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// Allocation binds a connected connector to a CRTC and a mode.
type Allocation struct {
	Connector Connector
	CRTCID    uint32
	// CRTCIndex is the CRTC's position in Resources.CRTCs.
	CRTCIndex int
	Mode      ModeInfo
}

// Allocate assigns CRTCs to the connected connectors of card, in connector
// order. Each connector takes the first free CRTC its encoders allow. There
// is no backtracking: a connector whose compatible CRTCs were all claimed by
// earlier connectors is left out, even if a different earlier choice would
// have served both.
func Allocate(card Card, logger *log.Logger) ([]Allocation, error) {
	res, err := card.Resources()
	if err != nil {
		return nil, fmt.Errorf("getting drm resources failed: %w", err)
	}

	claimed := make(map[uint32]bool, len(res.CRTCs))
	var out []Allocation
	for _, id := range res.Connectors {
		conn, err := card.Connector(id)
		if err != nil {
			logger.Warn("skipping connector", "id", id, "err", err)
			continue
		}
		if !conn.Connected() {
			continue
		}

		index, ok := claimCRTC(card, res, conn, claimed, logger)
		if !ok {
			logger.Warn("no free crtc for connector", "connector", conn.Name())
			continue
		}
		mode, ok := SelectMode(conn.Modes)
		if !ok {
			return nil, fmt.Errorf("%w for connector %s", ErrNoMode, conn.Name())
		}
		out = append(out, Allocation{
			Connector: conn,
			CRTCID:    res.CRTCs[index],
			CRTCIndex: index,
			Mode:      mode,
		})
	}
	return out, nil
}

// claimCRTC walks the connector's encoders and claims the first CRTC whose
// bit is set in the encoder's mask and that nobody holds yet. A failing
// encoder query gives up on the connector.
func claimCRTC(card Card, res Resources, conn Connector, claimed map[uint32]bool, logger *log.Logger) (int, bool) {
	for _, encID := range conn.Encoders {
		enc, err := card.Encoder(encID)
		if err != nil {
			logger.Warn("encoder query failed", "connector", conn.Name(), "encoder", encID, "err", err)
			return 0, false
		}
		for i, crtc := range res.CRTCs {
			if i >= 32 {
				break
			}
			if enc.PossibleCRTCs&(1<<i) == 0 || claimed[crtc] {
				continue
			}
			claimed[crtc] = true
			return i, true
		}
	}
	return 0, false
}

// SelectMode returns the mode with the largest area. Among equal areas the
// first one wins.
func SelectMode(modes []ModeInfo) (ModeInfo, bool) {
	var best ModeInfo
	area := 0
	for _, m := range modes {
		if a := m.Area(); a > area {
			best, area = m, a
		}
	}
	return best, area > 0
}
