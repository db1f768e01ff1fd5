// Package protocol validates client requests before they reach the
// compositor core. Wire decoding happens elsewhere: these types receive
// already-decoded arguments and report violations through Resource.PostError,
// which only affects the offending client.
package protocol

import "github.com/bnema/wayfold/internal/core"

// Resource is the per-client protocol object a request arrived on.
type Resource interface {
	Client() core.ClientID
	PostError(code uint32, msg string)
}

// wl_display errors.
const (
	DisplayErrorInvalidObject uint32 = 0
	DisplayErrorInvalidMethod uint32 = 1
	DisplayErrorNoMemory      uint32 = 2
)

// wl_surface errors.
const (
	SurfaceErrorInvalidScale     uint32 = 0
	SurfaceErrorInvalidTransform uint32 = 1
	SurfaceErrorInvalidSize      uint32 = 2
	SurfaceErrorInvalidOffset    uint32 = 3
	SurfaceErrorDefunctRole      uint32 = 4
)
