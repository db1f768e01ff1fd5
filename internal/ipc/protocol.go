package ipc

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Message types. Every message is a structpb.Struct whose "type" field holds
// one of these.
const (
	MessageTypeStatus          = "status"
	MessageTypeOutputs         = "outputs"
	MessageTypeScene           = "scene"
	MessageTypeStatusResponse  = "status_response"
	MessageTypeOutputsResponse = "outputs_response"
	MessageTypeSceneResponse   = "scene_response"
	MessageTypeError           = "error"
)

// StatusInfo summarises the running compositor.
type StatusInfo struct {
	Platform      string
	Seat          string
	Capabilities  string
	Outputs       int
	Surfaces      int
	Views         int
	Frames        uint64
	Serial        uint32
	PendingJobs   int
	PointerFocus  string
	KeyboardFocus string
}

// OutputInfo describes one output.
type OutputInfo struct {
	Name    string
	Make    string
	Model   string
	X, Y    int
	Width   int
	Height  int
	Refresh int
	Scale   int
	Enabled bool
}

// ViewInfo describes one scene view, front to back.
type ViewInfo struct {
	Surface string
	Client  uint64
	X, Y    int
	Width   int
	Height  int
}

// NewRequest creates a request of the given type.
func NewRequest(msgType string) (*structpb.Struct, error) {
	switch msgType {
	case MessageTypeStatus, MessageTypeOutputs, MessageTypeScene:
	default:
		return nil, fmt.Errorf("unknown request type %q", msgType)
	}
	return structpb.NewStruct(map[string]any{"type": msgType})
}

// NewErrorMessage creates a new error message
func NewErrorMessage(errMsg string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"type": MessageTypeError, "error": errMsg})
}

// MessageType returns the type field of msg.
func MessageType(msg *structpb.Struct) string {
	return msg.GetFields()["type"].GetStringValue()
}

// GetError extracts the text of an error message.
func GetError(msg *structpb.Struct) (string, error) {
	if MessageType(msg) != MessageTypeError {
		return "", fmt.Errorf("message is not an error response")
	}
	return msg.GetFields()["error"].GetStringValue(), nil
}

// NewStatusResponse encodes info.
func NewStatusResponse(info StatusInfo) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"type":           MessageTypeStatusResponse,
		"platform":       info.Platform,
		"seat":           info.Seat,
		"capabilities":   info.Capabilities,
		"outputs":        info.Outputs,
		"surfaces":       info.Surfaces,
		"views":          info.Views,
		"frames":         info.Frames,
		"serial":         info.Serial,
		"pending_jobs":   info.PendingJobs,
		"pointer_focus":  info.PointerFocus,
		"keyboard_focus": info.KeyboardFocus,
	})
}

// GetStatusResponse decodes a status response.
func GetStatusResponse(msg *structpb.Struct) (StatusInfo, error) {
	if MessageType(msg) != MessageTypeStatusResponse {
		return StatusInfo{}, fmt.Errorf("message is not a status response")
	}
	f := fields(msg.GetFields())
	return StatusInfo{
		Platform:      f.str("platform"),
		Seat:          f.str("seat"),
		Capabilities:  f.str("capabilities"),
		Outputs:       f.integer("outputs"),
		Surfaces:      f.integer("surfaces"),
		Views:         f.integer("views"),
		Frames:        uint64(f.num("frames")),
		Serial:        uint32(f.num("serial")),
		PendingJobs:   f.integer("pending_jobs"),
		PointerFocus:  f.str("pointer_focus"),
		KeyboardFocus: f.str("keyboard_focus"),
	}, nil
}

// NewOutputsResponse encodes outputs.
func NewOutputsResponse(outputs []OutputInfo) (*structpb.Struct, error) {
	list := make([]any, 0, len(outputs))
	for _, o := range outputs {
		list = append(list, map[string]any{
			"name":    o.Name,
			"make":    o.Make,
			"model":   o.Model,
			"x":       o.X,
			"y":       o.Y,
			"width":   o.Width,
			"height":  o.Height,
			"refresh": o.Refresh,
			"scale":   o.Scale,
			"enabled": o.Enabled,
		})
	}
	return structpb.NewStruct(map[string]any{"type": MessageTypeOutputsResponse, "outputs": list})
}

// GetOutputsResponse decodes an outputs response.
func GetOutputsResponse(msg *structpb.Struct) ([]OutputInfo, error) {
	if MessageType(msg) != MessageTypeOutputsResponse {
		return nil, fmt.Errorf("message is not an outputs response")
	}
	var out []OutputInfo
	for _, v := range msg.GetFields()["outputs"].GetListValue().GetValues() {
		f := fields(v.GetStructValue().GetFields())
		out = append(out, OutputInfo{
			Name:    f.str("name"),
			Make:    f.str("make"),
			Model:   f.str("model"),
			X:       f.integer("x"),
			Y:       f.integer("y"),
			Width:   f.integer("width"),
			Height:  f.integer("height"),
			Refresh: f.integer("refresh"),
			Scale:   f.integer("scale"),
			Enabled: f["enabled"].GetBoolValue(),
		})
	}
	return out, nil
}

// NewSceneResponse encodes views.
func NewSceneResponse(views []ViewInfo) (*structpb.Struct, error) {
	list := make([]any, 0, len(views))
	for _, v := range views {
		list = append(list, map[string]any{
			"surface": v.Surface,
			"client":  v.Client,
			"x":       v.X,
			"y":       v.Y,
			"width":   v.Width,
			"height":  v.Height,
		})
	}
	return structpb.NewStruct(map[string]any{"type": MessageTypeSceneResponse, "views": list})
}

// GetSceneResponse decodes a scene response.
func GetSceneResponse(msg *structpb.Struct) ([]ViewInfo, error) {
	if MessageType(msg) != MessageTypeSceneResponse {
		return nil, fmt.Errorf("message is not a scene response")
	}
	var out []ViewInfo
	for _, v := range msg.GetFields()["views"].GetListValue().GetValues() {
		f := fields(v.GetStructValue().GetFields())
		out = append(out, ViewInfo{
			Surface: f.str("surface"),
			Client:  uint64(f.num("client")),
			X:       f.integer("x"),
			Y:       f.integer("y"),
			Width:   f.integer("width"),
			Height:  f.integer("height"),
		})
	}
	return out, nil
}

type fields map[string]*structpb.Value

func (f fields) str(key string) string  { return f[key].GetStringValue() }
func (f fields) num(key string) float64 { return f[key].GetNumberValue() }
func (f fields) integer(key string) int { return int(f[key].GetNumberValue()) }
