package geo

import "fmt"

// OutputTransform is the wl_output.transform enumeration used for outputs and
// client buffers.
type OutputTransform int32

const (
	TransformNormal OutputTransform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

var transformMatrices = [...]Mat4{
	TransformNormal: Identity(),
	Transform90: {
		0, -1, 0, 0,
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	},
	Transform180: {
		-1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	},
	Transform270: {
		0, 1, 0, 0,
		-1, 0, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	},
	TransformFlipped: {
		-1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	},
	TransformFlipped90: {
		0, 1, 0, 0,
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	},
	TransformFlipped180: {
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	},
	TransformFlipped270: {
		0, -1, 0, 0,
		-1, 0, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	},
}

var transformNames = [...]string{
	"normal", "90", "180", "270", "flipped", "flipped-90", "flipped-180", "flipped-270",
}

// ParseOutputTransform validates a raw protocol value.
func ParseOutputTransform(v int32) (OutputTransform, error) {
	if v < int32(TransformNormal) || v > int32(TransformFlipped270) {
		return TransformNormal, fmt.Errorf("invalid transform %d, supported values are %v", v, transformNames)
	}
	return OutputTransform(v), nil
}

// Valid reports whether t is one of the eight defined transforms.
func (t OutputTransform) Valid() bool {
	return t >= TransformNormal && t <= TransformFlipped270
}

// Matrix returns the 4x4 matrix for t. Invalid values map to the identity.
func (t OutputTransform) Matrix() Mat4 {
	if !t.Valid() {
		return Identity()
	}
	return transformMatrices[t]
}

// SwapsAxes reports whether t exchanges width and height.
func (t OutputTransform) SwapsAxes() bool {
	return t == Transform90 || t == Transform270 || t == TransformFlipped90 || t == TransformFlipped270
}

func (t OutputTransform) String() string {
	if !t.Valid() {
		return fmt.Sprintf("transform(%d)", int32(t))
	}
	return transformNames[t]
}
