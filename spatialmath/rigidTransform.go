package spatialmath

import (
	"github.com/golang/geo/r3"
)

// RigidTransform is a rotation and translation pair mapping points from one
// frame into another.
type RigidTransform struct {
	rotation    *RotationMatrix
	translation r3.Vector
}

// NewRigidTransform creates a rigid transform from a rotation and a translation.
func NewRigidTransform(rotation *RotationMatrix, translation r3.Vector) *RigidTransform {
	return &RigidTransform{rotation: rotation, translation: translation}
}

// Rotation returns the rotation component of the transform.
func (rt *RigidTransform) Rotation() *RotationMatrix {
	return rt.rotation
}

// Translation returns the translation component of the transform.
func (rt *RigidTransform) Translation() r3.Vector {
	return rt.translation
}

// TransformPoint maps a point through the transform, rotating then translating it.
func (rt *RigidTransform) TransformPoint(p r3.Vector) r3.Vector {
	return rt.rotation.Rotate(p).Add(rt.translation)
}
