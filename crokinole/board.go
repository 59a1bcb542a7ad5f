// Package crokinole models the crokinole board the arm plays on and the shot
// requests issued against it.
package crokinole

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/varununayak/robot-arm-crokinole/spatialmath"
)

const (
	// DefaultBoardRadius is half of the 20.125 inch playing surface, in meters.
	DefaultBoardRadius = 20.125 / 2 * 0.0254

	// CueStagingAngle is the rim angle where the cue waits before a shot lines up.
	CueStagingAngle = -math.Pi / 4
)

// DefaultMountRotation returns the rotation from the board frame into the robot
// frame for the standard mounting, where board +X maps to robot -Y and board +Y
// to robot +X.
func DefaultMountRotation() *spatialmath.RotationMatrix {
	rot, err := spatialmath.NewRotationMatrix([]float64{
		0, 1, 0,
		-1, 0, 0,
		0, 0, 1,
	})
	if err != nil {
		panic(err)
	}
	return rot
}

// Geometry locates the board in the robot frame. Rim angles are measured in
// the robot frame from the board center, zero along robot +Y and increasing
// toward robot +X.
type Geometry struct {
	radius float64
	center r3.Vector
	mount  *spatialmath.RigidTransform
}

// NewGeometry creates a board geometry from its rim radius and the rigid
// transform mapping board frame points into the robot frame.
func NewGeometry(radius float64, mount *spatialmath.RigidTransform) (*Geometry, error) {
	if radius <= 0 {
		return nil, errors.Errorf("board radius must be positive, got %f", radius)
	}
	return &Geometry{
		radius: radius,
		center: mount.Translation(),
		mount:  mount,
	}, nil
}

// Radius returns the rim radius in meters.
func (g *Geometry) Radius() float64 {
	return g.radius
}

// Center returns the board center in the robot frame. Its Z component is the
// cue height above the robot base.
func (g *Geometry) Center() r3.Vector {
	return g.center
}

// RimPoint returns the robot frame position on the rim at the given angle,
// at cue height.
func (g *Geometry) RimPoint(theta float64) r3.Vector {
	s, c := math.Sincos(theta)
	return r3.Vector{
		X: g.radius*s + g.center.X,
		Y: g.radius*c + g.center.Y,
		Z: g.center.Z,
	}
}

// RimAngle returns the rim angle of a robot frame position. Only the bearing
// from the board center matters, so the position need not lie on the rim.
func (g *Geometry) RimAngle(p r3.Vector) float64 {
	return math.Atan2(p.X-g.center.X, p.Y-g.center.Y)
}

// CuePosition returns where the cue stages between shots.
func (g *Geometry) CuePosition() r3.Vector {
	return g.RimPoint(CueStagingAngle)
}

// TargetPosition maps a target given in board frame meters into the robot
// frame.
func (g *Geometry) TargetPosition(target r3.Vector) r3.Vector {
	return g.mount.TransformPoint(target)
}
