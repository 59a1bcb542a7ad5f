package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Pose pairs a position with an orientation in the robot frame.
type Pose struct {
	Position    r3.Vector
	Orientation *RotationMatrix
}
