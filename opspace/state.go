// Package opspace implements operational space control primitives: the
// dynamically consistent task space quantities and the Cartesian and joint
// space tasks composed into a strict priority hierarchy.
package opspace

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/varununayak/robot-arm-crokinole/spatialmath"
)

// State is one cycle's snapshot of the arm: joint state and mass matrix, and
// the task frame quantities at the control point. It is produced by the model
// evaluator and consumed read only by the tasks.
type State struct {
	Positions  []float64
	Velocities []float64
	MassMatrix *mat.Dense

	Pose                spatialmath.Pose
	Velocity            r3.Vector
	Acceleration        r3.Vector
	AngularVelocity     r3.Vector
	AngularAcceleration r3.Vector

	// Jacobian is the 6xN basic jacobian at the control point, linear rows
	// above angular rows.
	Jacobian *mat.Dense
}

// NumJoints returns the joint count of the snapshot.
func (s *State) NumJoints() int {
	return len(s.Positions)
}

// Validate checks that the snapshot is dimensionally consistent.
func (s *State) Validate() error {
	n := len(s.Positions)
	if n == 0 {
		return errors.New("state has no joints")
	}
	if len(s.Velocities) != n {
		return errors.Errorf("state has %d positions but %d velocities", n, len(s.Velocities))
	}
	if s.MassMatrix == nil {
		return errors.New("state needs a mass matrix")
	}
	if r, c := s.MassMatrix.Dims(); r != n || c != n {
		return errors.Errorf("mass matrix must be %dx%d, got %dx%d", n, n, r, c)
	}
	if s.Jacobian == nil {
		return errors.New("state needs a jacobian")
	}
	if r, c := s.Jacobian.Dims(); r != 6 || c != n {
		return errors.Errorf("jacobian must be 6x%d, got %dx%d", n, r, c)
	}
	if s.Pose.Orientation == nil {
		return errors.New("state needs an orientation")
	}
	return nil
}

// Evaluator produces the per cycle state snapshot from whatever computes the
// arm's kinematics and dynamics.
type Evaluator interface {
	Evaluate(ctx context.Context) (*State, error)
}
