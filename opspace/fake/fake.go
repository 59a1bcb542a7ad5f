// Package fake implements a model evaluator backed by a settable snapshot,
// for tests and development without an arm attached.
package fake

import (
	"context"
	"sync"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/varununayak/robot-arm-crokinole/opspace"
	"github.com/varununayak/robot-arm-crokinole/spatialmath"
)

// Evaluator serves whatever snapshot it was last given. The zero arm sits at
// the origin with an identity mass matrix and a full rank jacobian, so the
// tasks stay well conditioned.
type Evaluator struct {
	mu    sync.Mutex
	state opspace.State
	err   error
}

// NewEvaluator creates a fake evaluator for an arm with the given joint count.
func NewEvaluator(numJoints int) *Evaluator {
	jacobian := mat.NewDense(6, numJoints, nil)
	for i := 0; i < 6 && i < numJoints; i++ {
		jacobian.Set(i, i, 1)
	}
	return &Evaluator{
		state: opspace.State{
			Positions:  make([]float64, numJoints),
			Velocities: make([]float64, numJoints),
			MassMatrix: opspace.Identity(numJoints),
			Jacobian:   jacobian,
			Pose: spatialmath.Pose{
				Orientation: spatialmath.NewIdentityRotationMatrix(),
			},
		},
	}
}

// Evaluate returns a copy of the current snapshot, or the injected error.
func (e *Evaluator) Evaluate(ctx context.Context) (*opspace.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := e.state
	out.Positions = append([]float64(nil), e.state.Positions...)
	out.Velocities = append([]float64(nil), e.state.Velocities...)
	out.MassMatrix = mat.DenseCopyOf(e.state.MassMatrix)
	out.Jacobian = mat.DenseCopyOf(e.state.Jacobian)
	return &out, nil
}

// SetError makes every following Evaluate fail with err. A nil err clears it.
func (e *Evaluator) SetError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// SetJointPositions replaces the joint positions.
func (e *Evaluator) SetJointPositions(positions []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.state.Positions, positions)
}

// SetJointVelocities replaces the joint velocities.
func (e *Evaluator) SetJointVelocities(velocities []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.state.Velocities, velocities)
}

// SetMassMatrix replaces the mass matrix.
func (e *Evaluator) SetMassMatrix(massMatrix *mat.Dense) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.MassMatrix = mat.DenseCopyOf(massMatrix)
}

// SetPose replaces the control point pose.
func (e *Evaluator) SetPose(pose spatialmath.Pose) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Pose = pose
}

// SetTwist replaces the control point velocities.
func (e *Evaluator) SetTwist(velocity, angularVelocity r3.Vector) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Velocity = velocity
	e.state.AngularVelocity = angularVelocity
}

// SetAccelerations replaces the control point accelerations.
func (e *Evaluator) SetAccelerations(linear, angular r3.Vector) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Acceleration = linear
	e.state.AngularAcceleration = angular
}

// SetAtRest puts the control point at the given pose with every derivative
// zeroed, which satisfies any settling check against that pose.
func (e *Evaluator) SetAtRest(pose spatialmath.Pose) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Pose = pose
	e.state.Velocity = r3.Vector{}
	e.state.AngularVelocity = r3.Vector{}
	e.state.Acceleration = r3.Vector{}
	e.state.AngularAcceleration = r3.Vector{}
}
