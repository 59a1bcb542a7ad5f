package opspace

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/varununayak/robot-arm-crokinole/spatialmath"
)

// Gains are the proportional and derivative coefficients of a Cartesian task.
type Gains struct {
	KpPos float64
	KvPos float64
	KpOri float64
	KvOri float64
}

// PosOriTask drives the control point toward a desired pose with a
// proportional derivative law in task space, mapped to joint torques through
// the dynamically consistent task space inertia.
type PosOriTask struct {
	numJoints      int
	gains          Gains
	regularization float64

	// norm based velocity saturation, disabled when nonpositive
	linearSaturation  float64
	angularSaturation float64

	desired spatialmath.Pose

	projected *mat.Dense
	lambda    *mat.Dense
	jbar      *mat.Dense
	nullspace *mat.Dense
}

// NewPosOriTask creates a Cartesian task for an arm with the given joint count.
func NewPosOriTask(numJoints int, gains Gains) *PosOriTask {
	return &PosOriTask{numJoints: numJoints, gains: gains}
}

// SetGains replaces the task gains.
func (t *PosOriTask) SetGains(gains Gains) {
	t.gains = gains
}

// Gains returns the current task gains.
func (t *PosOriTask) Gains() Gains {
	return t.gains
}

// SetRegularization adds eps to the diagonal of the task space inertia when
// computing torques, damping ill conditioning near singular configurations.
// Zero disables it.
func (t *PosOriTask) SetRegularization(eps float64) {
	t.regularization = eps
}

// SetVelocitySaturation caps the speed the proportional term may ask for, by
// norm, separately for the linear and angular parts. Nonpositive values
// disable the respective cap.
func (t *PosOriTask) SetVelocitySaturation(linear, angular float64) {
	t.linearSaturation = linear
	t.angularSaturation = angular
}

// SetTarget replaces the desired pose.
func (t *PosOriTask) SetTarget(pose spatialmath.Pose) {
	t.desired = pose
}

// Target returns the desired pose.
func (t *PosOriTask) Target() spatialmath.Pose {
	return t.desired
}

// UpdateModel recomputes the task's dynamically consistent quantities from
// this cycle's snapshot and the preceding nullspace projector.
func (t *PosOriTask) UpdateModel(state *State, nPrec *mat.Dense) error {
	if state.NumJoints() != t.numJoints {
		return errors.Errorf("state has %d joints, task expects %d", state.NumJoints(), t.numJoints)
	}
	projected := &mat.Dense{}
	projected.Mul(state.Jacobian, nPrec)
	lambda, jbar, nullspace, err := OperationalSpaceMatrices(state.MassMatrix, projected, nPrec)
	if err != nil {
		return err
	}
	t.projected = projected
	t.lambda = lambda
	t.jbar = jbar
	t.nullspace = nullspace
	return nil
}

// Nullspace returns the projector lower priority tasks must operate in. Valid
// after UpdateModel.
func (t *PosOriTask) Nullspace() *mat.Dense {
	return t.nullspace
}

// ComputeTorques returns this task's contribution to the commanded torques.
func (t *PosOriTask) ComputeTorques(state *State) ([]float64, error) {
	if t.lambda == nil {
		return nil, errors.New("task model has not been updated")
	}
	if t.desired.Orientation == nil {
		return nil, errors.New("task has no target")
	}

	var linear r3.Vector
	posErr := state.Pose.Position.Sub(t.desired.Position)
	if t.linearSaturation > 0 {
		desiredVel := posErr.Mul(-t.gains.KpPos / t.gains.KvPos)
		if norm := desiredVel.Norm(); norm > t.linearSaturation {
			desiredVel = desiredVel.Mul(t.linearSaturation / norm)
		}
		linear = state.Velocity.Sub(desiredVel).Mul(-t.gains.KvPos)
	} else {
		linear = posErr.Mul(-t.gains.KpPos).Sub(state.Velocity.Mul(t.gains.KvPos))
	}

	var angular r3.Vector
	oriErr := spatialmath.OrientationError(state.Pose.Orientation, t.desired.Orientation)
	if t.angularSaturation > 0 {
		desiredVel := oriErr.Mul(-t.gains.KpOri / t.gains.KvOri)
		if norm := desiredVel.Norm(); norm > t.angularSaturation {
			desiredVel = desiredVel.Mul(t.angularSaturation / norm)
		}
		angular = state.AngularVelocity.Sub(desiredVel).Mul(-t.gains.KvOri)
	} else {
		angular = oriErr.Mul(-t.gains.KpOri).Sub(state.AngularVelocity.Mul(t.gains.KvOri))
	}

	accel := mat.NewVecDense(6, []float64{
		linear.X, linear.Y, linear.Z,
		angular.X, angular.Y, angular.Z,
	})

	lambda := t.lambda
	if t.regularization > 0 {
		lambda = addDiagonal(lambda, t.regularization)
	}
	var force mat.VecDense
	force.MulVec(lambda, accel)

	var torques mat.VecDense
	torques.MulVec(t.projected.T(), &force)

	out := make([]float64, t.numJoints)
	for i := range out {
		out[i] = torques.AtVec(i)
	}
	return out, nil
}
