package opspace

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/varununayak/robot-arm-crokinole/utils"
)

// JointTask drives the arm toward a reference joint configuration with a
// proportional derivative law scaled by the mass matrix. As the lowest
// priority task it operates in whatever nullspace the tasks above it leave.
type JointTask struct {
	numJoints      int
	kp             float64
	kv             float64
	regularization float64

	desired         []float64
	desiredVelocity []float64

	// per joint velocity saturation, nil when disabled
	saturation []float64

	nPrec *mat.Dense
}

// NewJointTask creates a posture task for an arm with the given joint count.
func NewJointTask(numJoints int, kp, kv float64) *JointTask {
	return &JointTask{
		numJoints:       numJoints,
		kp:              kp,
		kv:              kv,
		desired:         make([]float64, numJoints),
		desiredVelocity: make([]float64, numJoints),
	}
}

// SetGains replaces the proportional and derivative coefficients.
func (t *JointTask) SetGains(kp, kv float64) {
	t.kp = kp
	t.kv = kv
}

// Kp returns the proportional coefficient.
func (t *JointTask) Kp() float64 {
	return t.kp
}

// Kv returns the derivative coefficient.
func (t *JointTask) Kv() float64 {
	return t.kv
}

// SetRegularization adds eps to the diagonal of the mass matrix when
// computing torques. Zero disables it.
func (t *JointTask) SetRegularization(eps float64) {
	t.regularization = eps
}

// SetTarget replaces the reference configuration.
func (t *JointTask) SetTarget(positions []float64) error {
	if len(positions) != t.numJoints {
		return errors.Errorf("target has %d joints, task expects %d", len(positions), t.numJoints)
	}
	copy(t.desired, positions)
	return nil
}

// SetJointTarget replaces the reference for a single joint, leaving the rest
// of the configuration alone.
func (t *JointTask) SetJointTarget(joint int, position float64) error {
	if joint < 0 || joint >= t.numJoints {
		return errors.Errorf("joint %d out of range, task has %d joints", joint, t.numJoints)
	}
	t.desired[joint] = position
	return nil
}

// Target returns a copy of the reference configuration.
func (t *JointTask) Target() []float64 {
	out := make([]float64, t.numJoints)
	copy(out, t.desired)
	return out
}

// SetJointTargetVelocity replaces the reference velocity for a single joint.
// Reference velocities are ignored while velocity saturation is enabled.
func (t *JointTask) SetJointTargetVelocity(joint int, velocity float64) error {
	if joint < 0 || joint >= t.numJoints {
		return errors.Errorf("joint %d out of range, task has %d joints", joint, t.numJoints)
	}
	t.desiredVelocity[joint] = velocity
	return nil
}

// SetVelocitySaturation enables per joint velocity saturation: the
// proportional term may not ask for more speed than the given limits.
func (t *JointTask) SetVelocitySaturation(limits []float64) error {
	if len(limits) != t.numJoints {
		return errors.Errorf("saturation has %d joints, task expects %d", len(limits), t.numJoints)
	}
	t.saturation = make([]float64, t.numJoints)
	copy(t.saturation, limits)
	return nil
}

// DisableVelocitySaturation removes the per joint speed caps.
func (t *JointTask) DisableVelocitySaturation() {
	t.saturation = nil
}

// Reinitialize adopts the current configuration as the reference and zeroes
// the reference velocity, so the task holds the arm where it is.
func (t *JointTask) Reinitialize(state *State) error {
	if state.NumJoints() != t.numJoints {
		return errors.Errorf("state has %d joints, task expects %d", state.NumJoints(), t.numJoints)
	}
	copy(t.desired, state.Positions)
	for i := range t.desiredVelocity {
		t.desiredVelocity[i] = 0
	}
	return nil
}

// UpdateModel adopts the preceding nullspace as this task's projector.
func (t *JointTask) UpdateModel(state *State, nPrec *mat.Dense) error {
	if state.NumJoints() != t.numJoints {
		return errors.Errorf("state has %d joints, task expects %d", state.NumJoints(), t.numJoints)
	}
	t.nPrec = nPrec
	return nil
}

// Nullspace passes the projector through: the posture task spans every
// remaining direction, so nothing runs below it.
func (t *JointTask) Nullspace() *mat.Dense {
	return t.nPrec
}

// ComputeTorques returns this task's contribution to the commanded torques.
func (t *JointTask) ComputeTorques(state *State) ([]float64, error) {
	if t.nPrec == nil {
		return nil, errors.New("task model has not been updated")
	}

	accel := make([]float64, t.numJoints)
	if t.saturation != nil {
		for i := range accel {
			desiredVel := utils.Clamp(-t.kp/t.kv*(state.Positions[i]-t.desired[i]), -t.saturation[i], t.saturation[i])
			accel[i] = -t.kv * (state.Velocities[i] - desiredVel)
		}
	} else {
		for i := range accel {
			accel[i] = -t.kp*(state.Positions[i]-t.desired[i]) - t.kv*(state.Velocities[i]-t.desiredVelocity[i])
		}
	}

	mass := state.MassMatrix
	if t.regularization > 0 {
		mass = addDiagonal(mass, t.regularization)
	}
	var force mat.VecDense
	force.MulVec(mass, mat.NewVecDense(t.numJoints, accel))

	var torques mat.VecDense
	torques.MulVec(t.nPrec.T(), &force)

	out := make([]float64, t.numJoints)
	for i := range out {
		out[i] = torques.AtVec(i)
	}
	return out, nil
}
