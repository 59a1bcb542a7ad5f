package blackboard

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/varununayak/robot-arm-crokinole/opspace"
	"github.com/varununayak/robot-arm-crokinole/spatialmath"
)

// Evaluator reads the per cycle model snapshot the external model evaluator
// process publishes: joint state, the mass matrix, and the task frame
// quantities at the control point. All keys are fetched in one pipelined
// round trip to stay inside the cycle budget.
type Evaluator struct {
	client    *Client
	numJoints int
}

// NewEvaluator creates an evaluator reading through the given client for an
// arm with the given joint count.
func NewEvaluator(client *Client, numJoints int) (*Evaluator, error) {
	if numJoints <= 0 {
		return nil, errors.Errorf("evaluator needs a positive joint count, got %d", numJoints)
	}
	return &Evaluator{client: client, numJoints: numJoints}, nil
}

// Evaluate fetches and decodes one snapshot.
func (e *Evaluator) Evaluate(ctx context.Context) (*opspace.State, error) {
	keys := e.client.keys
	pipe := e.client.rdb.Pipeline()
	cmds := make(map[string]*redis.StringCmd)
	for _, key := range []string{
		keys.JointPositions,
		keys.JointVelocities,
		keys.MassMatrix,
		keys.Position,
		keys.Velocity,
		keys.Acceleration,
		keys.Orientation,
		keys.AngularVelocity,
		keys.AngularAcceleration,
		keys.Jacobian,
	} {
		cmds[key] = pipe.Get(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "reading model snapshot")
	}

	state := &opspace.State{}
	var err error
	if state.Positions, err = DecodeVector(cmds[keys.JointPositions].Val()); err != nil {
		return nil, errors.Wrapf(err, "key %q", keys.JointPositions)
	}
	if state.Velocities, err = DecodeVector(cmds[keys.JointVelocities].Val()); err != nil {
		return nil, errors.Wrapf(err, "key %q", keys.JointVelocities)
	}
	if state.MassMatrix, err = DecodeMatrix(cmds[keys.MassMatrix].Val()); err != nil {
		return nil, errors.Wrapf(err, "key %q", keys.MassMatrix)
	}
	if state.Pose.Position, err = DecodeVec3(cmds[keys.Position].Val()); err != nil {
		return nil, errors.Wrapf(err, "key %q", keys.Position)
	}
	if state.Velocity, err = DecodeVec3(cmds[keys.Velocity].Val()); err != nil {
		return nil, errors.Wrapf(err, "key %q", keys.Velocity)
	}
	if state.Acceleration, err = DecodeVec3(cmds[keys.Acceleration].Val()); err != nil {
		return nil, errors.Wrapf(err, "key %q", keys.Acceleration)
	}
	var orientation *spatialmath.RotationMatrix
	if orientation, err = DecodeRotation(cmds[keys.Orientation].Val()); err != nil {
		return nil, errors.Wrapf(err, "key %q", keys.Orientation)
	}
	state.Pose.Orientation = orientation
	if state.AngularVelocity, err = DecodeVec3(cmds[keys.AngularVelocity].Val()); err != nil {
		return nil, errors.Wrapf(err, "key %q", keys.AngularVelocity)
	}
	if state.AngularAcceleration, err = DecodeVec3(cmds[keys.AngularAcceleration].Val()); err != nil {
		return nil, errors.Wrapf(err, "key %q", keys.AngularAcceleration)
	}
	if state.Jacobian, err = DecodeMatrix(cmds[keys.Jacobian].Val()); err != nil {
		return nil, errors.Wrapf(err, "key %q", keys.Jacobian)
	}

	if got := state.NumJoints(); got != e.numJoints {
		return nil, errors.Errorf("model snapshot has %d joints, expected %d", got, e.numJoints)
	}
	if err := state.Validate(); err != nil {
		return nil, errors.Wrap(err, "model snapshot")
	}
	return state, nil
}
