package safety

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// Kind labels which bound a violation crossed.
type Kind string

const (
	KindPosition Kind = "position"
	KindVelocity Kind = "velocity"
	KindTorque   Kind = "torque"
)

// Violation records one joint crossing one bound on one control cycle.
type Violation struct {
	Joint int
	Kind  Kind
	Value float64
	Limit float64
}

// Monitor checks joint state against a set of limits each control cycle.
type Monitor struct {
	limits Limits
	logger golog.Logger
}

// NewMonitor validates the limits and returns a monitor logging through the
// given logger.
func NewMonitor(limits Limits, logger golog.Logger) (*Monitor, error) {
	if err := limits.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid joint limits")
	}
	return &Monitor{limits: limits, logger: logger}, nil
}

// Check compares one cycle of joint state against the limits, logging a
// warning per crossed bound. Values exactly at a bound do not violate it.
// The returned violations are for reporting only and must not gate torque.
func (m *Monitor) Check(positions, velocities, torques []float64) []Violation {
	n := m.limits.NumJoints()
	if len(positions) != n || len(velocities) != n || len(torques) != n {
		m.logger.Warnw(
			"joint state length mismatch, skipping limit check",
			"want", n, "positions", len(positions), "velocities", len(velocities), "torques", len(torques),
		)
		return nil
	}

	var violations []Violation
	for i := 0; i < n; i++ {
		if positions[i] > m.limits.PositionMax[i] {
			violations = m.record(violations, i, KindPosition, positions[i], m.limits.PositionMax[i])
		} else if positions[i] < m.limits.PositionMin[i] {
			violations = m.record(violations, i, KindPosition, positions[i], m.limits.PositionMin[i])
		}
		if math.Abs(velocities[i]) > m.limits.VelocityMax[i] {
			violations = m.record(violations, i, KindVelocity, velocities[i], m.limits.VelocityMax[i])
		}
		if math.Abs(torques[i]) > m.limits.TorqueMax[i] {
			violations = m.record(violations, i, KindTorque, torques[i], m.limits.TorqueMax[i])
		}
	}
	return violations
}

func (m *Monitor) record(violations []Violation, joint int, kind Kind, value, limit float64) []Violation {
	m.logger.Warnw("joint limit violated", "joint", joint, "kind", string(kind), "value", value, "limit", limit)
	return append(violations, Violation{Joint: joint, Kind: kind, Value: value, Limit: limit})
}
