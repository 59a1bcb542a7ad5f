// Package safety watches joint state against the arm's limits. The monitor is
// advisory: it reports and logs violations but never alters the commanded
// torques, since the arm's own reflex layer is the enforcement authority.
package safety

import (
	"math"

	"github.com/pkg/errors"
)

// Limits holds per joint bounds. Position bounds are signed, velocity and
// torque bounds are magnitudes.
type Limits struct {
	PositionMax []float64 `json:"position_max"`
	PositionMin []float64 `json:"position_min"`
	VelocityMax []float64 `json:"velocity_max"`
	TorqueMax   []float64 `json:"torque_max"`
}

// PandaLimits returns monitoring bounds for the 7 DoF Panda, drawn in from
// the datasheet limits to leave margin for the reflex layer.
func PandaLimits() Limits {
	return Limits{
		PositionMax: []float64{2.7, 1.6, 2.7, -0.2, 2.7, 3.6, 2.7},
		PositionMin: []float64{-2.7, -1.6, -2.7, -3.0, -2.7, 0.2, -2.7},
		VelocityMax: []float64{2.0, 2.0, 2.0, 2.0, 2.5, 2.5, 2.5},
		TorqueMax:   []float64{85, 85, 85, 85, 10, 10, 10},
	}
}

// NumJoints returns how many joints the limits cover.
func (l Limits) NumJoints() int {
	return len(l.PositionMax)
}

// Validate checks that the limit slices agree in length and are ordered.
func (l Limits) Validate() error {
	n := len(l.PositionMax)
	if n == 0 {
		return errors.New("limits must cover at least one joint")
	}
	if len(l.PositionMin) != n || len(l.VelocityMax) != n || len(l.TorqueMax) != n {
		return errors.Errorf(
			"limit slices must agree in length, got %d/%d/%d/%d",
			len(l.PositionMax), len(l.PositionMin), len(l.VelocityMax), len(l.TorqueMax),
		)
	}
	for i := 0; i < n; i++ {
		if l.PositionMin[i] >= l.PositionMax[i] {
			return errors.Errorf("joint %d position bounds are inverted", i)
		}
		if l.VelocityMax[i] <= 0 || math.IsNaN(l.VelocityMax[i]) {
			return errors.Errorf("joint %d velocity limit must be positive", i)
		}
		if l.TorqueMax[i] <= 0 || math.IsNaN(l.TorqueMax[i]) {
			return errors.Errorf("joint %d torque limit must be positive", i)
		}
	}
	return nil
}
