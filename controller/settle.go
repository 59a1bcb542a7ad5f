package controller

import (
	"github.com/golang/geo/r3"

	"github.com/varununayak/robot-arm-crokinole/config"
	"github.com/varununayak/robot-arm-crokinole/opspace"
)

// settled reports whether the control point has come to rest at the target.
// The weights lean heavily on the derivative terms, so settling means "motion
// has stopped near the target" more than "position is exact".
func settled(cfg config.SettleConfig, state *opspace.State, target r3.Vector) bool {
	norm := cfg.Weights.LinearVelocity*state.Velocity.Norm() +
		cfg.Weights.Position*state.Pose.Position.Sub(target).Norm() +
		cfg.Weights.LinearAcceleration*state.Acceleration.Norm() +
		cfg.Weights.AngularVelocity*state.AngularVelocity.Norm() +
		cfg.Weights.AngularAcceleration*state.AngularAcceleration.Norm()
	return norm < cfg.Tolerance
}
