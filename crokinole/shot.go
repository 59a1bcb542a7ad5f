package crokinole

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Center shots are requested with a heading of pi/2, shooting straight across
// the board. Vision publishes the heading with finite precision so a narrow
// band around pi/2 is treated as center.
const (
	CenterShotMin = 1.569
	CenterShotMax = 1.571
)

// ShotRequest is one shot as requested over the blackboard: the cue heading,
// the disc target in the robot frame, and how fast the cue tip should be
// moving at contact.
type ShotRequest struct {
	Angle       float64
	Target      r3.Vector
	HitVelocity float64
}

// CenterShot reports whether the heading asks for the straight-ahead shot,
// which strikes with a tighter follow-through.
func (s ShotRequest) CenterShot() bool {
	return s.Angle >= CenterShotMin && s.Angle <= CenterShotMax
}

// Validate checks that the request is physically executable.
func (s ShotRequest) Validate() error {
	if math.IsNaN(s.Angle) || math.IsInf(s.Angle, 0) {
		return errors.New("shot angle must be finite")
	}
	for _, v := range []float64{s.Target.X, s.Target.Y, s.Target.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("shot target must be finite")
		}
	}
	if s.HitVelocity <= 0 || math.IsNaN(s.HitVelocity) || math.IsInf(s.HitVelocity, 0) {
		return errors.Errorf("hit velocity must be positive, got %f", s.HitVelocity)
	}
	return nil
}
