package trajectory

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/varununayak/robot-arm-crokinole/crokinole"
	"github.com/varununayak/robot-arm-crokinole/spatialmath"
)

// gatherYaw is how far the wrist yaws about vertical while approaching and
// sweeping the rim, lining the cue up behind the disc.
const gatherYaw = -math.Pi / 4

// Plan generates the Cartesian targets for one shot. It is immutable once
// built and its methods are pure functions of the phase time.
type Plan struct {
	schedule Schedule
	board    *crokinole.Geometry
	home     spatialmath.Pose
	target   r3.Vector
	hitYaw   float64

	cue         r3.Vector
	thetaCue    float64
	thetaTarget float64
}

// NewPlan builds the trajectory for one shot from the fixed calibration (board
// geometry, home pose, schedule) and the shot request.
func NewPlan(schedule Schedule, board *crokinole.Geometry, home spatialmath.Pose, shot crokinole.ShotRequest) (*Plan, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if home.Orientation == nil {
		return nil, errors.New("home pose needs an orientation")
	}
	if err := shot.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid shot request")
	}
	cue := board.CuePosition()
	return &Plan{
		schedule:    schedule,
		board:       board,
		home:        home,
		target:      shot.Target,
		hitYaw:      -math.Pi/2 + shot.Angle,
		cue:         cue,
		thetaCue:    board.RimAngle(cue),
		thetaTarget: board.RimAngle(shot.Target),
	}, nil
}

// Schedule returns the segment boundaries the plan was built with.
func (p *Plan) Schedule() Schedule {
	return p.schedule
}

// Home returns the pose the plan starts from and falls back to once the
// schedule is exhausted.
func (p *Plan) Home() spatialmath.Pose {
	return p.home
}

// PositionAt returns the desired cue position at phase time t.
func (p *Plan) PositionAt(t float64) r3.Vector {
	s := p.schedule
	switch {
	case inSegment(t, 0, s.ApproachEnd):
		// straight blend from home to the staging point on the rim
		frac := t / s.ApproachEnd
		return p.home.Position.Add(p.cue.Sub(p.home.Position).Mul(frac))
	case inSegment(t, s.ApproachEnd, s.GatherEnd):
		// sweep along the rim from the staging point to behind the disc
		frac := (t - s.ApproachEnd) / (s.GatherEnd - s.ApproachEnd)
		theta := p.thetaCue + (p.thetaTarget-p.thetaCue)*frac
		return p.board.RimPoint(theta)
	case inSegment(t, s.GatherEnd, s.StrikeEnd):
		// hold behind the disc while lining up and striking
		return p.target
	default:
		return p.home.Position
	}
}

// OrientationAt returns the desired cue orientation at phase time t.
func (p *Plan) OrientationAt(t float64) *spatialmath.RotationMatrix {
	s := p.schedule
	switch {
	case inSegment(t, 0, s.ApproachEnd):
		frac := t / s.ApproachEnd
		return spatialmath.RotationAboutZ(gatherYaw * frac).Mul(p.home.Orientation)
	case inSegment(t, s.ApproachEnd, s.GatherEnd):
		return spatialmath.RotationAboutZ(gatherYaw).Mul(p.home.Orientation)
	case inSegment(t, s.GatherEnd, s.StrikeEnd):
		// yaw to the requested hit angle for the line up and the strike
		return spatialmath.RotationAboutZ(p.hitYaw).Mul(p.home.Orientation)
	default:
		return p.home.Orientation
	}
}
