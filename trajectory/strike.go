package trajectory

import (
	"math"

	"github.com/pkg/errors"
)

// Strike tunables shared by the profile kinds. Offsets and angles are radians,
// durations seconds. The lever length is the distance from the striking joint
// axis to the cue tip, which converts tip speed to joint rate.
const (
	DefaultBackswingOffset       = math.Pi / 24
	DefaultFollowThroughOffset   = -math.Pi / 4
	DefaultFollowThroughDuration = 1.3
	DefaultSwingAngle            = 120 * math.Pi / 180
	DefaultLeverLength           = 17.70 * 0.0254
)

// ProfileKind selects how the striking joint is driven through the swing.
type ProfileKind string

const (
	// ProfileStep holds a backswing target then steps it across to the follow
	// through target, letting velocity saturation shape the swing.
	ProfileStep ProfileKind = "step"
	// ProfileSinusoid swings smoothly through the midpoint, peaking at the
	// requested tip velocity.
	ProfileSinusoid ProfileKind = "sinusoid"
	// ProfileRamp drives the joint at a constant rate from backswing to follow
	// through.
	ProfileRamp ProfileKind = "ramp"
)

// StrikeProfile maps the time since strike entry to a target for the striking
// joint. Implementations are pure functions of time.
type StrikeProfile interface {
	// AngleAt returns the desired joint angle t seconds into the strike.
	AngleAt(t float64) float64
	// VelocityAt returns the desired joint velocity t seconds into the strike.
	VelocityAt(t float64) float64
	// End returns the duration after which the strike is finished.
	End() float64
}

// StrikeConfig collects the tunables the profiles draw from.
type StrikeConfig struct {
	Kind                  ProfileKind
	SwingAngle            float64
	BackswingOffset       float64
	FollowThroughOffset   float64
	FollowThroughDuration float64
	LeverLength           float64
}

// DefaultStrikeConfig returns the step profile with the match play tuning.
func DefaultStrikeConfig() StrikeConfig {
	return StrikeConfig{
		Kind:                  ProfileStep,
		SwingAngle:            DefaultSwingAngle,
		BackswingOffset:       DefaultBackswingOffset,
		FollowThroughOffset:   DefaultFollowThroughOffset,
		FollowThroughDuration: DefaultFollowThroughDuration,
		LeverLength:           DefaultLeverLength,
	}
}

// Validate checks the tunables needed by any of the profile kinds.
func (c StrikeConfig) Validate() error {
	switch c.Kind {
	case ProfileStep, ProfileSinusoid, ProfileRamp, "":
	default:
		return errors.Errorf("unknown strike profile kind %q", c.Kind)
	}
	if c.LeverLength <= 0 {
		return errors.Errorf("lever length must be positive, got %f", c.LeverLength)
	}
	if c.SwingAngle <= 0 {
		return errors.Errorf("swing angle must be positive, got %f", c.SwingAngle)
	}
	if c.FollowThroughDuration <= 0 {
		return errors.Errorf("follow through duration must be positive, got %f", c.FollowThroughDuration)
	}
	if c.BackswingOffset == c.FollowThroughOffset {
		return errors.New("backswing and follow through offsets must differ")
	}
	return nil
}

// Build creates the profile for one strike from the captured midpoint angle,
// the requested tip velocity, and the strike window length that times the
// backswing. An empty kind builds the step profile.
func (c StrikeConfig) Build(mid, hitVelocity, backswing float64) (StrikeProfile, error) {
	switch c.Kind {
	case ProfileStep, "":
		return NewStepProfile(mid, c.BackswingOffset, c.FollowThroughOffset, backswing, c.FollowThroughDuration)
	case ProfileSinusoid:
		return NewSinusoidProfile(mid, c.SwingAngle, hitVelocity, c.LeverLength)
	case ProfileRamp:
		return NewRampProfile(mid, c.BackswingOffset, c.FollowThroughOffset, hitVelocity, c.LeverLength)
	default:
		return nil, errors.Errorf("unknown strike profile kind %q", c.Kind)
	}
}

// StepProfile cocks the joint back by a small offset, then steps the target
// across to the follow through offset. The swing speed comes entirely from the
// posture task's velocity saturation.
type StepProfile struct {
	mid             float64
	backswingOffset float64
	followOffset    float64
	backswing       float64
	follow          float64
}

// NewStepProfile creates a step profile around the captured midpoint angle.
func NewStepProfile(mid, backswingOffset, followOffset, backswing, follow float64) (*StepProfile, error) {
	if backswing <= 0 || follow <= 0 {
		return nil, errors.Errorf("step profile durations must be positive, got %f and %f", backswing, follow)
	}
	return &StepProfile{
		mid:             mid,
		backswingOffset: backswingOffset,
		followOffset:    followOffset,
		backswing:       backswing,
		follow:          follow,
	}, nil
}

// AngleAt returns the backswing target until the backswing elapses, then the
// follow through target.
func (p *StepProfile) AngleAt(t float64) float64 {
	if t < p.backswing {
		return p.mid + p.backswingOffset
	}
	return p.mid + p.followOffset
}

// VelocityAt is always zero for the step profile.
func (p *StepProfile) VelocityAt(float64) float64 {
	return 0
}

// End returns when the follow through elapses.
func (p *StepProfile) End() float64 {
	return p.backswing + p.follow
}

// SinusoidProfile swings the joint through a half sine centered on the
// midpoint angle, crossing it at the requested tip velocity.
type SinusoidProfile struct {
	mid       float64
	amplitude float64
	rate      float64
}

// NewSinusoidProfile derives the swing amplitude and rate from the requested
// tip velocity and the lever length.
func NewSinusoidProfile(mid, swingAngle, hitVelocity, leverLength float64) (*SinusoidProfile, error) {
	if swingAngle <= 0 || hitVelocity <= 0 || leverLength <= 0 {
		return nil, errors.Errorf(
			"sinusoid profile needs positive swing, velocity and lever, got %f, %f, %f",
			swingAngle, hitVelocity, leverLength,
		)
	}
	amplitude := swingAngle / 2
	omega := hitVelocity / leverLength
	return &SinusoidProfile{mid: mid, amplitude: amplitude, rate: omega / amplitude}, nil
}

// AngleAt starts at full backswing and sweeps through the midpoint to full
// follow through.
func (p *SinusoidProfile) AngleAt(t float64) float64 {
	return -p.amplitude*math.Sin(p.rate*t-math.Pi/2) + p.mid
}

// VelocityAt peaks at the midpoint crossing.
func (p *SinusoidProfile) VelocityAt(t float64) float64 {
	return -p.amplitude * p.rate * math.Cos(p.rate*t-math.Pi/2)
}

// End returns the half period that carries the joint across the swing.
func (p *SinusoidProfile) End() float64 {
	return math.Pi / p.rate
}

// RampProfile drives the joint linearly from the backswing angle to the follow
// through angle at the joint rate matching the requested tip velocity.
type RampProfile struct {
	start    float64
	end      float64
	duration float64
}

// NewRampProfile creates a ramp between the two offsets around the midpoint.
func NewRampProfile(mid, backswingOffset, followOffset, hitVelocity, leverLength float64) (*RampProfile, error) {
	if hitVelocity <= 0 || leverLength <= 0 {
		return nil, errors.Errorf("ramp profile needs positive velocity and lever, got %f and %f", hitVelocity, leverLength)
	}
	start := mid + backswingOffset
	end := mid + followOffset
	span := math.Abs(end - start)
	if span == 0 {
		return nil, errors.New("ramp profile offsets must differ")
	}
	return &RampProfile{start: start, end: end, duration: span * leverLength / hitVelocity}, nil
}

// AngleAt interpolates linearly, holding the end angle once the ramp elapses.
func (p *RampProfile) AngleAt(t float64) float64 {
	if t >= p.duration {
		return p.end
	}
	return p.start + (p.end-p.start)*t/p.duration
}

// VelocityAt is the constant ramp rate until the ramp elapses.
func (p *RampProfile) VelocityAt(t float64) float64 {
	if t >= p.duration {
		return 0
	}
	return (p.end - p.start) / p.duration
}

// End returns the ramp duration.
func (p *RampProfile) End() float64 {
	return p.duration
}
