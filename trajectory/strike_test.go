package trajectory

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestStrikeConfigValidate(t *testing.T) {
	test.That(t, DefaultStrikeConfig().Validate(), test.ShouldBeNil)

	bad := DefaultStrikeConfig()
	bad.Kind = "minjerk"
	test.That(t, bad.Validate(), test.ShouldNotBeNil)

	bad = DefaultStrikeConfig()
	bad.LeverLength = 0
	test.That(t, bad.Validate(), test.ShouldNotBeNil)

	bad = DefaultStrikeConfig()
	bad.FollowThroughDuration = -1
	test.That(t, bad.Validate(), test.ShouldNotBeNil)

	bad = DefaultStrikeConfig()
	bad.FollowThroughOffset = bad.BackswingOffset
	test.That(t, bad.Validate(), test.ShouldNotBeNil)
}

func TestStepProfile(t *testing.T) {
	mid := -0.83
	p, err := NewStepProfile(mid, DefaultBackswingOffset, DefaultFollowThroughOffset, 1.0, 1.3)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, p.AngleAt(0), test.ShouldAlmostEqual, mid+math.Pi/24, 1e-12)
	test.That(t, p.AngleAt(0.999), test.ShouldAlmostEqual, mid+math.Pi/24, 1e-12)

	// the backswing boundary belongs to the follow through
	test.That(t, p.AngleAt(1.0), test.ShouldAlmostEqual, mid-math.Pi/4, 1e-12)
	test.That(t, p.AngleAt(2.0), test.ShouldAlmostEqual, mid-math.Pi/4, 1e-12)

	test.That(t, p.VelocityAt(0.5), test.ShouldEqual, 0)
	test.That(t, p.End(), test.ShouldAlmostEqual, 2.3, 1e-12)

	_, err = NewStepProfile(mid, DefaultBackswingOffset, DefaultFollowThroughOffset, 0, 1.3)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewStepProfile(mid, DefaultBackswingOffset, DefaultFollowThroughOffset, 1.0, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSinusoidProfile(t *testing.T) {
	mid := -0.83
	hitVelocity := 1.5
	p, err := NewSinusoidProfile(mid, DefaultSwingAngle, hitVelocity, DefaultLeverLength)
	test.That(t, err, test.ShouldBeNil)

	amplitude := DefaultSwingAngle / 2
	omega := hitVelocity / DefaultLeverLength

	// starts at full backswing and ends at full follow through
	test.That(t, p.AngleAt(0), test.ShouldAlmostEqual, mid+amplitude, 1e-12)
	test.That(t, p.AngleAt(p.End()), test.ShouldAlmostEqual, mid-amplitude, 1e-9)

	// momentarily at rest at the ends, crossing the midpoint at the hit rate
	test.That(t, p.VelocityAt(0), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, p.AngleAt(p.End()/2), test.ShouldAlmostEqual, mid, 1e-9)
	test.That(t, p.VelocityAt(p.End()/2), test.ShouldAlmostEqual, -omega, 1e-9)

	_, err = NewSinusoidProfile(mid, 0, hitVelocity, DefaultLeverLength)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewSinusoidProfile(mid, DefaultSwingAngle, -1, DefaultLeverLength)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRampProfile(t *testing.T) {
	mid := -0.83
	hitVelocity := 1.5
	p, err := NewRampProfile(mid, DefaultBackswingOffset, DefaultFollowThroughOffset, hitVelocity, DefaultLeverLength)
	test.That(t, err, test.ShouldBeNil)

	span := math.Abs(DefaultFollowThroughOffset - DefaultBackswingOffset)
	wantDuration := span * DefaultLeverLength / hitVelocity
	test.That(t, p.End(), test.ShouldAlmostEqual, wantDuration, 1e-12)

	test.That(t, p.AngleAt(0), test.ShouldAlmostEqual, mid+DefaultBackswingOffset, 1e-12)
	test.That(t, p.AngleAt(p.End()), test.ShouldAlmostEqual, mid+DefaultFollowThroughOffset, 1e-12)
	test.That(t, p.AngleAt(p.End()*2), test.ShouldAlmostEqual, mid+DefaultFollowThroughOffset, 1e-12)

	halfway := mid + DefaultBackswingOffset + (DefaultFollowThroughOffset-DefaultBackswingOffset)/2
	test.That(t, p.AngleAt(p.End()/2), test.ShouldAlmostEqual, halfway, 1e-12)

	test.That(t, p.VelocityAt(p.End()/2), test.ShouldAlmostEqual, -span/wantDuration, 1e-12)
	test.That(t, p.VelocityAt(p.End()), test.ShouldEqual, 0)

	_, err = NewRampProfile(mid, 0.1, 0.1, hitVelocity, DefaultLeverLength)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestStrikeConfigBuild(t *testing.T) {
	cfg := DefaultStrikeConfig()

	p, err := cfg.Build(-0.83, 1.5, 1.0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldHaveSameTypeAs, &StepProfile{})

	cfg.Kind = ""
	p, err = cfg.Build(-0.83, 1.5, 1.0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldHaveSameTypeAs, &StepProfile{})

	cfg.Kind = ProfileSinusoid
	p, err = cfg.Build(-0.83, 1.5, 1.0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldHaveSameTypeAs, &SinusoidProfile{})

	cfg.Kind = ProfileRamp
	p, err = cfg.Build(-0.83, 1.5, 1.0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldHaveSameTypeAs, &RampProfile{})

	cfg.Kind = "minjerk"
	_, err = cfg.Build(-0.83, 1.5, 1.0)
	test.That(t, err, test.ShouldNotBeNil)
}
