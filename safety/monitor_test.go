package safety

import (
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"
)

func TestLimitsValidate(t *testing.T) {
	test.That(t, PandaLimits().Validate(), test.ShouldBeNil)
	test.That(t, PandaLimits().NumJoints(), test.ShouldEqual, 7)

	bad := PandaLimits()
	bad.VelocityMax = bad.VelocityMax[:6]
	test.That(t, bad.Validate(), test.ShouldNotBeNil)

	bad = PandaLimits()
	bad.PositionMin[2] = bad.PositionMax[2]
	test.That(t, bad.Validate(), test.ShouldNotBeNil)

	bad = PandaLimits()
	bad.TorqueMax[0] = 0
	test.That(t, bad.Validate(), test.ShouldNotBeNil)

	test.That(t, Limits{}.Validate(), test.ShouldNotBeNil)
}

func nominalState() ([]float64, []float64, []float64) {
	positions := []float64{0, 0, 0, -1.6, 0, 1.9, 0}
	velocities := make([]float64, 7)
	torques := make([]float64, 7)
	return positions, velocities, torques
}

func TestCheckNominal(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)
	m, err := NewMonitor(PandaLimits(), logger)
	test.That(t, err, test.ShouldBeNil)

	positions, velocities, torques := nominalState()
	test.That(t, m.Check(positions, velocities, torques), test.ShouldHaveLength, 0)
	test.That(t, logs.Len(), test.ShouldEqual, 0)
}

func TestCheckExactlyAtBound(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)
	m, err := NewMonitor(PandaLimits(), logger)
	test.That(t, err, test.ShouldBeNil)

	// sitting exactly on a bound is not a violation
	positions, velocities, torques := nominalState()
	positions[0] = 2.7
	velocities[4] = -2.5
	torques[6] = 10
	test.That(t, m.Check(positions, velocities, torques), test.ShouldHaveLength, 0)
	test.That(t, logs.Len(), test.ShouldEqual, 0)
}

func TestCheckViolations(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)
	m, err := NewMonitor(PandaLimits(), logger)
	test.That(t, err, test.ShouldBeNil)

	positions, velocities, torques := nominalState()
	positions[1] = 1.7
	positions[3] = -3.2
	velocities[5] = -2.6
	torques[0] = -90

	violations := m.Check(positions, velocities, torques)
	test.That(t, violations, test.ShouldHaveLength, 4)
	test.That(t, violations[0], test.ShouldResemble, Violation{Joint: 0, Kind: KindTorque, Value: -90, Limit: 85})
	test.That(t, violations[1], test.ShouldResemble, Violation{Joint: 1, Kind: KindPosition, Value: 1.7, Limit: 1.6})
	test.That(t, violations[2], test.ShouldResemble, Violation{Joint: 3, Kind: KindPosition, Value: -3.2, Limit: -3.0})
	test.That(t, violations[3], test.ShouldResemble, Violation{Joint: 5, Kind: KindVelocity, Value: -2.6, Limit: 2.5})
	test.That(t, logs.FilterMessageSnippet("joint limit violated").Len(), test.ShouldEqual, 4)
}

func TestCheckLengthMismatch(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)
	m, err := NewMonitor(PandaLimits(), logger)
	test.That(t, err, test.ShouldBeNil)

	positions, velocities, _ := nominalState()
	test.That(t, m.Check(positions, velocities, []float64{0}), test.ShouldBeNil)
	test.That(t, logs.FilterMessageSnippet("length mismatch").Len(), test.ShouldEqual, 1)
}
