package blackboard

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/edaniels/golog"
	"go.viam.com/test"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.Address = srv.Addr()
	client, err := New(context.Background(), cfg, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() {
		test.That(t, client.Close(), test.ShouldBeNil)
	})
	return client, srv
}

func TestNewRejectsBadConfig(t *testing.T) {
	logger := golog.NewTestLogger(t)

	cfg := DefaultConfig()
	cfg.Address = ""
	_, err := New(context.Background(), cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "address")

	cfg = DefaultConfig()
	cfg.Keys.Jacobian = ""
	_, err = New(context.Background(), cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "jacobian")
}

func TestNewRejectsUnreachableBlackboard(t *testing.T) {
	srv := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.Address = srv.Addr()
	srv.Close()

	_, err := New(context.Background(), cfg, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "connecting to blackboard")
}

func TestModeRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	_, err := client.Mode(ctx)
	test.That(t, IsNotFound(err), test.ShouldBeTrue)

	test.That(t, client.SetMode(ctx, ModeExecute), test.ShouldBeNil)
	mode, err := client.Mode(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mode, test.ShouldEqual, ModeExecute)
}

func TestShotKeys(t *testing.T) {
	client, srv := newTestClient(t)
	ctx := context.Background()
	keys := DefaultKeys()

	// nothing published yet
	_, err := client.ShotAngle(ctx)
	test.That(t, IsNotFound(err), test.ShouldBeTrue)
	_, err = client.ShotVelocity(ctx)
	test.That(t, IsNotFound(err), test.ShouldBeTrue)

	test.That(t, srv.Set(keys.ShotAngle, "1.5705"), test.ShouldBeNil)
	test.That(t, srv.Set(keys.ShotPosition, "120.5,-45"), test.ShouldBeNil)
	test.That(t, srv.Set(keys.ShotVelocity, "2.25"), test.ShouldBeNil)

	angle, err := client.ShotAngle(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, angle, test.ShouldEqual, 1.5705)

	// the planner publishes millimeters, the client hands out meters
	pos, err := client.ShotPosition(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pos.X, test.ShouldAlmostEqual, 0.1205)
	test.That(t, pos.Y, test.ShouldAlmostEqual, -0.045)

	velocity, err := client.ShotVelocity(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, velocity, test.ShouldEqual, 2.25)
}

func TestMalformedShotKeysAreErrors(t *testing.T) {
	client, srv := newTestClient(t)
	ctx := context.Background()
	keys := DefaultKeys()

	test.That(t, srv.Set(keys.ShotAngle, "sideways"), test.ShouldBeNil)
	_, err := client.ShotAngle(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, IsNotFound(err), test.ShouldBeFalse)
	test.That(t, err.Error(), test.ShouldContainSubstring, "parsing scalar")

	test.That(t, srv.Set(keys.ShotPosition, "1,2,3"), test.ShouldBeNil)
	_, err = client.ShotPosition(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "exactly two fields")
}

func TestSetCommandedTorques(t *testing.T) {
	client, srv := newTestClient(t)

	err := client.SetCommandedTorques(context.Background(), []float64{1, -2.5, 0, 3, 4, 5, 6.5})
	test.That(t, err, test.ShouldBeNil)

	raw, err := srv.Get(DefaultKeys().CommandedTorques)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw, test.ShouldEqual, "[1,-2.5,0,3,4,5,6.5]")
}

// publishSnapshot writes a full model snapshot for a seven joint arm with an
// identity mass matrix and a full rank jacobian.
func publishSnapshot(t *testing.T, srv *miniredis.Miniredis, keys Keys) {
	t.Helper()
	set := func(key string, value interface{}) {
		t.Helper()
		buf, err := json.Marshal(value)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, srv.Set(key, string(buf)), test.ShouldBeNil)
	}

	mass := make([][]float64, 7)
	for i := range mass {
		mass[i] = make([]float64, 7)
		mass[i][i] = 1
	}
	jacobian := make([][]float64, 6)
	for i := range jacobian {
		jacobian[i] = make([]float64, 7)
		jacobian[i][i] = 1
	}

	set(keys.JointPositions, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7})
	set(keys.JointVelocities, make([]float64, 7))
	set(keys.MassMatrix, mass)
	set(keys.Position, []float64{0.5, 0.1, 0.3})
	set(keys.Velocity, []float64{0, 0, 0})
	set(keys.Acceleration, []float64{0, 0, 0})
	set(keys.Orientation, [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	set(keys.AngularVelocity, []float64{0, 0, 0})
	set(keys.AngularAcceleration, []float64{0, 0, 0})
	set(keys.Jacobian, jacobian)
}

func TestEvaluatorReadsSnapshot(t *testing.T) {
	client, srv := newTestClient(t)
	eval, err := NewEvaluator(client, 7)
	test.That(t, err, test.ShouldBeNil)

	publishSnapshot(t, srv, DefaultKeys())
	state, err := eval.Evaluate(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, state.NumJoints(), test.ShouldEqual, 7)
	test.That(t, state.Positions[3], test.ShouldEqual, 0.4)
	test.That(t, state.Pose.Position.X, test.ShouldEqual, 0.5)
	test.That(t, state.Pose.Orientation, test.ShouldNotBeNil)
	rows, cols := state.Jacobian.Dims()
	test.That(t, rows, test.ShouldEqual, 6)
	test.That(t, cols, test.ShouldEqual, 7)
}

func TestEvaluatorMissingKey(t *testing.T) {
	client, srv := newTestClient(t)
	eval, err := NewEvaluator(client, 7)
	test.That(t, err, test.ShouldBeNil)

	publishSnapshot(t, srv, DefaultKeys())
	srv.Del(DefaultKeys().MassMatrix)
	_, err = eval.Evaluate(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "reading model snapshot")
}

func TestEvaluatorMalformedMatrix(t *testing.T) {
	client, srv := newTestClient(t)
	eval, err := NewEvaluator(client, 7)
	test.That(t, err, test.ShouldBeNil)

	publishSnapshot(t, srv, DefaultKeys())
	test.That(t, srv.Set(DefaultKeys().MassMatrix, "[[1,2],[3]]"), test.ShouldBeNil)
	_, err = eval.Evaluate(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "columns")
}

func TestEvaluatorJointCountMismatch(t *testing.T) {
	client, srv := newTestClient(t)

	_, err := NewEvaluator(client, 0)
	test.That(t, err, test.ShouldNotBeNil)

	eval, err := NewEvaluator(client, 9)
	test.That(t, err, test.ShouldBeNil)
	publishSnapshot(t, srv, DefaultKeys())
	_, err = eval.Evaluate(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected 9")
}
