// Package controller runs the shot cycle: a fixed frequency loop that reads
// the arm's state, walks the shot state machine, and commands torques through
// the blackboard.
package controller

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/varununayak/robot-arm-crokinole/blackboard"
	"github.com/varununayak/robot-arm-crokinole/config"
	"github.com/varununayak/robot-arm-crokinole/crokinole"
	"github.com/varununayak/robot-arm-crokinole/opspace"
	"github.com/varununayak/robot-arm-crokinole/safety"
	"github.com/varununayak/robot-arm-crokinole/spatialmath"
	"github.com/varununayak/robot-arm-crokinole/timing"
	"github.com/varununayak/robot-arm-crokinole/trajectory"
)

// logEveryN spaces the periodic cycle log, half a second at the nominal rate.
const logEveryN = 500

// Blackboard is the slice of the shared store the controller needs: shot
// requests in, torques out.
type Blackboard interface {
	Mode(ctx context.Context) (string, error)
	SetMode(ctx context.Context, mode string) error
	ShotAngle(ctx context.Context) (float64, error)
	ShotPosition(ctx context.Context) (r3.Vector, error)
	ShotVelocity(ctx context.Context) (float64, error)
	SetCommandedTorques(ctx context.Context, torques []float64) error
}

// controlMode splits parked from shot execution.
type controlMode int

const (
	modeWait controlMode = iota
	modeExecute
)

func (m controlMode) String() string {
	if m == modeExecute {
		return "execute"
	}
	return "wait"
}

// taskState names the sub state driving the arm while a shot executes.
type taskState int

const (
	stateHoming taskState = iota
	stateTracking
	stateStriking
)

func (s taskState) String() string {
	switch s {
	case stateTracking:
		return "tracking"
	case stateStriking:
		return "striking"
	default:
		return "homing"
	}
}

// Controller owns the shot state machine and the task hierarchy. All of its
// state belongs to the control loop; its methods are not safe for concurrent
// use.
type Controller struct {
	cfg    *config.Config
	logger golog.Logger

	bb        Blackboard
	evaluator opspace.Evaluator
	monitor   *safety.Monitor
	clk       clock.Clock

	board *crokinole.Geometry
	home  spatialmath.Pose

	jointTask  *opspace.JointTask
	posoriTask *opspace.PosOriTask
	hierarchy  *opspace.Hierarchy

	mode  controlMode
	state taskState
	// phaseStart anchors the tracking phase clock, strikeStart the strike's
	// own clock.
	phaseStart  time.Time
	strikeStart time.Time
	cycles      uint64

	shot     crokinole.ShotRequest
	centered bool
	plan     *trajectory.Plan
	strike   trajectory.StrikeProfile
}

// New wires a controller from its collaborators. The config is validated and
// the task hierarchy built here; the loop itself starts with Run.
func New(
	cfg *config.Config,
	bb Blackboard,
	evaluator opspace.Evaluator,
	clk clock.Clock,
	logger golog.Logger,
) (*Controller, error) {
	if err := cfg.Ensure(); err != nil {
		return nil, err
	}
	board, err := cfg.Board.Build()
	if err != nil {
		return nil, err
	}
	home, err := cfg.Home.Pose()
	if err != nil {
		return nil, err
	}
	monitor, err := safety.NewMonitor(cfg.Limits, logger)
	if err != nil {
		return nil, err
	}

	jointTask := opspace.NewJointTask(cfg.NumJoints, cfg.Gains.Wait.Kp, cfg.Gains.Wait.Kv)
	jointTask.SetRegularization(cfg.Regularization.JointInertia)
	if err := jointTask.SetTarget(cfg.Postures.InitialRad); err != nil {
		return nil, err
	}
	if err := jointTask.SetVelocitySaturation(uniformLimits(cfg.NumJoints, cfg.Saturation.JointRadS)); err != nil {
		return nil, err
	}

	posoriTask := opspace.NewPosOriTask(cfg.NumJoints, cfg.Gains.Tracking.PosOri.Task())
	posoriTask.SetRegularization(cfg.Regularization.TaskInertia)
	posoriTask.SetVelocitySaturation(cfg.Saturation.LinearMPS, cfg.Saturation.AngularRadS)
	posoriTask.SetTarget(home)

	hierarchy, err := opspace.NewHierarchy(cfg.NumJoints, posoriTask, jointTask)
	if err != nil {
		return nil, err
	}

	return &Controller{
		cfg:        cfg,
		logger:     logger,
		bb:         bb,
		evaluator:  evaluator,
		monitor:    monitor,
		clk:        clk,
		board:      board,
		home:       home,
		jointTask:  jointTask,
		posoriTask: posoriTask,
		hierarchy:  hierarchy,
		mode:       modeWait,
		state:      stateHoming,
	}, nil
}

// Run drives the control loop until ctx ends or a cycle fails. On the way out
// the commanded torques are zeroed once, leaving the arm limp rather than
// holding its last command.
func (c *Controller) Run(ctx context.Context) error {
	pacer, err := timing.NewPacer(c.clk, c.cfg.FrequencyHz)
	if err != nil {
		return err
	}
	defer pacer.Stop()
	defer func() {
		zeroCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := c.bb.SetCommandedTorques(zeroCtx, make([]float64, c.cfg.NumJoints)); err != nil {
			c.logger.Errorw("failed to zero torques on shutdown", "error", err)
		}
	}()

	c.logger.Infow("controller running", "frequency_hz", c.cfg.FrequencyHz, "period", pacer.Period())
	tracker := timing.NewTracker(c.clk, pacer.Period())
	tracker.Tick()
	for pacer.Wait(ctx) {
		if err := c.step(ctx); err != nil {
			return err
		}
		tracker.Tick()
	}

	if report, err := tracker.Report(); err == nil {
		c.logger.Infow("controller stopped",
			"cycles", report.Cycles,
			"elapsed", report.Elapsed,
			"achieved_hz", report.FrequencyHz,
			"overruns", report.Overruns,
			"p99", report.P99,
			"max", report.Max)
	} else {
		c.logger.Infow("controller stopped before completing a cycle")
	}
	return nil
}

// step executes one control cycle.
func (c *Controller) step(ctx context.Context) error {
	state, err := c.evaluator.Evaluate(ctx)
	if err != nil {
		return errors.Wrap(err, "evaluating model")
	}
	if state.NumJoints() != c.cfg.NumJoints {
		return errors.Errorf("model reports %d joints, configured for %d", state.NumJoints(), c.cfg.NumJoints)
	}

	var torques []float64
	if c.mode == modeWait {
		torques, err = c.stepWait(ctx, state)
	} else {
		torques, err = c.stepExecute(ctx, state)
	}
	if err != nil {
		return err
	}

	c.monitor.Check(state.Positions, state.Velocities, torques)
	if err := c.bb.SetCommandedTorques(ctx, torques); err != nil {
		return errors.Wrap(err, "publishing torques")
	}

	c.cycles++
	if c.cycles%logEveryN == 0 {
		c.logger.Debugw("cycle",
			"count", c.cycles, "mode", c.mode.String(), "state", c.state.String(), "t", c.phaseTime())
	}
	return nil
}

// phaseTime is the tracking clock, seconds since the current phase began.
func (c *Controller) phaseTime() float64 {
	if c.phaseStart.IsZero() {
		return 0
	}
	return c.clk.Since(c.phaseStart).Seconds()
}

// stepWait holds the park posture and watches for the planner's execute
// directive.
func (c *Controller) stepWait(ctx context.Context, state *opspace.State) ([]float64, error) {
	torques, err := c.postureTorques(state)
	if err != nil {
		return nil, err
	}

	mode, err := c.bb.Mode(ctx)
	switch {
	case err != nil && blackboard.IsNotFound(err):
		// no planner yet, keep holding
	case err != nil:
		return nil, errors.Wrap(err, "reading mode")
	case mode == blackboard.ModeExecute:
		if err := c.beginShot(ctx); err != nil {
			return nil, err
		}
	}
	return torques, nil
}

// beginShot captures the planner's request and starts the homing phase.
func (c *Controller) beginShot(ctx context.Context) error {
	shot, err := c.captureShot(ctx)
	if err != nil {
		return errors.Wrap(err, "capturing shot request")
	}
	plan, err := trajectory.NewPlan(c.cfg.Schedule, c.board, c.home, shot)
	if err != nil {
		return err
	}

	c.shot = shot
	c.centered = shot.CenterShot()
	c.plan = plan
	c.strike = nil
	c.mode = modeExecute
	c.state = stateHoming
	c.phaseStart = c.clk.Now()

	c.jointTask.SetGains(c.cfg.Gains.Homing.Kp, c.cfg.Gains.Homing.Kv)
	if err := c.jointTask.SetTarget(c.cfg.Postures.InitialRad); err != nil {
		return err
	}
	c.logger.Infow("executing shot",
		"angle", shot.Angle,
		"target", shot.Target,
		"hit_velocity", shot.HitVelocity,
		"centered", c.centered)
	return nil
}

// captureShot reads the planner's values. A missing hit velocity falls back
// to the configured default; a missing or malformed position or angle is an
// error.
func (c *Controller) captureShot(ctx context.Context) (crokinole.ShotRequest, error) {
	boardTarget, err := c.bb.ShotPosition(ctx)
	if err != nil {
		return crokinole.ShotRequest{}, err
	}
	angle, err := c.bb.ShotAngle(ctx)
	if err != nil {
		return crokinole.ShotRequest{}, err
	}
	velocity, err := c.bb.ShotVelocity(ctx)
	if err != nil {
		if !blackboard.IsNotFound(err) {
			return crokinole.ShotRequest{}, err
		}
		velocity = c.cfg.DefaultHitVelocity
		c.logger.Debugw("no hit velocity published, using default", "default", velocity)
	}

	shot := crokinole.ShotRequest{
		Angle:       angle,
		Target:      c.board.TargetPosition(boardTarget),
		HitVelocity: velocity,
	}
	if err := shot.Validate(); err != nil {
		return crokinole.ShotRequest{}, err
	}
	return shot, nil
}

func (c *Controller) stepExecute(ctx context.Context, state *opspace.State) ([]float64, error) {
	switch c.state {
	case stateHoming:
		return c.stepHoming(state)
	case stateTracking:
		return c.stepTracking(ctx, state)
	case stateStriking:
		return c.stepStriking(state)
	}
	return nil, errors.Errorf("unknown task state %d", int(c.state))
}

// stepHoming drives the arm to the pre shot posture, then hands off to
// tracking.
func (c *Controller) stepHoming(state *opspace.State) ([]float64, error) {
	torques, err := c.postureTorques(state)
	if err != nil {
		return nil, err
	}
	if floats.Distance(state.Positions, c.cfg.Postures.InitialRad, 2) < c.cfg.Settle.JointToleranceRad {
		c.enterTracking()
	}
	return torques, nil
}

func (c *Controller) enterTracking() {
	c.phaseStart = c.clk.Now()
	c.posoriTask.SetGains(c.cfg.Gains.Tracking.PosOri.Task())
	c.posoriTask.SetTarget(spatialmath.Pose{
		Position:    c.plan.PositionAt(0),
		Orientation: c.plan.OrientationAt(0),
	})
	c.jointTask.SetGains(c.cfg.Gains.Tracking.Joint.Kp, c.cfg.Gains.Tracking.Joint.Kv)
	c.state = stateTracking
	c.logger.Infow("reached pre shot posture, tracking")
}

// stepTracking follows the shot trajectory with the full hierarchy. The
// completion check runs before the strike entry check so a finished shot can
// never re-arm a strike.
func (c *Controller) stepTracking(ctx context.Context, state *opspace.State) ([]float64, error) {
	t := c.phaseTime()
	c.posoriTask.SetTarget(spatialmath.Pose{
		Position:    c.plan.PositionAt(t),
		Orientation: c.plan.OrientationAt(t),
	})
	if err := c.jointTask.SetTarget(c.cfg.Postures.SafeRad); err != nil {
		return nil, err
	}

	torques, err := c.hierarchy.ComputeTorques(state)
	if err != nil {
		return nil, err
	}

	schedule := c.plan.Schedule()
	switch {
	case t > schedule.StrikeEnd && settled(c.cfg.Settle, state, c.plan.Home().Position):
		err = c.finishShot(ctx)
	case c.strike == nil && schedule.InStrikeWindow(t):
		err = c.enterStrike(state)
	}
	if err != nil {
		return nil, err
	}
	return torques, nil
}

// finishShot parks the arm and hands the board back to the planner.
func (c *Controller) finishShot(ctx context.Context) error {
	c.logger.Infow("shot complete, parking", "cycles", c.cycles)
	c.mode = modeWait
	c.state = stateHoming
	c.plan = nil
	c.strike = nil

	c.jointTask.SetGains(c.cfg.Gains.Wait.Kp, c.cfg.Gains.Wait.Kv)
	if err := c.jointTask.SetTarget(c.cfg.Postures.InitialRad); err != nil {
		return err
	}
	if err := c.jointTask.SetVelocitySaturation(uniformLimits(c.cfg.NumJoints, c.cfg.Saturation.JointRadS)); err != nil {
		return err
	}
	return c.bb.SetMode(ctx, blackboard.ModeWait)
}

// enterStrike freezes the posture at the current configuration and builds the
// profile that swings the wrist, from the wrist's current angle as midpoint.
func (c *Controller) enterStrike(state *opspace.State) error {
	wrist := state.Positions[c.cfg.NumJoints-1]
	profile, err := c.cfg.Strike.Trajectory().Build(wrist, c.shot.HitVelocity, c.plan.Schedule().StrikeWindow())
	if err != nil {
		return err
	}
	if err := c.jointTask.Reinitialize(state); err != nil {
		return err
	}
	c.jointTask.SetGains(c.cfg.Gains.Strike.Kp, c.cfg.Gains.Strike.Kv)
	if err := c.jointTask.SetVelocitySaturation(c.cfg.Saturation.StrikeSaturation(c.centered)); err != nil {
		return err
	}

	c.strike = profile
	c.strikeStart = c.clk.Now()
	c.state = stateStriking
	c.logger.Infow("striking",
		"midpoint", wrist,
		"hit_velocity", c.shot.HitVelocity,
		"centered", c.centered,
		"duration", profile.End())
	return nil
}

// stepStriking runs the posture task alone, the wrist following the strike
// profile on the strike's own clock.
func (c *Controller) stepStriking(state *opspace.State) ([]float64, error) {
	t := c.clk.Since(c.strikeStart).Seconds()
	wrist := c.cfg.NumJoints - 1
	if err := c.jointTask.SetJointTarget(wrist, c.strike.AngleAt(t)); err != nil {
		return nil, err
	}
	if err := c.jointTask.SetJointTargetVelocity(wrist, c.strike.VelocityAt(t)); err != nil {
		return nil, err
	}
	if t >= c.strike.End() {
		if err := c.exitStrike(); err != nil {
			return nil, err
		}
	}
	return c.postureTorques(state)
}

// exitStrike rejoins the tracking clock at the strike window boundary, so the
// generator falls through to the home target and the completion check can
// fire once the arm settles there.
func (c *Controller) exitStrike() error {
	schedule := c.plan.Schedule()
	c.phaseStart = c.clk.Now().Add(-time.Duration(schedule.StrikeEnd * float64(time.Second)))
	c.state = stateTracking

	c.posoriTask.SetGains(c.cfg.Gains.Return.PosOri.Task())
	c.posoriTask.SetTarget(spatialmath.Pose{
		Position:    c.plan.PositionAt(schedule.StrikeEnd),
		Orientation: c.plan.OrientationAt(schedule.StrikeEnd),
	})
	c.jointTask.SetGains(c.cfg.Gains.Return.Joint.Kp, c.cfg.Gains.Return.Joint.Kv)
	if err := c.jointTask.SetVelocitySaturation(uniformLimits(c.cfg.NumJoints, c.cfg.Saturation.ReturnRadS)); err != nil {
		return err
	}
	c.logger.Infow("strike done, returning home")
	return nil
}

// postureTorques runs the posture task alone against the unconstrained
// projector.
func (c *Controller) postureTorques(state *opspace.State) ([]float64, error) {
	if err := c.jointTask.UpdateModel(state, opspace.Identity(c.cfg.NumJoints)); err != nil {
		return nil, err
	}
	return c.jointTask.ComputeTorques(state)
}

func uniformLimits(n int, limit float64) []float64 {
	limits := make([]float64, n)
	for i := range limits {
		limits[i] = limit
	}
	return limits
}
