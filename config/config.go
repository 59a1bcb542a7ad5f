// Package config describes the full runtime configuration of the crokinole
// controller and reads it from disk over a set of defaults tuned for match
// play on the Panda.
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"math"

	"github.com/a8m/envsubst"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/varununayak/robot-arm-crokinole/blackboard"
	"github.com/varununayak/robot-arm-crokinole/crokinole"
	"github.com/varununayak/robot-arm-crokinole/opspace"
	"github.com/varununayak/robot-arm-crokinole/safety"
	"github.com/varununayak/robot-arm-crokinole/spatialmath"
	"github.com/varununayak/robot-arm-crokinole/trajectory"
	"github.com/varununayak/robot-arm-crokinole/utils"
)

// rotationTolerance is how far a calibrated rotation may drift from
// orthonormal before the config is rejected.
const rotationTolerance = 1e-4

// A Config describes everything the controller needs to run against one arm
// and one board.
type Config struct {
	FrequencyHz float64 `json:"frequency_hz"`
	NumJoints   int     `json:"num_joints"`
	// DefaultHitVelocity is the cue tip speed used when the planner does not
	// publish one.
	DefaultHitVelocity float64 `json:"default_hit_velocity_mps"`

	Blackboard     blackboard.Config    `json:"blackboard"`
	Board          BoardConfig          `json:"board"`
	Home           HomeConfig           `json:"home"`
	Schedule       trajectory.Schedule  `json:"schedule"`
	Strike         StrikeConfig         `json:"strike"`
	Postures       PosturesConfig       `json:"postures"`
	Gains          GainsConfig          `json:"gains"`
	Saturation     SaturationConfig     `json:"saturation"`
	Settle         SettleConfig         `json:"settle"`
	Limits         safety.Limits        `json:"limits"`
	Regularization RegularizationConfig `json:"regularization"`
}

// BoardConfig locates the board in the robot frame. The rotation maps board
// frame coordinates into the robot frame, row major.
type BoardConfig struct {
	RadiusM  float64   `json:"radius_m"`
	CenterM  []float64 `json:"center_m"`
	Rotation []float64 `json:"rotation"`
}

// Validate ensures all parts of the config are valid.
func (config *BoardConfig) Validate(path string) error {
	if config.RadiusM <= 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("radius_m must be positive, got %f", config.RadiusM))
	}
	if len(config.CenterM) != 3 {
		return goutils.NewConfigValidationError(path, errors.Errorf("center_m must have 3 entries, got %d", len(config.CenterM)))
	}
	rot, err := spatialmath.NewRotationMatrix(config.Rotation)
	if err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if !rot.Orthonormal(rotationTolerance) {
		return goutils.NewConfigValidationError(path, errors.New("rotation is not orthonormal"))
	}
	return nil
}

// Build constructs the board geometry the trajectory generator plans against.
func (config *BoardConfig) Build() (*crokinole.Geometry, error) {
	rot, err := spatialmath.NewRotationMatrix(config.Rotation)
	if err != nil {
		return nil, err
	}
	center := r3.Vector{X: config.CenterM[0], Y: config.CenterM[1], Z: config.CenterM[2]}
	return crokinole.NewGeometry(config.RadiusM, spatialmath.NewRigidTransform(rot, center))
}

// HomeConfig is the calibrated resting pose of the cue tip in the robot
// frame. The orientation is row major.
type HomeConfig struct {
	PositionM   []float64 `json:"position_m"`
	Orientation []float64 `json:"orientation"`
}

// Validate ensures all parts of the config are valid.
func (config *HomeConfig) Validate(path string) error {
	if len(config.PositionM) != 3 {
		return goutils.NewConfigValidationError(path, errors.Errorf("position_m must have 3 entries, got %d", len(config.PositionM)))
	}
	rot, err := spatialmath.NewRotationMatrix(config.Orientation)
	if err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if !rot.Orthonormal(rotationTolerance) {
		return goutils.NewConfigValidationError(path, errors.New("orientation is not orthonormal"))
	}
	return nil
}

// Pose returns the home pose.
func (config *HomeConfig) Pose() (spatialmath.Pose, error) {
	rot, err := spatialmath.NewRotationMatrix(config.Orientation)
	if err != nil {
		return spatialmath.Pose{}, err
	}
	return spatialmath.Pose{
		Position:    r3.Vector{X: config.PositionM[0], Y: config.PositionM[1], Z: config.PositionM[2]},
		Orientation: rot,
	}, nil
}

// StrikeConfig tunes the swing. Angles are degrees here so the file is easy
// to edit at the board.
type StrikeConfig struct {
	Profile                string  `json:"profile"`
	SwingAngleDeg          float64 `json:"swing_angle_deg"`
	BackswingOffsetDeg     float64 `json:"backswing_offset_deg"`
	FollowThroughOffsetDeg float64 `json:"follow_through_offset_deg"`
	FollowThroughSec       float64 `json:"follow_through_s"`
	LeverLengthM           float64 `json:"lever_length_m"`
}

// Trajectory converts the config to the radian units the profiles use.
func (config *StrikeConfig) Trajectory() trajectory.StrikeConfig {
	return trajectory.StrikeConfig{
		Kind:                  trajectory.ProfileKind(config.Profile),
		SwingAngle:            utils.DegToRad(config.SwingAngleDeg),
		BackswingOffset:       utils.DegToRad(config.BackswingOffsetDeg),
		FollowThroughOffset:   utils.DegToRad(config.FollowThroughOffsetDeg),
		FollowThroughDuration: config.FollowThroughSec,
		LeverLength:           config.LeverLengthM,
	}
}

// Validate ensures all parts of the config are valid.
func (config *StrikeConfig) Validate(path string) error {
	if err := config.Trajectory().Validate(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

// PosturesConfig holds the joint space postures the controller parks at and
// biases toward, radians per joint.
type PosturesConfig struct {
	// InitialRad is held in the wait state and is the homing target.
	InitialRad []float64 `json:"initial_rad"`
	// SafeRad biases the arm's redundancy away from its limits while the
	// Cartesian task leads.
	SafeRad []float64 `json:"safe_rad"`
}

// Validate ensures all parts of the config are valid.
func (config *PosturesConfig) Validate(path string, numJoints int) error {
	if len(config.InitialRad) != numJoints {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("initial_rad must have %d entries, got %d", numJoints, len(config.InitialRad)))
	}
	if len(config.SafeRad) != numJoints {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("safe_rad must have %d entries, got %d", numJoints, len(config.SafeRad)))
	}
	return nil
}

// PDGains is a proportional derivative gain pair.
type PDGains struct {
	Kp float64 `json:"kp"`
	Kv float64 `json:"kv"`
}

// Validate ensures all parts of the config are valid.
func (g PDGains) Validate(path string) error {
	if g.Kp <= 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("kp must be positive, got %f", g.Kp))
	}
	if g.Kv <= 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("kv must be positive, got %f", g.Kv))
	}
	return nil
}

// PosOriGains holds separate gain pairs for the position and orientation
// parts of the Cartesian task.
type PosOriGains struct {
	Position    PDGains `json:"position"`
	Orientation PDGains `json:"orientation"`
}

// Task converts the config to the task's gain set.
func (g PosOriGains) Task() opspace.Gains {
	return opspace.Gains{
		KpPos: g.Position.Kp,
		KvPos: g.Position.Kv,
		KpOri: g.Orientation.Kp,
		KvOri: g.Orientation.Kv,
	}
}

// Validate ensures all parts of the config are valid.
func (g PosOriGains) Validate(path string) error {
	if err := g.Position.Validate(path + ".position"); err != nil {
		return err
	}
	return g.Orientation.Validate(path + ".orientation")
}

// TaskGains pairs the Cartesian task gains with those of the posture task
// running beneath it.
type TaskGains struct {
	Joint  PDGains     `json:"joint"`
	PosOri PosOriGains `json:"posori"`
}

// Validate ensures all parts of the config are valid.
func (g TaskGains) Validate(path string) error {
	if err := g.Joint.Validate(path + ".joint"); err != nil {
		return err
	}
	return g.PosOri.Validate(path + ".posori")
}

// GainsConfig holds the gain schedule, one set per controller state.
type GainsConfig struct {
	Wait     PDGains   `json:"wait"`
	Homing   PDGains   `json:"homing"`
	Tracking TaskGains `json:"tracking"`
	Strike   PDGains   `json:"strike"`
	Return   TaskGains `json:"return"`
}

// Validate ensures all parts of the config are valid.
func (config *GainsConfig) Validate(path string) error {
	if err := config.Wait.Validate(path + ".wait"); err != nil {
		return err
	}
	if err := config.Homing.Validate(path + ".homing"); err != nil {
		return err
	}
	if err := config.Tracking.Validate(path + ".tracking"); err != nil {
		return err
	}
	if err := config.Strike.Validate(path + ".strike"); err != nil {
		return err
	}
	return config.Return.Validate(path + ".return")
}

// SaturationConfig caps the velocities the proportional terms may ask for.
type SaturationConfig struct {
	// JointRadS caps every joint while parking, homing and tracking.
	JointRadS float64 `json:"joint_rad_s"`
	// ReturnRadS caps every joint on the way back from a strike.
	ReturnRadS float64 `json:"return_rad_s"`
	// StrikeRadS caps each joint during the strike. The wrist entry applies
	// to off center shots.
	StrikeRadS []float64 `json:"strike_rad_s"`
	// StrikeCenteredWristRadS replaces the wrist cap on center shots, which
	// need a gentler flick.
	StrikeCenteredWristRadS float64 `json:"strike_centered_wrist_rad_s"`
	// LinearMPS and AngularRadS cap the Cartesian task by norm.
	LinearMPS   float64 `json:"linear_mps"`
	AngularRadS float64 `json:"angular_rad_s"`
}

// Validate ensures all parts of the config are valid.
func (config *SaturationConfig) Validate(path string, numJoints int) error {
	for name, v := range map[string]float64{
		"joint_rad_s":                 config.JointRadS,
		"return_rad_s":                config.ReturnRadS,
		"strike_centered_wrist_rad_s": config.StrikeCenteredWristRadS,
		"linear_mps":                  config.LinearMPS,
		"angular_rad_s":               config.AngularRadS,
	} {
		if v <= 0 {
			return goutils.NewConfigValidationError(path, errors.Errorf("%s must be positive, got %f", name, v))
		}
	}
	if len(config.StrikeRadS) != numJoints {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("strike_rad_s must have %d entries, got %d", numJoints, len(config.StrikeRadS)))
	}
	for i, v := range config.StrikeRadS {
		if v <= 0 {
			return goutils.NewConfigValidationError(path,
				errors.Errorf("strike_rad_s[%d] must be positive, got %f", i, v))
		}
	}
	return nil
}

// StrikeSaturation returns the per joint caps for a strike, swapping in the
// centered wrist cap when the shot goes through the middle of the board.
func (config *SaturationConfig) StrikeSaturation(centered bool) []float64 {
	limits := make([]float64, len(config.StrikeRadS))
	copy(limits, config.StrikeRadS)
	if centered {
		limits[len(limits)-1] = config.StrikeCenteredWristRadS
	}
	return limits
}

// SettleWeights weight the terms of the settling norm against each other.
type SettleWeights struct {
	Position            float64 `json:"position"`
	LinearVelocity      float64 `json:"linear_velocity"`
	LinearAcceleration  float64 `json:"linear_acceleration"`
	AngularVelocity     float64 `json:"angular_velocity"`
	AngularAcceleration float64 `json:"angular_acceleration"`
}

// SettleConfig decides when the control point counts as settled on its goal.
type SettleConfig struct {
	// Tolerance is the threshold the weighted error norm must drop below.
	Tolerance float64 `json:"tolerance"`
	// JointToleranceRad is the joint space distance below which homing is
	// done.
	JointToleranceRad float64       `json:"joint_tolerance_rad"`
	Weights           SettleWeights `json:"weights"`
}

// Validate ensures all parts of the config are valid.
func (config *SettleConfig) Validate(path string) error {
	if config.Tolerance <= 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("tolerance must be positive, got %f", config.Tolerance))
	}
	if config.JointToleranceRad <= 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("joint_tolerance_rad must be positive, got %f", config.JointToleranceRad))
	}
	for name, w := range map[string]float64{
		"position":             config.Weights.Position,
		"linear_velocity":      config.Weights.LinearVelocity,
		"linear_acceleration":  config.Weights.LinearAcceleration,
		"angular_velocity":     config.Weights.AngularVelocity,
		"angular_acceleration": config.Weights.AngularAcceleration,
	} {
		if w < 0 {
			return goutils.NewConfigValidationError(path, errors.Errorf("weights.%s must not be negative, got %f", name, w))
		}
	}
	return nil
}

// RegularizationConfig damps the inertia inversions near singular
// configurations. Zero disables a term.
type RegularizationConfig struct {
	JointInertia float64 `json:"joint_inertia"`
	TaskInertia  float64 `json:"task_inertia"`
}

// Validate ensures all parts of the config are valid.
func (config *RegularizationConfig) Validate(path string) error {
	if config.JointInertia < 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("joint_inertia must not be negative, got %f", config.JointInertia))
	}
	if config.TaskInertia < 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("task_inertia must not be negative, got %f", config.TaskInertia))
	}
	return nil
}

// DefaultConfig returns the match play tuning for the Panda behind the board.
func DefaultConfig() *Config {
	return &Config{
		FrequencyHz:        1000,
		NumJoints:          7,
		DefaultHitVelocity: 1.5,
		Blackboard:         blackboard.DefaultConfig(),
		Board: BoardConfig{
			RadiusM:  crokinole.DefaultBoardRadius,
			CenterM:  []float64{0.7385, 0.1420, 0.3120},
			Rotation: []float64{0, 1, 0, -1, 0, 0, 0, 0, 1},
		},
		Home: HomeConfig{
			PositionM: []float64{0.2859, 0.2787, 0.4300},
			Orientation: []float64{
				0.7360145, 0.6763110, 0.0297644,
				-0.0413102, 0.0009846, 0.9991459,
				0.6757041, -0.7366155, 0.0286632,
			},
		},
		Schedule: trajectory.DefaultSchedule(),
		Strike: StrikeConfig{
			Profile:                string(trajectory.ProfileStep),
			SwingAngleDeg:          120,
			BackswingOffsetDeg:     7.5,
			FollowThroughOffsetDeg: -45,
			FollowThroughSec:       trajectory.DefaultFollowThroughDuration,
			LeverLengthM:           trajectory.DefaultLeverLength,
		},
		Postures: PosturesConfig{
			InitialRad: []float64{0.004, -0.44, 0.315, -1.63, 1.53, 2.15, -0.33},
			SafeRad:    []float64{0, 0, 0, -1.6, 0, 1.9, 0},
		},
		Gains: GainsConfig{
			Wait:   PDGains{Kp: 150, Kv: 20},
			Homing: PDGains{Kp: 250, Kv: 20},
			Tracking: TaskGains{
				Joint: PDGains{Kp: 300, Kv: 25},
				PosOri: PosOriGains{
					Position:    PDGains{Kp: 400, Kv: 25},
					Orientation: PDGains{Kp: 400, Kv: 25},
				},
			},
			Strike: PDGains{Kp: 250, Kv: 25},
			Return: TaskGains{
				Joint: PDGains{Kp: 200, Kv: 20},
				PosOri: PosOriGains{
					Position:    PDGains{Kp: 200, Kv: 20},
					Orientation: PDGains{Kp: 200, Kv: 20},
				},
			},
		},
		Saturation: SaturationConfig{
			JointRadS:               math.Pi / 3,
			ReturnRadS:              math.Pi / 4,
			StrikeRadS:              []float64{math.Pi / 3, math.Pi / 3, math.Pi / 3, math.Pi / 3, math.Pi / 2, math.Pi / 2, 3.0},
			StrikeCenteredWristRadS: 2.33,
			LinearMPS:               0.3,
			AngularRadS:             math.Pi / 3,
		},
		Settle: SettleConfig{
			Tolerance:         3.0,
			JointToleranceRad: 0.15,
			Weights: SettleWeights{
				Position:            10,
				LinearVelocity:      100,
				LinearAcceleration:  1000,
				AngularVelocity:     1000,
				AngularAcceleration: 1000,
			},
		},
		Limits:         safety.PandaLimits(),
		Regularization: RegularizationConfig{JointInertia: 0.1, TaskInertia: 0.1},
	}
}

// Ensure ensures all parts of the config are valid.
func (c *Config) Ensure() error {
	if c.FrequencyHz <= 0 {
		return goutils.NewConfigValidationError("frequency_hz", errors.Errorf("must be positive, got %f", c.FrequencyHz))
	}
	if c.NumJoints <= 0 {
		return goutils.NewConfigValidationError("num_joints", errors.Errorf("must be positive, got %d", c.NumJoints))
	}
	if c.DefaultHitVelocity <= 0 {
		return goutils.NewConfigValidationError("default_hit_velocity_mps",
			errors.Errorf("must be positive, got %f", c.DefaultHitVelocity))
	}
	if err := c.Blackboard.Validate(); err != nil {
		return goutils.NewConfigValidationError("blackboard", err)
	}
	if err := c.Board.Validate("board"); err != nil {
		return err
	}
	if err := c.Home.Validate("home"); err != nil {
		return err
	}
	if err := c.Schedule.Validate(); err != nil {
		return goutils.NewConfigValidationError("schedule", err)
	}
	if err := c.Strike.Validate("strike"); err != nil {
		return err
	}
	if err := c.Postures.Validate("postures", c.NumJoints); err != nil {
		return err
	}
	if err := c.Gains.Validate("gains"); err != nil {
		return err
	}
	if err := c.Saturation.Validate("saturation", c.NumJoints); err != nil {
		return err
	}
	if err := c.Settle.Validate("settle"); err != nil {
		return err
	}
	if err := c.Limits.Validate(); err != nil {
		return goutils.NewConfigValidationError("limits", err)
	}
	if c.Limits.NumJoints() != c.NumJoints {
		return goutils.NewConfigValidationError("limits",
			errors.Errorf("limits cover %d joints, want %d", c.Limits.NumJoints(), c.NumJoints))
	}
	return c.Regularization.Validate("regularization")
}

// Read loads a config from the given file, substituting environment
// variables, and applies it over the defaults.
func Read(filePath string, logger golog.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader loads a config from r over the defaults. Fields the reader does
// not mention keep their default values.
func FromReader(originalPath string, r io.Reader, logger golog.Logger) (*Config, error) {
	cfg := DefaultConfig()
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", originalPath)
	}
	if err := cfg.Ensure(); err != nil {
		return nil, err
	}
	logger.Debugw("loaded config", "path", originalPath)
	return cfg, nil
}
