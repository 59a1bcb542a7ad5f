// Package blackboard connects the controller to the Redis blackboard it
// shares with the shot planner and the arm driver: joint state and model
// quantities come in, commanded torques and the controller's mode go out.
package blackboard

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Modes exchanged with the shot planner on the mode key.
const (
	ModeExecute = "execute"
	ModeWait    = "wait"
)

// ErrNotFound reports a key nobody has written yet.
var ErrNotFound = errors.New("blackboard key not found")

// IsNotFound reports whether err came from a missing key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Keys names every blackboard key the controller touches. The defaults match
// the arm driver's naming scheme so the controller drops into an existing
// deployment unchanged.
type Keys struct {
	Mode         string `json:"mode"`
	ShotAngle    string `json:"shot_angle"`
	ShotPosition string `json:"shot_position"`
	ShotVelocity string `json:"shot_velocity"`

	JointPositions   string `json:"joint_positions"`
	JointVelocities  string `json:"joint_velocities"`
	CommandedTorques string `json:"commanded_torques"`

	MassMatrix          string `json:"mass_matrix"`
	Position            string `json:"position"`
	Velocity            string `json:"velocity"`
	Acceleration        string `json:"acceleration"`
	Orientation         string `json:"orientation"`
	AngularVelocity     string `json:"angular_velocity"`
	AngularAcceleration string `json:"angular_acceleration"`
	Jacobian            string `json:"jacobian"`
}

// DefaultKeys returns the key names of the standard deployment.
func DefaultKeys() Keys {
	return Keys{
		Mode:         "modechange",
		ShotAngle:    "shotangle",
		ShotPosition: "shotpos",
		ShotVelocity: "shotvel",

		JointPositions:   "sai2::FrankaPanda::sensors::q",
		JointVelocities:  "sai2::FrankaPanda::sensors::dq",
		CommandedTorques: "sai2::FrankaPanda::actuators::fgc",

		MassMatrix:          "sai2::FrankaPanda::sensors::model::massmatrix",
		Position:            "sai2::FrankaPanda::sensors::model::ee_pos",
		Velocity:            "sai2::FrankaPanda::sensors::model::ee_vel",
		Acceleration:        "sai2::FrankaPanda::sensors::model::ee_accel",
		Orientation:         "sai2::FrankaPanda::sensors::model::ee_rot",
		AngularVelocity:     "sai2::FrankaPanda::sensors::model::ee_omega",
		AngularAcceleration: "sai2::FrankaPanda::sensors::model::ee_alpha",
		Jacobian:            "sai2::FrankaPanda::sensors::model::jacobian",
	}
}

// Validate checks that no key name is empty.
func (k Keys) Validate() error {
	for _, key := range []struct {
		name  string
		value string
	}{
		{"mode", k.Mode},
		{"shot_angle", k.ShotAngle},
		{"shot_position", k.ShotPosition},
		{"shot_velocity", k.ShotVelocity},
		{"joint_positions", k.JointPositions},
		{"joint_velocities", k.JointVelocities},
		{"commanded_torques", k.CommandedTorques},
		{"mass_matrix", k.MassMatrix},
		{"position", k.Position},
		{"velocity", k.Velocity},
		{"acceleration", k.Acceleration},
		{"orientation", k.Orientation},
		{"angular_velocity", k.AngularVelocity},
		{"angular_acceleration", k.AngularAcceleration},
		{"jacobian", k.Jacobian},
	} {
		if key.value == "" {
			return errors.Errorf("blackboard key %q must not be empty", key.name)
		}
	}
	return nil
}

// Config locates the blackboard and names its keys.
type Config struct {
	Address string `json:"address"`
	DB      int    `json:"db"`
	// TargetUnitScale converts the planner's shot position units to meters.
	TargetUnitScale float64 `json:"target_unit_scale"`
	Keys            Keys    `json:"keys"`
}

// DefaultConfig returns a config for a blackboard on the local host with the
// standard keys, with shot positions published in millimeters.
func DefaultConfig() Config {
	return Config{
		Address:         "localhost:6379",
		TargetUnitScale: 0.001,
		Keys:            DefaultKeys(),
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.Address == "" {
		return errors.New("blackboard address must not be empty")
	}
	if c.TargetUnitScale <= 0 {
		return errors.Errorf("target unit scale must be positive, got %f", c.TargetUnitScale)
	}
	return c.Keys.Validate()
}

// Client is a connected blackboard.
type Client struct {
	rdb       *redis.Client
	keys      Keys
	unitScale float64
	logger    golog.Logger
}

// New connects to the blackboard and pings it once so a bad address fails at
// startup rather than on the first control cycle.
func New(ctx context.Context, cfg Config, logger golog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Address,
		DB:   cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "connecting to blackboard at %s", cfg.Address)
	}
	logger.Infow("connected to blackboard", "address", cfg.Address)
	return &Client{rdb: rdb, keys: cfg.Keys, unitScale: cfg.TargetUnitScale, logger: logger}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errors.Wrapf(ErrNotFound, "key %q", key)
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading key %q", key)
	}
	return val, nil
}

// Mode returns the planner's current mode directive.
func (c *Client) Mode(ctx context.Context) (string, error) {
	return c.get(ctx, c.keys.Mode)
}

// SetMode publishes the controller's mode.
func (c *Client) SetMode(ctx context.Context, mode string) error {
	return errors.Wrapf(c.rdb.Set(ctx, c.keys.Mode, mode, 0).Err(), "writing key %q", c.keys.Mode)
}

// ShotAngle returns the planner's requested hit angle in radians.
func (c *Client) ShotAngle(ctx context.Context) (float64, error) {
	raw, err := c.get(ctx, c.keys.ShotAngle)
	if err != nil {
		return 0, err
	}
	angle, err := ParseFloat(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "shot angle key %q", c.keys.ShotAngle)
	}
	return angle, nil
}

// ShotPosition returns the planner's requested target in board frame meters.
func (c *Client) ShotPosition(ctx context.Context) (r3.Vector, error) {
	raw, err := c.get(ctx, c.keys.ShotPosition)
	if err != nil {
		return r3.Vector{}, err
	}
	pos, err := ParseShotPosition(raw, c.unitScale)
	if err != nil {
		return r3.Vector{}, errors.Wrapf(err, "shot position key %q", c.keys.ShotPosition)
	}
	return pos, nil
}

// ShotVelocity returns the planner's requested cue tip speed in m/s. Planners
// that predate the key never write it, so a missing key reports ErrNotFound
// and the caller falls back to its configured default.
func (c *Client) ShotVelocity(ctx context.Context) (float64, error) {
	raw, err := c.get(ctx, c.keys.ShotVelocity)
	if err != nil {
		return 0, err
	}
	velocity, err := ParseFloat(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "shot velocity key %q", c.keys.ShotVelocity)
	}
	return velocity, nil
}

// SetCommandedTorques publishes the torque command for the arm driver.
func (c *Client) SetCommandedTorques(ctx context.Context, torques []float64) error {
	encoded, err := EncodeVector(torques)
	if err != nil {
		return err
	}
	return errors.Wrapf(c.rdb.Set(ctx, c.keys.CommandedTorques, encoded, 0).Err(),
		"writing key %q", c.keys.CommandedTorques)
}
