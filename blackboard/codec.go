package blackboard

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/varununayak/robot-arm-crokinole/spatialmath"
)

// Vectors and matrices cross the blackboard as JSON arrays, matrices as an
// array of rows, matching what the arm driver and model evaluator publish.

// EncodeVector renders a vector for the blackboard.
func EncodeVector(v []float64) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encoding vector")
	}
	return string(out), nil
}

// DecodeVector parses a vector off the blackboard.
func DecodeVector(s string) ([]float64, error) {
	var out []float64
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, errors.Wrapf(err, "decoding vector %q", s)
	}
	if len(out) == 0 {
		return nil, errors.New("decoded vector is empty")
	}
	return out, nil
}

// DecodeMatrix parses a matrix off the blackboard.
func DecodeMatrix(s string) (*mat.Dense, error) {
	var rows [][]float64
	if err := json.Unmarshal([]byte(s), &rows); err != nil {
		return nil, errors.Wrapf(err, "decoding matrix %q", s)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("decoded matrix is empty")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.Errorf("matrix row %d has %d columns, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// DecodeVec3 parses a 3 vector off the blackboard.
func DecodeVec3(s string) (r3.Vector, error) {
	v, err := DecodeVector(s)
	if err != nil {
		return r3.Vector{}, err
	}
	if len(v) != 3 {
		return r3.Vector{}, errors.Errorf("expected a 3 vector, got %d values", len(v))
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}

// DecodeRotation parses a 3x3 rotation off the blackboard.
func DecodeRotation(s string) (*spatialmath.RotationMatrix, error) {
	m, err := DecodeMatrix(s)
	if err != nil {
		return nil, err
	}
	r, c := m.Dims()
	if r != 3 || c != 3 {
		return nil, errors.Errorf("expected a 3x3 rotation, got %dx%d", r, c)
	}
	return spatialmath.NewRotationMatrix(m.RawMatrix().Data)
}

// ParseFloat parses a bare scalar off the blackboard.
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing scalar %q", s)
	}
	return v, nil
}

// ParseShotPosition parses the planner's "x,y" target string, scaling both
// components into meters. Anything but two parseable fields is an error, never
// a silent default.
func ParseShotPosition(s string, scale float64) (r3.Vector, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 2 {
		return r3.Vector{}, errors.Errorf("shot position %q must have exactly two fields", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return r3.Vector{}, errors.Wrapf(err, "parsing shot position %q", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return r3.Vector{}, errors.Wrapf(err, "parsing shot position %q", s)
	}
	return r3.Vector{X: x * scale, Y: y * scale}, nil
}
