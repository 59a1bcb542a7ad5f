// Package spatialmath defines the rotation and rigid transform primitives used
// by the arm controller.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/varununayak/robot-arm-crokinole/utils"
)

// RotationMatrix is a 3x3 rotation matrix in row major order.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates a rotation matrix from a slice of 9 floats in row major order.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Errorf("rotation matrix requires 9 values, got %d", len(m))
	}
	mat := [9]float64{m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8]}
	return &RotationMatrix{mat}, nil
}

// NewIdentityRotationMatrix returns the identity rotation.
func NewIdentityRotationMatrix() *RotationMatrix {
	return &RotationMatrix{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// RotationAboutZ returns the rotation of theta radians about the +Z axis.
func RotationAboutZ(theta float64) *RotationMatrix {
	s, c := math.Sincos(theta)
	return &RotationMatrix{[9]float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}}
}

// At returns the value of the matrix at the given row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[row*3+col]
}

// Row returns the a 3 vector corresponding to the given row.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{
		X: rm.mat[row*3],
		Y: rm.mat[row*3+1],
		Z: rm.mat[row*3+2],
	}
}

// Col returns the a 3 vector corresponding to the given column.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{
		X: rm.mat[col],
		Y: rm.mat[3+col],
		Z: rm.mat[6+col],
	}
}

// RowMajor returns a copy of the matrix values in row major order.
func (rm *RotationMatrix) RowMajor() []float64 {
	out := make([]float64, 9)
	copy(out, rm.mat[:])
	return out
}

// Mul returns the matrix product rm * other.
func (rm *RotationMatrix) Mul(other *RotationMatrix) *RotationMatrix {
	var mat [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			mat[i*3+j] = rm.mat[i*3]*other.mat[j] +
				rm.mat[i*3+1]*other.mat[3+j] +
				rm.mat[i*3+2]*other.mat[6+j]
		}
	}
	return &RotationMatrix{mat}
}

// Transpose returns the transpose, which for a rotation is also its inverse.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	m := rm.mat
	return &RotationMatrix{[9]float64{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}}
}

// Rotate applies the rotation to the given vector.
func (rm *RotationMatrix) Rotate(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.mat[0]*v.X + rm.mat[1]*v.Y + rm.mat[2]*v.Z,
		Y: rm.mat[3]*v.X + rm.mat[4]*v.Y + rm.mat[5]*v.Z,
		Z: rm.mat[6]*v.X + rm.mat[7]*v.Y + rm.mat[8]*v.Z,
	}
}

// Quaternion converts the rotation to a unit quaternion.
func (rm *RotationMatrix) Quaternion() quat.Number {
	var q quat.Number
	m := rm.mat
	tr := m[0] + m[4] + m[8]
	switch {
	case tr > 0:
		s := 0.5 / math.Sqrt(tr+1.0)
		q = quat.Number{
			Real: 0.25 / s,
			Imag: (m[7] - m[5]) * s,
			Jmag: (m[2] - m[6]) * s,
			Kmag: (m[3] - m[1]) * s,
		}
	case m[0] > m[4] && m[0] > m[8]:
		s := 2.0 * math.Sqrt(1.0+m[0]-m[4]-m[8])
		q = quat.Number{
			Real: (m[7] - m[5]) / s,
			Imag: 0.25 * s,
			Jmag: (m[1] + m[3]) / s,
			Kmag: (m[2] + m[6]) / s,
		}
	case m[4] > m[8]:
		s := 2.0 * math.Sqrt(1.0+m[4]-m[0]-m[8])
		q = quat.Number{
			Real: (m[2] - m[6]) / s,
			Imag: (m[1] + m[3]) / s,
			Jmag: 0.25 * s,
			Kmag: (m[5] + m[7]) / s,
		}
	default:
		s := 2.0 * math.Sqrt(1.0+m[8]-m[0]-m[4])
		q = quat.Number{
			Real: (m[3] - m[1]) / s,
			Imag: (m[2] + m[6]) / s,
			Jmag: (m[5] + m[7]) / s,
			Kmag: 0.25 * s,
		}
	}
	return q
}

// AngularDistance returns the magnitude in radians of the rotation taking rm to other.
func (rm *RotationMatrix) AngularDistance(other *RotationMatrix) float64 {
	q1 := rm.Quaternion()
	q2 := other.Quaternion()
	dot := q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag
	dot = math.Abs(dot)
	if dot > 1 {
		dot = 1
	}
	return 2 * math.Acos(dot)
}

// ApproxEqual tests whether the two rotations are within tol radians of each other.
func (rm *RotationMatrix) ApproxEqual(other *RotationMatrix, tol float64) bool {
	return rm.AngularDistance(other) < tol
}

// Orthonormal reports whether the matrix is a proper rotation, meaning its rows
// are orthonormal and its determinant is +1 within tol.
func (rm *RotationMatrix) Orthonormal(tol float64) bool {
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			dot := rm.Row(i).Dot(rm.Row(j))
			want := 0.0
			if i == j {
				want = 1.0
			}
			if !utils.Float64AlmostEqual(dot, want, tol) {
				return false
			}
		}
	}
	det := rm.Row(0).Dot(rm.Row(1).Cross(rm.Row(2)))
	return utils.Float64AlmostEqual(det, 1, tol)
}

// OrientationError returns the instantaneous angular error between the current
// and desired orientations, expressed in the base frame. A proportional force
// of -kp times this error steers current toward desired.
func OrientationError(current, desired *RotationMatrix) r3.Vector {
	var sum r3.Vector
	for i := 0; i < 3; i++ {
		sum = sum.Add(current.Col(i).Cross(desired.Col(i)))
	}
	return sum.Mul(-0.5)
}
