package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewRotationMatrix(t *testing.T) {
	_, err := NewRotationMatrix([]float64{1, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "9 values")

	rm, err := NewRotationMatrix([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rm.At(0, 0), test.ShouldEqual, 1)
	test.That(t, rm.At(1, 2), test.ShouldEqual, 6)
	test.That(t, rm.At(2, 1), test.ShouldEqual, 8)
	test.That(t, rm.Row(1), test.ShouldResemble, r3.Vector{X: 4, Y: 5, Z: 6})
	test.That(t, rm.Col(2), test.ShouldResemble, r3.Vector{X: 3, Y: 6, Z: 9})
	test.That(t, rm.RowMajor(), test.ShouldResemble, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
}

func TestRotationAboutZ(t *testing.T) {
	rm := RotationAboutZ(math.Pi / 2)
	v := rm.Rotate(r3.Vector{X: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, v.Z, test.ShouldAlmostEqual, 0, 1e-12)

	composed := RotationAboutZ(0.3).Mul(RotationAboutZ(0.4))
	test.That(t, composed.ApproxEqual(RotationAboutZ(0.7), 1e-9), test.ShouldBeTrue)
}

func TestTransposeIsInverse(t *testing.T) {
	rm := RotationAboutZ(1.1)
	prod := rm.Mul(rm.Transpose())
	test.That(t, prod.ApproxEqual(NewIdentityRotationMatrix(), 1e-9), test.ShouldBeTrue)
}

func TestOrthonormal(t *testing.T) {
	test.That(t, RotationAboutZ(0.25).Orthonormal(1e-9), test.ShouldBeTrue)

	// a realistic calibrated orientation, orthonormal only to measurement precision
	calibrated, err := NewRotationMatrix([]float64{
		0.7360145, 0.6763110, 0.0297644,
		-0.0413102, 0.0009846, 0.9991459,
		0.6757041, -0.7366155, 0.0286632,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, calibrated.Orthonormal(1e-4), test.ShouldBeTrue)
	test.That(t, calibrated.Orthonormal(1e-9), test.ShouldBeFalse)

	scaled, err := NewRotationMatrix([]float64{2, 0, 0, 0, 2, 0, 0, 0, 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scaled.Orthonormal(1e-4), test.ShouldBeFalse)
}

func TestQuaternion(t *testing.T) {
	q := NewIdentityRotationMatrix().Quaternion()
	test.That(t, q.Real, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, q.Imag, test.ShouldAlmostEqual, 0, 1e-12)

	theta := 0.8
	q = RotationAboutZ(theta).Quaternion()
	test.That(t, q.Real, test.ShouldAlmostEqual, math.Cos(theta/2), 1e-12)
	test.That(t, q.Kmag, test.ShouldAlmostEqual, math.Sin(theta/2), 1e-12)

	test.That(t, RotationAboutZ(0.2).AngularDistance(RotationAboutZ(0.5)), test.ShouldAlmostEqual, 0.3, 1e-9)
}

func TestOrientationError(t *testing.T) {
	rm := RotationAboutZ(0.6)
	errVec := OrientationError(rm, rm)
	test.That(t, errVec.Norm(), test.ShouldAlmostEqual, 0, 1e-12)

	// for a small rotation about +Z the error points along -Z, so -kp times the
	// error steers the current orientation toward the desired one
	delta := 0.01
	errVec = OrientationError(NewIdentityRotationMatrix(), RotationAboutZ(delta))
	test.That(t, errVec.X, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, errVec.Y, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, errVec.Z, test.ShouldAlmostEqual, -math.Sin(delta), 1e-12)
}
