package opspace

import (
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

// an easy arm: unit mass matrix and a jacobian that picks off the first six
// joints, so Lambda comes out identity and the seventh joint spans the
// nullspace
func easyMassAndJacobian(n int) (*mat.Dense, *mat.Dense) {
	jacobian := mat.NewDense(6, n, nil)
	for i := 0; i < 6; i++ {
		jacobian.Set(i, i, 1)
	}
	return Identity(n), jacobian
}

func matrixAlmostEqual(t *testing.T, got, want mat.Matrix, tol float64) {
	t.Helper()
	gr, gc := got.Dims()
	wr, wc := want.Dims()
	test.That(t, gr, test.ShouldEqual, wr)
	test.That(t, gc, test.ShouldEqual, wc)
	for i := 0; i < gr; i++ {
		for j := 0; j < gc; j++ {
			test.That(t, got.At(i, j), test.ShouldAlmostEqual, want.At(i, j), tol)
		}
	}
}

func TestOperationalSpaceMatricesEasyArm(t *testing.T) {
	const n = 7
	mass, jacobian := easyMassAndJacobian(n)

	lambda, jbar, nullspace, err := OperationalSpaceMatrices(mass, jacobian, Identity(n))
	test.That(t, err, test.ShouldBeNil)

	matrixAlmostEqual(t, lambda, Identity(6), 1e-12)
	matrixAlmostEqual(t, jbar, jacobian.T(), 1e-12)

	// only the seventh joint survives the projection
	wantNull := mat.NewDense(n, n, nil)
	wantNull.Set(n-1, n-1, 1)
	matrixAlmostEqual(t, nullspace, wantNull, 1e-12)
}

func TestOperationalSpaceMatricesDynamicConsistency(t *testing.T) {
	const n = 7
	mass := mat.NewDense(n, n, nil)
	for i, m := range []float64{2, 2.5, 3, 1.5, 1, 0.8, 0.6} {
		mass.Set(i, i, m)
	}
	jacobian := mat.NewDense(6, n, nil)
	for i := 0; i < 6; i++ {
		jacobian.Set(i, i, 1)
	}
	for i, v := range []float64{0.1, 0.2, 0.3, 0.05, 0.1, 0.15} {
		jacobian.Set(i, n-1, v)
	}

	_, _, nullspace, err := OperationalSpaceMatrices(mass, jacobian, Identity(n))
	test.That(t, err, test.ShouldBeNil)

	// torques applied through the nullspace produce no task space
	// acceleration: J Minv N^T = 0
	var massInv mat.Dense
	test.That(t, massInv.Inverse(mass), test.ShouldBeNil)
	var jm, residual mat.Dense
	jm.Mul(jacobian, &massInv)
	residual.Mul(&jm, nullspace.T())
	matrixAlmostEqual(t, &residual, mat.NewDense(6, n, nil), 1e-10)
}

func TestOperationalSpaceMatricesSingular(t *testing.T) {
	const n = 7
	mass, _ := easyMassAndJacobian(n)

	// a rank deficient jacobian has no task space inertia
	degenerate := mat.NewDense(6, n, nil)
	degenerate.Set(0, 0, 1)
	_, _, _, err := OperationalSpaceMatrices(mass, degenerate, Identity(n))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "task space inertia")

	_, jacobian := easyMassAndJacobian(n)
	_, _, _, err = OperationalSpaceMatrices(mat.NewDense(n, n, nil), jacobian, Identity(n))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "mass matrix")
}
