package opspace

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Identity returns the n by n identity matrix, the unconstrained projector a
// hierarchy starts from.
func Identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// OperationalSpaceMatrices computes the dynamically consistent quantities for
// a task jacobian already projected into the preceding nullspace: the task
// space inertia Lambda, the dynamically consistent generalized inverse Jbar,
// and the nullspace projector lower priority tasks must operate in.
func OperationalSpaceMatrices(massMatrix, projectedJacobian, nPrec *mat.Dense) (lambda, jbar, nullspace *mat.Dense, err error) {
	var massInv mat.Dense
	if err := massInv.Inverse(massMatrix); err != nil {
		return nil, nil, nil, errors.Wrap(err, "mass matrix is singular")
	}

	// Lambda = (J Minv J^T)^-1
	var jm, jmj mat.Dense
	jm.Mul(projectedJacobian, &massInv)
	jmj.Mul(&jm, projectedJacobian.T())
	lambda = &mat.Dense{}
	if err := lambda.Inverse(&jmj); err != nil {
		return nil, nil, nil, errors.Wrap(err, "task space inertia is singular")
	}

	// Jbar = Minv J^T Lambda
	var mj mat.Dense
	mj.Mul(&massInv, projectedJacobian.T())
	jbar = &mat.Dense{}
	jbar.Mul(&mj, lambda)

	// N = (I - Jbar J) Nprec
	n, _ := massMatrix.Dims()
	var jbarJ, nTask mat.Dense
	jbarJ.Mul(jbar, projectedJacobian)
	nTask.Sub(Identity(n), &jbarJ)
	nullspace = &mat.Dense{}
	nullspace.Mul(&nTask, nPrec)

	return lambda, jbar, nullspace, nil
}

// addDiagonal returns m with eps added to its diagonal, leaving m untouched.
func addDiagonal(m *mat.Dense, eps float64) *mat.Dense {
	n, _ := m.Dims()
	out := mat.DenseCopyOf(m)
	for i := 0; i < n; i++ {
		out.Set(i, i, out.At(i, i)+eps)
	}
	return out
}
