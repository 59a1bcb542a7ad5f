package opspace

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Task is one control objective in a strict priority hierarchy.
type Task interface {
	// UpdateModel recomputes the task's model quantities for this cycle, given
	// the nullspace projector of the tasks above it.
	UpdateModel(state *State, nPrec *mat.Dense) error
	// Nullspace returns the projector tasks below this one must operate in.
	Nullspace() *mat.Dense
	// ComputeTorques returns the task's torque contribution.
	ComputeTorques(state *State) ([]float64, error)
}

// Hierarchy composes tasks in strict priority order. The first task operates
// against the unconstrained projector, each following task in the nullspace
// of those before it, and the commanded torque is the sum of all
// contributions.
type Hierarchy struct {
	numJoints int
	tasks     []Task
}

// NewHierarchy creates a hierarchy over the given tasks, highest priority
// first.
func NewHierarchy(numJoints int, tasks ...Task) (*Hierarchy, error) {
	if len(tasks) == 0 {
		return nil, errors.New("hierarchy needs at least one task")
	}
	if numJoints <= 0 {
		return nil, errors.Errorf("hierarchy needs a positive joint count, got %d", numJoints)
	}
	return &Hierarchy{numJoints: numJoints, tasks: tasks}, nil
}

// ComputeTorques runs one cycle of the hierarchy against the snapshot.
func (h *Hierarchy) ComputeTorques(state *State) ([]float64, error) {
	nPrec := Identity(h.numJoints)
	total := make([]float64, h.numJoints)
	for _, task := range h.tasks {
		if err := task.UpdateModel(state, nPrec); err != nil {
			return nil, err
		}
		nPrec = task.Nullspace()
		torques, err := task.ComputeTorques(state)
		if err != nil {
			return nil, err
		}
		floats.Add(total, torques)
	}
	return total, nil
}
