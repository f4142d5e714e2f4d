// Package agent defines the interfaces of actor-critic function
// approximators and the configuration used to construct them.
package agent

import (
	"io"

	"github.com/samuelfneumann/gosac/network"
	"github.com/samuelfneumann/gosac/timestep"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. In evaluation mode, a
// policy acts deterministically. In training mode, a policy samples
// its actions.
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// Actor is a stochastic policy parameterized by a neural network
// that can compute the log probability of the actions it samples.
type Actor interface {
	Policy

	// Forward computes actions for a batch of observations given in
	// row major order. If deterministic is true, the mode of the
	// policy is returned instead of a sample. If withLogProb is true,
	// the log probability of each action is returned as well,
	// otherwise the returned log probability is nil.
	Forward(obs []float64, deterministic,
		withLogProb bool) (actions, logProb []float64, err error)

	BatchSize() int
	Features() int
	ActionDims() int
	Network() network.NeuralNet
	Learnables() G.Nodes
}

// Component is a named group of learnables belonging to a single
// function approximator in an ActorCritic
type Component struct {
	Name       string
	Learnables G.Nodes
}

// ActorCritic composes a single Actor with one or more value
// functions.
//
// Learnables() returns the learnables of all components in a fixed
// order, so that two ActorCritics of the same Type and Config can
// exchange weights through Set() and Polyak(). This is how target
// networks are maintained.
type ActorCritic interface {
	Policy

	Type() Type

	// Act returns actions for a batch of observations without tracking
	// gradients
	Act(obs []float64, deterministic bool) ([]float64, error)

	Actor() Actor
	Components() []Component
	Learnables() G.Nodes

	CloneWithBatch(int) (ActorCritic, error)
	Set(source ActorCritic) error
	Polyak(source ActorCritic, tau float64) error

	Save(io.Writer) error
	Load(io.Reader) error
}
