package qfunction

import (
	"fmt"

	"github.com/samuelfneumann/gosac/agent"
	"github.com/samuelfneumann/gosac/network"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// SingleQ implements a single MLP with many outputs, each of which is
// treated as a separate estimate of the action value. Its value node
// is the transposed prediction of the MLP, of shape (outputs, batch).
type SingleQ struct {
	*critic
	numOutputs int
	value      *G.Node
}

// NewSingleQ returns a new standalone SingleQ in the graph g which
// evaluates batch observation-action pairs at once. The MLP has one
// hidden layer per element of hiddenSizes, each followed by
// activation, and an output layer of numOutputs units followed by
// outputActivation.
func NewSingleQ(g *G.ExprGraph, batch, obsDim, actDim, numOutputs int,
	hiddenSizes []int, activation, outputActivation *network.Activation,
	init G.InitWFn, prefix string) (*SingleQ, error) {
	obs, act, err := newInputs(g, batch, obsDim, actDim, prefix)
	if err != nil {
		return nil, fmt.Errorf("newSingleQ: %w", err)
	}

	q, err := NewSingleQFromInputs(obs, act, numOutputs, hiddenSizes,
		activation, outputActivation, init, prefix)
	if err != nil {
		return nil, fmt.Errorf("newSingleQ: %w", err)
	}
	q.compile()
	return q, nil
}

// NewSingleQFromInputs returns a new SingleQ which uses the existing
// nodes obs and act as input. The returned value function cannot be
// run through Forward().
func NewSingleQFromInputs(obs, act *G.Node, numOutputs int,
	hiddenSizes []int, activation, outputActivation *network.Activation,
	init G.InitWFn, prefix string) (*SingleQ, error) {
	if numOutputs <= 0 {
		return nil, fmt.Errorf("newSingleQFromInputs: number of outputs "+
			"must be positive, got %d", numOutputs)
	}

	c, err := newCritic(obs, act, []string{""}, []int{numOutputs},
		hiddenSizes, activation, outputActivation, init, prefix)
	if err != nil {
		return nil, fmt.Errorf("newSingleQFromInputs: %w", err)
	}

	value, err := G.Transpose(c.nets[0].Prediction())
	if err != nil {
		return nil, fmt.Errorf("newSingleQFromInputs: could not "+
			"transpose prediction: %w", err)
	}

	agent.Logger().Debug().
		Str("name", prefix).
		Int("outputs", numOutputs).
		Int("params", network.CountVars(c.Learnables())).
		Msg("constructed single q function")

	return &SingleQ{critic: c, numOutputs: numOutputs, value: value}, nil
}

// NumOutputs returns the number of value estimates per
// observation-action pair
func (q *SingleQ) NumOutputs() int {
	return q.numOutputs
}

// Value returns the node of action values, of shape (outputs, batch)
func (q *SingleQ) Value() *G.Node {
	return q.value
}

// Forward returns the action value estimates for each
// observation-action pair as a matrix of shape (outputs, batch)
func (q *SingleQ) Forward(obs, act []float64) (*mat.Dense, error) {
	predictions, err := q.run(obs, act)
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}

	// Predictions are stored (batch, outputs) in row major order
	values := mat.NewDense(q.numOutputs, q.batch, nil)
	values.Copy(mat.NewDense(q.batch, q.numOutputs, predictions[0]).T())
	return values, nil
}
