package qfunction

import (
	"fmt"

	"github.com/samuelfneumann/gosac/agent"
	"github.com/samuelfneumann/gosac/network"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLPQFunction implements a single action-value function
// parameterized by an MLP with one output. Its value node has shape
// (batch), one value per observation-action pair.
type MLPQFunction struct {
	*critic
	value *G.Node
}

// NewMLPQFunction returns a new standalone MLPQFunction in the graph g
// which evaluates batch observation-action pairs at once. The MLP has
// one hidden layer per element of hiddenSizes, each followed by
// activation, and a linear output layer.
func NewMLPQFunction(g *G.ExprGraph, batch, obsDim, actDim int,
	hiddenSizes []int, activation *network.Activation, init G.InitWFn,
	prefix string) (*MLPQFunction, error) {
	obs, act, err := newInputs(g, batch, obsDim, actDim, prefix)
	if err != nil {
		return nil, fmt.Errorf("newMLPQFunction: %w", err)
	}

	q, err := NewMLPQFunctionFromInputs(obs, act, hiddenSizes, activation,
		init, prefix)
	if err != nil {
		return nil, fmt.Errorf("newMLPQFunction: %w", err)
	}
	q.compile()
	return q, nil
}

// NewMLPQFunctionFromInputs returns a new MLPQFunction which uses the
// existing nodes obs and act, of shapes (batch, obs dims) and
// (batch, action dims), as input. The returned value function cannot
// be run through Forward().
func NewMLPQFunctionFromInputs(obs, act *G.Node, hiddenSizes []int,
	activation *network.Activation, init G.InitWFn,
	prefix string) (*MLPQFunction, error) {
	c, err := newCritic(obs, act, []string{""}, []int{1}, hiddenSizes,
		activation, network.Identity(), init, prefix)
	if err != nil {
		return nil, fmt.Errorf("newMLPQFunctionFromInputs: %w", err)
	}

	value, err := G.Reshape(c.nets[0].Prediction(), tensor.Shape{c.batch})
	if err != nil {
		return nil, fmt.Errorf("newMLPQFunctionFromInputs: could not "+
			"squeeze prediction: %w", err)
	}

	agent.Logger().Debug().
		Str("name", prefix).
		Int("obsDim", c.obsDim).
		Int("actDim", c.actDim).
		Int("params", network.CountVars(c.Learnables())).
		Msg("constructed q function")

	return &MLPQFunction{critic: c, value: value}, nil
}

// Value returns the node of action values, of shape (batch)
func (q *MLPQFunction) Value() *G.Node {
	return q.value
}

// Forward returns the action value of each observation-action pair,
// given in row major order
func (q *MLPQFunction) Forward(obs, act []float64) ([]float64, error) {
	predictions, err := q.run(obs, act)
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	return predictions[0], nil
}
