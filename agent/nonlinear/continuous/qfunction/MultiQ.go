package qfunction

import (
	"fmt"

	"github.com/samuelfneumann/gosac/agent"
	"github.com/samuelfneumann/gosac/network"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NumHeads is the number of independent value functions of a MultiQ
const NumHeads = 2

// MultiQ implements two independent action-value functions over the
// same inputs, as used in clipped double Q-learning. Each head is an
// MLP with one output. Their values are stacked into a node of shape
// (2, batch).
type MultiQ struct {
	*critic
	value *G.Node
}

// NewMultiQ returns a new standalone MultiQ in the graph g which
// evaluates batch observation-action pairs at once. Each head has one
// hidden layer per element of hiddenSizes, each followed by
// activation, and a linear output layer.
func NewMultiQ(g *G.ExprGraph, batch, obsDim, actDim int,
	hiddenSizes []int, activation *network.Activation, init G.InitWFn,
	prefix string) (*MultiQ, error) {
	obs, act, err := newInputs(g, batch, obsDim, actDim, prefix)
	if err != nil {
		return nil, fmt.Errorf("newMultiQ: %w", err)
	}

	q, err := NewMultiQFromInputs(obs, act, hiddenSizes, activation, init,
		prefix)
	if err != nil {
		return nil, fmt.Errorf("newMultiQ: %w", err)
	}
	q.compile()
	return q, nil
}

// NewMultiQFromInputs returns a new MultiQ which uses the existing
// nodes obs and act as input. The returned value function cannot be
// run through Forward().
func NewMultiQFromInputs(obs, act *G.Node, hiddenSizes []int,
	activation *network.Activation, init G.InitWFn,
	prefix string) (*MultiQ, error) {
	names := make([]string, NumHeads)
	outputs := make([]int, NumHeads)
	for i := range names {
		names[i] = fmt.Sprintf("Q%d", i+1)
		outputs[i] = 1
	}

	c, err := newCritic(obs, act, names, outputs, hiddenSizes, activation,
		network.Identity(), init, prefix)
	if err != nil {
		return nil, fmt.Errorf("newMultiQFromInputs: %w", err)
	}

	rows := make([]*G.Node, NumHeads)
	for i, net := range c.nets {
		rows[i], err = G.Reshape(net.Prediction(), tensor.Shape{1, c.batch})
		if err != nil {
			return nil, fmt.Errorf("newMultiQFromInputs: could not "+
				"reshape head %d: %w", i, err)
		}
	}
	value, err := G.Concat(0, rows...)
	if err != nil {
		return nil, fmt.Errorf("newMultiQFromInputs: could not stack "+
			"heads: %w", err)
	}

	agent.Logger().Debug().
		Str("name", prefix).
		Int("heads", NumHeads).
		Int("params", network.CountVars(c.Learnables())).
		Msg("constructed multi q function")

	return &MultiQ{critic: c, value: value}, nil
}

// Value returns the node of stacked action values, of shape
// (2, batch)
func (q *MultiQ) Value() *G.Node {
	return q.value
}

// Head returns the node of action values of head i, of shape
// (batch, 1)
func (q *MultiQ) Head(i int) *G.Node {
	return q.nets[i].Prediction()
}

// Forward returns the action values of each head for each
// observation-action pair as a matrix of shape (2, batch)
func (q *MultiQ) Forward(obs, act []float64) (*mat.Dense, error) {
	predictions, err := q.run(obs, act)
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}

	values := mat.NewDense(NumHeads, q.batch, nil)
	for i, row := range predictions {
		values.SetRow(i, row)
	}
	return values, nil
}
