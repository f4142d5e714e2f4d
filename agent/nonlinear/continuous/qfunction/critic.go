// Package qfunction implements action-value functions over continuous
// actions parameterized by neural networks.
//
// Every value function takes the concatenation of an observation and
// an action as input. Value functions may be built standalone, with
// their own graph and VM so that they can be run eagerly through
// Forward(), or on top of existing observation and action nodes, for
// example the action node of a policy, so that a loss depending on
// both the policy and the value function can be differentiated.
package qfunction

import (
	"errors"
	"fmt"

	"github.com/samuelfneumann/gosac/network"
	"github.com/samuelfneumann/gosac/utils/tensorutils"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// ErrNotStandalone is returned when a value function built from
// existing input nodes is asked to compute its values eagerly. Such
// value functions are run by whoever owns the graph.
var ErrNotStandalone = errors.New("value function was built from " +
	"existing inputs and cannot be run on its own")

// critic implements the functionality common to all value functions
type critic struct {
	g   *G.ExprGraph
	vm  G.VM // nil unless standalone
	obs *G.Node
	act *G.Node

	nets []*network.MLP

	// Values of the network predictions, each of shape (batch, outputs)
	predVals []G.Value

	batch  int
	obsDim int
	actDim int
}

// newInputs creates observation and action input nodes of the given
// shapes in g
func newInputs(g *G.ExprGraph, batch, obsDim, actDim int,
	prefix string) (obs, act *G.Node, err error) {
	if batch <= 0 {
		return nil, nil, fmt.Errorf("newInputs: batch size must be "+
			"positive, got %d", batch)
	}
	if obsDim <= 0 || actDim <= 0 {
		return nil, nil, fmt.Errorf("newInputs: observation and action "+
			"dimensions must be positive, got (%d, %d)", obsDim, actDim)
	}

	obs = G.NewMatrix(g, tensor.Float64, G.WithShape(batch, obsDim),
		G.WithName(prefix+"Obs"), G.WithInit(G.Zeroes()))
	act = G.NewMatrix(g, tensor.Float64, G.WithShape(batch, actDim),
		G.WithName(prefix+"Act"), G.WithInit(G.Zeroes()))
	return obs, act, nil
}

// newCritic returns a critic with one network per element of outputs
// on top of the observation and action nodes. Network i predicts
// outputs[i] values and is named prefix+names[i].
func newCritic(obs, act *G.Node, names []string, outputs []int,
	hiddenSizes []int, activation, outputActivation *network.Activation,
	init G.InitWFn, prefix string) (*critic, error) {
	if obs.Graph() != act.Graph() {
		return nil, fmt.Errorf("newCritic: observations and actions must " +
			"share the same graph")
	}
	if obs.Dims() != 2 || act.Dims() != 2 {
		return nil, fmt.Errorf("newCritic: observations and actions must "+
			"be matrices, got shapes %v and %v", obs.Shape(), act.Shape())
	}
	batch := obs.Shape()[0]
	if act.Shape()[0] != batch {
		return nil, fmt.Errorf("newCritic: batch sizes of observations "+
			"(%d) and actions (%d) differ", batch, act.Shape()[0])
	}
	obsDim, actDim := obs.Shape()[1], act.Shape()[1]

	c := &critic{
		g:        obs.Graph(),
		obs:      obs,
		act:      act,
		nets:     make([]*network.MLP, len(outputs)),
		predVals: make([]G.Value, len(outputs)),
		batch:    batch,
		obsDim:   obsDim,
		actDim:   actDim,
	}

	for i := range outputs {
		sizes := make([]int, 0, len(hiddenSizes)+2)
		sizes = append(sizes, obsDim+actDim)
		sizes = append(sizes, hiddenSizes...)
		sizes = append(sizes, outputs[i])

		net, err := network.NewMLPFromInputs([]*G.Node{obs, act}, sizes,
			activation, outputActivation, init, prefix+names[i])
		if err != nil {
			return nil, fmt.Errorf("newCritic: could not construct "+
				"network %d: %w", i, err)
		}
		c.nets[i] = net
		G.Read(net.Prediction(), &c.predVals[i])
	}

	return c, nil
}

// compile creates the VM of a standalone critic. It must be called
// after all nodes whose values are read have been added to the graph.
func (c *critic) compile() {
	c.vm = G.NewTapeMachine(c.g)
}

// IsStandalone returns whether the value function owns its graph and
// can be run through Forward()
func (c *critic) IsStandalone() bool {
	return c.vm != nil
}

// run computes the predictions of each network for the observations
// obs and actions act, given in row major order
func (c *critic) run(obs, act []float64) ([][]float64, error) {
	if c.vm == nil {
		return nil, ErrNotStandalone
	}
	if err := tensorutils.SetMatrix(c.obs, obs); err != nil {
		return nil, fmt.Errorf("run: could not set observations: %w", err)
	}
	if err := tensorutils.SetMatrix(c.act, act); err != nil {
		return nil, fmt.Errorf("run: could not set actions: %w", err)
	}

	if err := c.vm.RunAll(); err != nil {
		c.vm.Reset()
		return nil, fmt.Errorf("run: could not run value function: %w", err)
	}
	defer c.vm.Reset()

	predictions := make([][]float64, len(c.predVals))
	for i, v := range c.predVals {
		data, err := tensorutils.Float64s(v)
		if err != nil {
			return nil, fmt.Errorf("run: could not read prediction of "+
				"network %d: %w", i, err)
		}
		predictions[i] = data
	}
	return predictions, nil
}

// Graph returns the computational graph of the value function
func (c *critic) Graph() *G.ExprGraph {
	return c.g
}

// Observation returns the observation input node
func (c *critic) Observation() *G.Node {
	return c.obs
}

// Action returns the action input node
func (c *critic) Action() *G.Node {
	return c.act
}

// BatchSize returns the number of observation-action pairs evaluated
// at once
func (c *critic) BatchSize() int {
	return c.batch
}

// ObsDims returns the number of features of a single observation
func (c *critic) ObsDims() int {
	return c.obsDim
}

// ActionDims returns the number of dimensions of a single action
func (c *critic) ActionDims() int {
	return c.actDim
}

// Networks returns the networks of the value function
func (c *critic) Networks() []*network.MLP {
	return c.nets
}

// Learnables returns the learnables of all networks of the value
// function, in network order
func (c *critic) Learnables() G.Nodes {
	var learnables G.Nodes
	for _, net := range c.nets {
		learnables = append(learnables, net.Learnables()...)
	}
	return learnables
}
