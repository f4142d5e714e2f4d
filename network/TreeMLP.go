package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// TreeMLP implements a multi-layered perceptron with a root network
// and multiple leaf networks that use the output of the root network
// as their own inputs. A diagram of a tree MLP:
//
//	                  ╭─→ Leaf Network 1       ─→ Output
//	                  ├─→ Leaf Network 2       ─→ Output
//	Input ─→ Root Net ─┼─→ ...                  ─→  ...
//	                  ├─→ Leaf Network (N - 1) ─→ Output
//	                  ╰─→ Leaf Network N       ─→ Output
//
// The root network applies the hidden activation after every layer,
// including its last, so that it acts as a shared feature trunk. Each
// leaf network ends in a linear layer producing Outputs() values.
type TreeMLP struct {
	g            *G.ExprGraph
	rootNetwork  *MLP
	leafNetworks []*MLP

	numInputs  int
	numOutputs int
	batchSize  int

	// Architecture, needed for cloning
	rootHiddenSizes []int
	leafHiddenSizes [][]int
	activation      *Activation
	prefix          string

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node // Leaf predictions concatenated along columns
	predVal    G.Value
}

// NewTreeMLP returns a new TreeMLP in the graph g with input of shape
// (batch, features).
//
// The root network has len(rootHiddenSizes) layers, layer i having
// rootHiddenSizes[i] units. The number of leaf networks is
// len(leafHiddenSizes), and leaf network i has the hidden layers
// described by leafHiddenSizes[i] followed by a final linear layer of
// outputs units. Setting leafHiddenSizes[i] to an empty slice makes
// leaf i a single linear layer on top of the root network.
func NewTreeMLP(g *G.ExprGraph, batch, features, outputs int,
	rootHiddenSizes []int, leafHiddenSizes [][]int, activation *Activation,
	init G.InitWFn, prefix string) (*TreeMLP, error) {
	if len(rootHiddenSizes) == 0 {
		return nil, fmt.Errorf("newtreemlp: root network must have at " +
			"least one hidden layer")
	}
	if len(leafHiddenSizes) == 0 {
		return nil, fmt.Errorf("newtreemlp: there must be at least one " +
			"leaf network")
	}
	if outputs <= 0 {
		return nil, fmt.Errorf("newtreemlp: there must be more than 0 " +
			"outputs per leaf network")
	}

	rootSizes := append([]int{features}, rootHiddenSizes...)
	root, err := NewMLP(g, batch, rootSizes, activation, activation, init,
		prefix+"Root")
	if err != nil {
		return nil, fmt.Errorf("newtreemlp: could not construct root "+
			"network: %w", err)
	}

	trunk := rootHiddenSizes[len(rootHiddenSizes)-1]
	leaves := make([]*MLP, len(leafHiddenSizes))
	for i, hidden := range leafHiddenSizes {
		sizes := make([]int, 0, len(hidden)+2)
		sizes = append(sizes, trunk)
		sizes = append(sizes, hidden...)
		sizes = append(sizes, outputs)

		leafPrefix := fmt.Sprintf("%sLeaf%d", prefix, i)
		leaves[i], err = NewMLPFromInputs([]*G.Node{root.Prediction()},
			sizes, activation, Identity(), init, leafPrefix)
		if err != nil {
			return nil, fmt.Errorf("newtreemlp: could not construct leaf "+
				"network %d: %w", i, err)
		}
	}

	leafHidden := make([][]int, len(leafHiddenSizes))
	for i := range leafHiddenSizes {
		leafHidden[i] = append([]int(nil), leafHiddenSizes[i]...)
	}

	net := &TreeMLP{
		g:               g,
		rootNetwork:     root,
		leafNetworks:    leaves,
		numInputs:       features,
		numOutputs:      outputs,
		batchSize:       batch,
		rootHiddenSizes: append([]int(nil), rootHiddenSizes...),
		leafHiddenSizes: leafHidden,
		activation:      activation,
		prefix:          prefix,
	}

	if err := net.fwd(); err != nil {
		return nil, fmt.Errorf("newtreemlp: %w", err)
	}
	return net, nil
}

// fwd computes the remaining steps of the forward pass of the TreeMLP
// that its root and leaf networks did not compute.
func (t *TreeMLP) fwd() error {
	if len(t.leafNetworks) == 1 {
		t.prediction = t.leafNetworks[0].Prediction()
	} else {
		leafPredictions := make([]*G.Node, len(t.leafNetworks))
		for i, leaf := range t.leafNetworks {
			leafPredictions[i] = leaf.Prediction()
		}

		var err error
		t.prediction, err = G.Concat(1, leafPredictions...)
		if err != nil {
			return fmt.Errorf("fwd: could not concatenate leaf "+
				"predictions: %w", err)
		}
	}

	G.Read(t.prediction, &t.predVal)
	return nil
}

// Graph returns the computational graph of the network
func (t *TreeMLP) Graph() *G.ExprGraph {
	return t.g
}

// CloneWithBatch returns a clone of the TreeMLP in a new graph with a
// new input batch size.
func (t *TreeMLP) CloneWithBatch(batch int) (NeuralNet, error) {
	clone, err := NewTreeMLP(G.NewGraph(), batch, t.numInputs,
		t.numOutputs, t.rootHiddenSizes, t.leafHiddenSizes, t.activation,
		G.Zeroes(), t.prefix)
	if err != nil {
		return nil, fmt.Errorf("clonewithbatch: %w", err)
	}

	if err := Set(clone, t); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not copy weights: %w",
			err)
	}
	return clone, nil
}

// BatchSize returns the batch size for inputs to the network
func (t *TreeMLP) BatchSize() int {
	return t.batchSize
}

// Features returns the number of input features
func (t *TreeMLP) Features() int {
	return t.numInputs
}

// Outputs returns the number of outputs per leaf network
func (t *TreeMLP) Outputs() int {
	return t.numOutputs
}

// NumLeaves returns the number of leaf networks
func (t *TreeMLP) NumLeaves() int {
	return len(t.leafNetworks)
}

// SetInput sets the value of the input node before running the forward
// pass.
func (t *TreeMLP) SetInput(input []float64) error {
	return t.rootNetwork.SetInput(input)
}

// Input returns the input node of the network
func (t *TreeMLP) Input() *G.Node {
	return t.rootNetwork.input
}

// Root returns the root network
func (t *TreeMLP) Root() *MLP {
	return t.rootNetwork
}

// Leaf returns the node holding the prediction of leaf network i
func (t *TreeMLP) Leaf(i int) *G.Node {
	return t.leafNetworks[i].Prediction()
}

// Output returns the output of the TreeMLP, the predictions of each
// leaf network concatenated along the column dimension.
func (t *TreeMLP) Output() G.Value {
	return t.predVal
}

// Prediction returns the node of the computational graph the stores
// the output of the TreeMLP
func (t *TreeMLP) Prediction() *G.Node {
	return t.prediction
}

// Learnables returns the learnable nodes of the root network followed
// by those of each leaf network
func (t *TreeMLP) Learnables() G.Nodes {
	if t.learnables == nil {
		learnables := make(G.Nodes, 0)
		learnables = append(learnables, t.rootNetwork.Learnables()...)
		for _, leaf := range t.leafNetworks {
			learnables = append(learnables, leaf.Learnables()...)
		}
		t.learnables = learnables
	}
	return t.learnables
}

// Model returns the learnable nodes with their gradients.
func (t *TreeMLP) Model() []G.ValueGrad {
	if t.model == nil {
		t.model = model(t.Learnables())
	}
	return t.model
}
