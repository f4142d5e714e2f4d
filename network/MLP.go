package network

import (
	"fmt"

	"github.com/samuelfneumann/gosac/utils/tensorutils"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLP implements a multi-layered perceptron. Given layer sizes
// [s0, s1, ..., sN], the MLP maps inputs with s0 features through N
// fully connected layers to outputs with sN features. All layers but
// the last use the hidden activation, the last layer uses the output
// activation.
type MLP struct {
	g      *G.ExprGraph
	layers []Layer

	// The MLP may be built on top of existing nodes, in which case
	// input is their concatenation and cannot be set directly
	input     *G.Node
	ownsInput bool

	numInputs  int
	numOutputs int
	batchSize  int

	// Architecture, needed for cloning
	sizes            []int
	activation       *Activation
	outputActivation *Activation
	prefix           string

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// validateSizes checks that an MLP can be built from the argument
// layer sizes and activations
func validateSizes(sizes []int, activation, outputActivation *Activation) error {
	if len(sizes) < 2 {
		return fmt.Errorf("at least two layer sizes are required, got %d",
			len(sizes))
	}
	for i, size := range sizes {
		if size <= 0 {
			return fmt.Errorf("layer size %d must be positive, got %d", i,
				size)
		}
	}
	if activation == nil || outputActivation == nil {
		return fmt.Errorf("activations cannot be nil")
	}
	return nil
}

// NewMLP creates a new MLP with layer sizes defined by sizes in the
// graph g. The MLP creates its own input node of shape
// (batch, sizes[0]), which is set with SetInput().
//
// The prefix is prepended to the names of all nodes that the MLP adds
// to the graph, so that multiple MLPs can live in the same graph.
func NewMLP(g *G.ExprGraph, batch int, sizes []int, activation,
	outputActivation *Activation, init G.InitWFn, prefix string) (*MLP, error) {
	if err := validateSizes(sizes, activation, outputActivation); err != nil {
		return nil, fmt.Errorf("newmlp: %w", err)
	}
	if batch <= 0 {
		return nil, fmt.Errorf("newmlp: batch size must be positive, got %d",
			batch)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, sizes[0]),
		G.WithName(prefix+"Input"), G.WithInit(G.Zeroes()))

	net, err := newMLP([]*G.Node{input}, sizes, activation, outputActivation,
		init, prefix)
	if err != nil {
		return nil, fmt.Errorf("newmlp: %w", err)
	}
	net.ownsInput = true

	return net, nil
}

// NewMLPFromInputs creates a new MLP whose input is given by the
// argument nodes. If multiple input nodes are given, they are first
// concatenated along the feature (column) dimension, and the total
// number of features must equal sizes[0]. All inputs must be matrices
// in the same graph with the same batch size.
//
// Since the MLP does not own its input, SetInput() cannot be used on
// the returned MLP. Inputs should instead be set through the argument
// nodes.
func NewMLPFromInputs(inputs []*G.Node, sizes []int, activation,
	outputActivation *Activation, init G.InitWFn, prefix string) (*MLP, error) {
	if err := validateSizes(sizes, activation, outputActivation); err != nil {
		return nil, fmt.Errorf("newmlpfrominputs: %w", err)
	}

	net, err := newMLP(inputs, sizes, activation, outputActivation, init,
		prefix)
	if err != nil {
		return nil, fmt.Errorf("newmlpfrominputs: %w", err)
	}

	return net, nil
}

// newMLP adds the layers of an MLP to the graph of inputs and computes
// its forward pass
func newMLP(inputs []*G.Node, sizes []int, activation,
	outputActivation *Activation, init G.InitWFn, prefix string) (*MLP, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("at least one input node is required")
	}

	g := inputs[0].Graph()
	for _, in := range inputs {
		if in.Graph() != g {
			return nil, fmt.Errorf("not all inputs have the same graph")
		}
		if !in.IsMatrix() {
			return nil, fmt.Errorf("input %v must be a matrix", in.Name())
		}
	}

	// Concatenate inputs if necessary
	input := inputs[0]
	if len(inputs) > 1 {
		var err error
		if input, err = G.Concat(1, inputs...); err != nil {
			return nil, fmt.Errorf("could not concatenate inputs: %w", err)
		}
	}

	if features := input.Shape()[1]; features != sizes[0] {
		msg := "invalid number of input features \n\twant(%d) \n\thave(%d)"
		return nil, fmt.Errorf(msg, sizes[0], features)
	}

	activations := make([]*Activation, len(sizes)-1)
	for i := range activations {
		if i < len(activations)-1 {
			activations[i] = activation
		} else {
			activations[i] = outputActivation
		}
	}

	layers, err := addFCLayers(g, sizes, activations, init, prefix)
	if err != nil {
		return nil, err
	}

	net := &MLP{
		g:                g,
		layers:           layers,
		input:            input,
		numInputs:        sizes[0],
		numOutputs:       sizes[len(sizes)-1],
		batchSize:        input.Shape()[0],
		sizes:            append([]int(nil), sizes...),
		activation:       activation,
		outputActivation: outputActivation,
		prefix:           prefix,
	}

	if _, err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("could not compute forward pass: %w", err)
	}

	return net, nil
}

// fwd performs the forward pass of the MLP on the input node
func (m *MLP) fwd(input *G.Node) (*G.Node, error) {
	pred := input
	var err error
	for i, l := range m.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %w"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	m.prediction = pred
	G.Read(m.prediction, &m.predVal)

	return pred, nil
}

// Graph returns the computational graph of the MLP
func (m *MLP) Graph() *G.ExprGraph {
	return m.g
}

// CloneWithBatch returns a copy of the MLP in a new computational
// graph with a new input batch size. The clone owns its input node,
// even if the MLP was constructed from existing input nodes.
func (m *MLP) CloneWithBatch(batch int) (NeuralNet, error) {
	clone, err := NewMLP(G.NewGraph(), batch, m.sizes, m.activation,
		m.outputActivation, G.Zeroes(), m.prefix)
	if err != nil {
		return nil, fmt.Errorf("clonewithbatch: %w", err)
	}

	if err := Set(clone, m); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not copy weights: %w",
			err)
	}
	return clone, nil
}

// BatchSize returns the batch size of inputs to the MLP
func (m *MLP) BatchSize() int {
	return m.batchSize
}

// Features returns the number of features in a single input vector
func (m *MLP) Features() int {
	return m.numInputs
}

// Outputs returns the number of outputs per input vector
func (m *MLP) Outputs() int {
	return m.numOutputs
}

// Sizes returns the layer sizes of the MLP
func (m *MLP) Sizes() []int {
	return append([]int(nil), m.sizes...)
}

// Layers returns the layers of the MLP
func (m *MLP) Layers() []Layer {
	return m.layers
}

// SetInput sets the value of the input node before running the forward
// pass. The input should be a batch of input vectors in row major
// order.
func (m *MLP) SetInput(input []float64) error {
	if !m.ownsInput {
		return fmt.Errorf("setinput: MLP was constructed from external " +
			"input nodes")
	}
	return tensorutils.SetMatrix(m.input, input)
}

// Learnables returns the learnable nodes of the MLP, ordered by layer
// with each layer's weights preceding its bias
func (m *MLP) Learnables() G.Nodes {
	if m.learnables == nil {
		learnables := make(G.Nodes, 0, 2*len(m.layers))
		for _, l := range m.layers {
			learnables = append(learnables, l.Weights(), l.Bias())
		}
		m.learnables = learnables
	}
	return m.learnables
}

// Model returns the learnable nodes with their gradients
func (m *MLP) Model() []G.ValueGrad {
	if m.model == nil {
		m.model = model(m.Learnables())
	}
	return m.model
}

// Output returns the value of the MLP's prediction, available after a
// VM has been run over the MLP's graph
func (m *MLP) Output() G.Value {
	return m.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the MLP
func (m *MLP) Prediction() *G.Node {
	return m.prediction
}

// model converts learnable nodes to ValueGrads for use with solvers
func model(learnables G.Nodes) []G.ValueGrad {
	m := make([]G.ValueGrad, 0, len(learnables))
	for _, node := range learnables {
		m = append(m, node)
	}
	return m
}
