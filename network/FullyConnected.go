package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer is a single layer of a feed forward neural network
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newFCLayer adds the weights and bias of a fully connected layer with
// in inputs and out outputs to the graph g. Weights are initialized
// with init and biases with zeroes, matching the layout x·W + b where
// x is a (batch, in) matrix.
func newFCLayer(g *G.ExprGraph, in, out int, act *Activation,
	init G.InitWFn, name string) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(in, out),
		G.WithName(name+"Weights"),
		G.WithInit(init),
	)
	bias := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, out),
		G.WithName(name+"Bias"),
		G.WithInit(G.Zeroes()),
	)

	return &fcLayer{
		weights: weights,
		bias:    bias,
		act:     act,
	}
}

// addFCLayers adds one fully connected layer per consecutive pair of
// sizes to the graph g. Layer i maps sizes[i] to sizes[i+1] features
// and uses activations[i].
func addFCLayers(g *G.ExprGraph, sizes []int, activations []*Activation,
	init G.InitWFn, prefix string) ([]Layer, error) {
	if len(activations) != len(sizes)-1 {
		msg := "addfclayers: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(sizes)-1, len(activations))
	}

	layers := make([]Layer, 0, len(sizes)-1)
	for i := 0; i < len(sizes)-1; i++ {
		name := fmt.Sprintf("%sL%d", prefix, i)
		layers = append(layers, newFCLayer(g, sizes[i], sizes[i+1],
			activations[i], init, name))
	}
	return layers, nil
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	var err error
	if x, err = G.Mul(x, f.weights); err != nil {
		return nil, fmt.Errorf("fwd: %w", err)
	}

	// Broadcast the bias weights to all samples along the batch
	// dimension
	if x, err = G.BroadcastAdd(x, f.bias, nil, []byte{0}); err != nil {
		return nil, fmt.Errorf("fwd: %w", err)
	}

	if f.act == nil {
		return x, nil
	}
	return f.act.fwd(x)
}

// Activation returns the activation function of the layer
func (f *fcLayer) Activation() *Activation {
	return f.act
}

// Bias returns the bias node of the layer
func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

// Weights returns the weight node of the layer
func (f *fcLayer) Weights() *G.Node {
	return f.weights
}
