// Package network implements feed-forward neural networks built on
// Gorgonia computational graphs.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a neural network whose forward pass has been added to a
// Gorgonia computational graph. Running a VM over Graph() computes the
// network's prediction, which is afterwards available from Output().
type NeuralNet interface {
	Graph() *G.ExprGraph
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
}
