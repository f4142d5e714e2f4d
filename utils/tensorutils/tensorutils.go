// Package tensorutils provides utilities for moving data in and out of
// Gorgonia values.
package tensorutils

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Float64s returns a copy of the data held by a float64 Gorgonia value.
// Scalar values are returned as a slice of length 1.
func Float64s(v G.Value) ([]float64, error) {
	if v == nil {
		return nil, fmt.Errorf("float64s: value is nil, has the graph " +
			"been run?")
	}

	switch data := v.Data().(type) {
	case []float64:
		out := make([]float64, len(data))
		copy(out, data)
		return out, nil

	case float64:
		return []float64{data}, nil

	default:
		return nil, fmt.Errorf("float64s: unsupported data type %T", data)
	}
}

// MustFloat64s is like Float64s but panics on error
func MustFloat64s(v G.Value) []float64 {
	data, err := Float64s(v)
	if err != nil {
		panic(err)
	}
	return data
}

// SetMatrix binds a copy of the row major data to the node n, which
// must be an input node. The length of data must equal the number of
// elements of n.
func SetMatrix(n *G.Node, data []float64) error {
	shape := n.Shape()
	if want := shape.TotalSize(); len(data) != want {
		msg := "setmatrix: invalid number of values for %v \n\twant(%v)" +
			"\n\thave(%v)"
		return fmt.Errorf(msg, n.Name(), want, len(data))
	}

	backing := make([]float64, len(data))
	copy(backing, data)
	t := tensor.New(
		tensor.WithShape(shape.Clone()...),
		tensor.WithBacking(backing),
	)
	if err := G.Let(n, t); err != nil {
		return fmt.Errorf("setmatrix: could not set %v: %w", n.Name(), err)
	}
	return nil
}
