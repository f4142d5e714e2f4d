// Package environment describes the observation and action spaces of
// the environments that agents interact with
package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an acion, an observation, a discount, or a reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

func (s SpecType) String() string {
	switch s {
	case Action:
		return "Action"
	case Observation:
		return "Observation"
	case Discount:
		return "Discount"
	default:
		return "Reward"
	}
}

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action, observation, discount, or reward in
// an environment
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations, etc.). The cardinality
// arguments describes whether the values that the spec describes are
// continuous or discrete.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// NewBox returns a continuous Spec whose i-th dimension lies in
// [low[i], high[i]]
func NewBox(t SpecType, low, high []float64) (Spec, error) {
	if len(low) == 0 {
		return Spec{}, fmt.Errorf("newbox: bounds cannot be empty")
	}
	if len(low) != len(high) {
		msg := "newbox: bounds must have the same length \n\tlow(%d)" +
			"\n\thigh(%d)"
		return Spec{}, fmt.Errorf(msg, len(low), len(high))
	}
	for i := range low {
		if low[i] > high[i] {
			return Spec{}, fmt.Errorf("newbox: lower bound %v exceeds "+
				"upper bound %v in dimension %d", low[i], high[i], i)
		}
	}

	shape := mat.NewVecDense(len(low), nil)
	lower := mat.NewVecDense(len(low), append([]float64(nil), low...))
	upper := mat.NewVecDense(len(high), append([]float64(nil), high...))
	return NewSpec(shape, t, lower, upper, Continuous), nil
}

// Dims returns the number of dimensions described by the Spec
func (s Spec) Dims() int {
	return s.Shape.Len()
}

// Limit returns the upper bound of the first dimension of the Spec.
// For symmetric action spaces this is the largest absolute value any
// action component may take.
func (s Spec) Limit() float64 {
	return s.UpperBound.AtVec(0)
}
