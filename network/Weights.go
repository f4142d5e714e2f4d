package network

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/samuelfneumann/gosac/utils/tensorutils"
	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Set sets the weights of dest to be equal to the weights of source.
// Both networks must have the same architecture.
func Set(dest, source NeuralNet) error {
	return SetNodes(dest.Learnables(), source.Learnables())
}

// Polyak sets the weights of dest to be a Polyak average between its
// existing weights and the weights of source:
//
//	dest ← (1 - τ) * dest + τ * source
func Polyak(dest, source NeuralNet, tau float64) error {
	return PolyakNodes(dest.Learnables(), source.Learnables(), tau)
}

// SetNodes sets the values of the dest learnables to copies of the
// values of the source learnables
func SetNodes(dest, source G.Nodes) error {
	if err := compatible(dest, source); err != nil {
		return fmt.Errorf("set: %w", err)
	}

	for i := range dest {
		data, err := tensorutils.Float64s(source[i].Value())
		if err != nil {
			return fmt.Errorf("set: could not read %v: %w", source[i].Name(),
				err)
		}
		if err := tensorutils.SetMatrix(dest[i], data); err != nil {
			return fmt.Errorf("set: %w", err)
		}
	}
	return nil
}

// PolyakNodes performs Polyak averaging of the source learnables into
// the dest learnables with step size tau
func PolyakNodes(dest, source G.Nodes, tau float64) error {
	if tau < 0 || tau > 1 {
		return fmt.Errorf("polyak: tau must be in [0, 1], got %v", tau)
	}
	if err := compatible(dest, source); err != nil {
		return fmt.Errorf("polyak: %w", err)
	}

	for i := range dest {
		weights, err := tensorutils.Float64s(dest[i].Value())
		if err != nil {
			return fmt.Errorf("polyak: could not read %v: %w", dest[i].Name(),
				err)
		}
		sourceWeights, err := tensorutils.Float64s(source[i].Value())
		if err != nil {
			return fmt.Errorf("polyak: could not read %v: %w",
				source[i].Name(), err)
		}

		floats.Scale(1-tau, weights)
		floats.AddScaled(weights, tau, sourceWeights)

		if err := tensorutils.SetMatrix(dest[i], weights); err != nil {
			return fmt.Errorf("polyak: %w", err)
		}
	}
	return nil
}

// CountVars returns the total number of scalar parameters held by the
// argument learnables
func CountVars(learnables G.Nodes) int {
	total := 0
	for _, l := range learnables {
		total += l.Shape().TotalSize()
	}
	return total
}

// weightRecord is the serialized form of a single learnable node
type weightRecord struct {
	Name  string
	Shape []int
	Data  []float64
}

// SaveWeights gob-encodes the values of the learnables to w
func SaveWeights(w io.Writer, learnables G.Nodes) error {
	records := make([]weightRecord, len(learnables))
	for i, l := range learnables {
		data, err := tensorutils.Float64s(l.Value())
		if err != nil {
			return fmt.Errorf("saveweights: could not read %v: %w", l.Name(),
				err)
		}
		records[i] = weightRecord{
			Name:  l.Name(),
			Shape: l.Shape().Clone(),
			Data:  data,
		}
	}

	if err := gob.NewEncoder(w).Encode(records); err != nil {
		return fmt.Errorf("saveweights: %w", err)
	}
	return nil
}

// LoadWeights decodes weights written by SaveWeights from r and sets
// them as the values of the learnables. The learnables must have the
// same number and shapes as those that were saved.
func LoadWeights(r io.Reader, learnables G.Nodes) error {
	var records []weightRecord
	if err := gob.NewDecoder(r).Decode(&records); err != nil {
		return fmt.Errorf("loadweights: %w", err)
	}

	if len(records) != len(learnables) {
		msg := "loadweights: invalid number of weights \n\twant(%d)" +
			"\n\thave(%d)"
		return fmt.Errorf(msg, len(learnables), len(records))
	}

	for i, l := range learnables {
		if !l.Shape().Eq(tensor.Shape(records[i].Shape)) {
			msg := "loadweights: invalid shape for %v (saved as %v) " +
				"\n\twant(%v) \n\thave(%v)"
			return fmt.Errorf(msg, l.Name(), records[i].Name, l.Shape(),
				records[i].Shape)
		}
		if err := tensorutils.SetMatrix(l, records[i].Data); err != nil {
			return fmt.Errorf("loadweights: %w", err)
		}
	}
	return nil
}

// compatible returns an error if dest and source learnables cannot be
// copied between each other
func compatible(dest, source G.Nodes) error {
	if len(dest) != len(source) {
		msg := "invalid number of learnables \n\twant(%d) \n\thave(%d)"
		return fmt.Errorf(msg, len(dest), len(source))
	}

	for i := range dest {
		if !dest[i].Shape().Eq(source[i].Shape()) {
			msg := "incompatible shapes for %v and %v \n\twant(%v) " +
				"\n\thave(%v)"
			return fmt.Errorf(msg, dest[i].Name(), source[i].Name(),
				dest[i].Shape(), source[i].Shape())
		}
	}
	return nil
}
