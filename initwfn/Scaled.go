package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Scaled initializers draw weights with a variance scaled by the fan in
// and fan out of each weight matrix, multiplied by a gain.

// validateGain returns an error if gain cannot scale a variance
func validateGain(t Type, gain float64) error {
	if gain <= 0 {
		return fmt.Errorf("%v: gain must be positive, got %v", t, gain)
	}
	return nil
}

// GlorotUConfig configures Glorot uniform initialization
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

func (g GlorotUConfig) Type() Type        { return GlorotU }
func (g GlorotUConfig) Create() G.InitWFn { return G.GlorotU(g.Gain) }
func (g GlorotUConfig) validate() error   { return validateGain(GlorotU, g.Gain) }

// GlorotNConfig configures Glorot normal initialization
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot normal weight initializer
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotNConfig{Gain: gain})
}

func (g GlorotNConfig) Type() Type        { return GlorotN }
func (g GlorotNConfig) Create() G.InitWFn { return G.GlorotN(g.Gain) }
func (g GlorotNConfig) validate() error   { return validateGain(GlorotN, g.Gain) }

// HeUConfig configures He uniform initialization, which suits ReLU
// hidden layers
type HeUConfig struct {
	Gain float64
}

// NewHeU returns a new He uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	return newInitWFn(HeUConfig{Gain: gain})
}

func (h HeUConfig) Type() Type        { return HeU }
func (h HeUConfig) Create() G.InitWFn { return G.HeU(h.Gain) }
func (h HeUConfig) validate() error   { return validateGain(HeU, h.Gain) }

// HeNConfig configures He normal initialization
type HeNConfig struct {
	Gain float64
}

// NewHeN returns a new He normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	return newInitWFn(HeNConfig{Gain: gain})
}

func (h HeNConfig) Type() Type        { return HeN }
func (h HeNConfig) Create() G.InitWFn { return G.HeN(h.Gain) }
func (h HeNConfig) validate() error   { return validateGain(HeN, h.Gain) }
