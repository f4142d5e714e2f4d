package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// UniformConfig configures initialization with weights drawn
// uniformly from [Low, High)
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a new uniform weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	return newInitWFn(UniformConfig{Low: low, High: high})
}

// Type returns Uniform
func (u UniformConfig) Type() Type { return Uniform }

// Create returns a Gorgonia uniform initializer over [Low, High)
func (u UniformConfig) Create() G.InitWFn { return G.Uniform(u.Low, u.High) }

func (u UniformConfig) validate() error {
	if u.Low >= u.High {
		return fmt.Errorf("%v: low (%v) must be less than high (%v)",
			Uniform, u.Low, u.High)
	}
	return nil
}

// GaussianConfig configures initialization with weights drawn from
// N(Mean, StdDev²)
type GaussianConfig struct {
	Mean, StdDev float64
}

// NewGaussian returns a new Gaussian weight initializer
func NewGaussian(mean, stddev float64) (*InitWFn, error) {
	return newInitWFn(GaussianConfig{Mean: mean, StdDev: stddev})
}

// Type returns Gaussian
func (g GaussianConfig) Type() Type { return Gaussian }

// Create returns a Gorgonia Gaussian initializer
func (g GaussianConfig) Create() G.InitWFn { return G.Gaussian(g.Mean, g.StdDev) }

func (g GaussianConfig) validate() error {
	if g.StdDev <= 0 {
		return fmt.Errorf("%v: standard deviation must be positive, got %v",
			Gaussian, g.StdDev)
	}
	return nil
}
