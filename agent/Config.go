package agent

import (
	"fmt"

	"github.com/samuelfneumann/gosac/initwfn"
	"github.com/samuelfneumann/gosac/network"
)

// Config describes the architecture shared by all actor-critics. It
// can be JSON serialized, activations and weight initializers are
// stored by type name.
type Config struct {
	// HiddenSizes are the hidden layer sizes of every network
	HiddenSizes []int
	Activation  *network.Activation
	InitWFn     *initwfn.InitWFn

	// NumOutputs is the number of value heads of the multi-output
	// critics. Zero selects the default of each ActorCritic type.
	NumOutputs int

	// BatchSize is the number of observations processed at once
	BatchSize int

	// Seed seeds the action sampler
	Seed uint64
}

// DefaultConfig returns the default configuration: two hidden layers
// of 256 ReLU units initialized with Glorot uniform weights, acting on
// single observations.
func DefaultConfig() Config {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(fmt.Sprintf("defaultconfig: %v", err))
	}

	return Config{
		HiddenSizes: []int{256, 256},
		Activation:  network.ReLU(),
		InitWFn:     init,
		BatchSize:   1,
	}
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c Config) Validate() error {
	if len(c.HiddenSizes) == 0 {
		return fmt.Errorf("validate: at least one hidden layer is required")
	}
	for i, size := range c.HiddenSizes {
		if size <= 0 {
			return fmt.Errorf("validate: hidden layer %d must have a "+
				"positive size, got %d", i, size)
		}
	}
	if c.Activation == nil {
		return fmt.Errorf("validate: activation cannot be nil")
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: weight initializer cannot be nil")
	}
	if c.NumOutputs < 0 {
		return fmt.Errorf("validate: number of outputs cannot be "+
			"negative, got %d", c.NumOutputs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("validate: batch size must be positive, got %d",
			c.BatchSize)
	}
	return nil
}

// WithBatchSize returns a copy of the Config with a new batch size
func (c Config) WithBatchSize(batch int) Config {
	c.HiddenSizes = append([]int(nil), c.HiddenSizes...)
	c.BatchSize = batch
	return c
}
