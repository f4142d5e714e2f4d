package sac

import (
	"fmt"

	"github.com/samuelfneumann/gosac/agent"
	"github.com/samuelfneumann/gosac/agent/nonlinear/continuous/qfunction"
	"github.com/samuelfneumann/gosac/environment"
	"github.com/samuelfneumann/gosac/network"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// DefaultUnitedOutputs is the number of value estimates of a United
// actor-critic when the configuration does not set one
const DefaultUnitedOutputs = 16

// United holds a squashed Gaussian policy and a multi-output
// action-value function as a single unit, so that the two are always
// saved, copied, and averaged together. The outputs of the value
// function are followed by the hidden activation.
type United struct {
	*base
	value *qfunction.SingleQ
}

// NewUnited returns a new United actor-critic acting in the action
// space act given observations from the observation space obs
func NewUnited(obs, act environment.Spec, c agent.Config) (*United,
	error) {
	if c.NumOutputs == 0 {
		c.NumOutputs = DefaultUnitedOutputs
	}
	b, err := newBase(agent.United, obs, act, c)
	if err != nil {
		return nil, err
	}

	value, err := qfunction.NewSingleQ(G.NewGraph(), c.BatchSize,
		obs.Dims(), act.Dims(), c.NumOutputs, c.HiddenSizes, c.Activation,
		c.Activation, c.InitWFn.InitWFn(), "Value")
	if err != nil {
		return nil, fmt.Errorf("newUnited: could not construct value "+
			"function: %w", err)
	}

	b.components = []agent.Component{
		{Name: "pi", Learnables: b.pi.Learnables()},
		{Name: "value", Learnables: value.Learnables()},
	}

	agent.Logger().Debug().
		Str("type", string(agent.United)).
		Int("outputs", c.NumOutputs).
		Int("params", network.CountVars(b.Learnables())).
		Msg("constructed actor-critic")

	return &United{base: b, value: value}, nil
}

// Value returns the action-value function of the unit
func (u *United) Value() *qfunction.SingleQ {
	return u.value
}

// ForwardValue returns the value estimates for each observation-action
// pair as a matrix of shape (outputs, batch)
func (u *United) ForwardValue(obs, act []float64) (*mat.Dense, error) {
	values, err := u.value.Forward(obs, act)
	if err != nil {
		return nil, fmt.Errorf("forwardValue: %w", err)
	}
	return values, nil
}

// CloneWithBatch returns a copy of the actor-critic which acts on
// batch observations at once
func (u *United) CloneWithBatch(batch int) (agent.ActorCritic, error) {
	return u.clone(u, batch)
}
