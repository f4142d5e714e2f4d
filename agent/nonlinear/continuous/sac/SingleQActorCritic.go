package sac

import (
	"fmt"

	"github.com/samuelfneumann/gosac/agent"
	"github.com/samuelfneumann/gosac/agent/nonlinear/continuous/qfunction"
	"github.com/samuelfneumann/gosac/environment"
	"github.com/samuelfneumann/gosac/network"
	G "gorgonia.org/gorgonia"
)

// DefaultSingleQOutputs is the number of value estimates of a
// SingleQActorCritic when the configuration does not set one
const DefaultSingleQOutputs = 10

// SingleQActorCritic composes a squashed Gaussian policy with a single
// MLP action-value function with many linear outputs.
type SingleQActorCritic struct {
	*base
	q *qfunction.SingleQ
}

// NewSingleQActorCritic returns a new SingleQActorCritic acting in the
// action space act given observations from the observation space obs
func NewSingleQActorCritic(obs, act environment.Spec,
	c agent.Config) (*SingleQActorCritic, error) {
	if c.NumOutputs == 0 {
		c.NumOutputs = DefaultSingleQOutputs
	}
	b, err := newBase(agent.SingleQActorCritic, obs, act, c)
	if err != nil {
		return nil, err
	}

	q, err := qfunction.NewSingleQ(G.NewGraph(), c.BatchSize, obs.Dims(),
		act.Dims(), c.NumOutputs, c.HiddenSizes, c.Activation,
		network.Identity(), c.InitWFn.InitWFn(), "Q")
	if err != nil {
		return nil, fmt.Errorf("newSingleQActorCritic: could not "+
			"construct q function: %w", err)
	}

	b.components = []agent.Component{
		{Name: "pi", Learnables: b.pi.Learnables()},
		{Name: "q", Learnables: q.Learnables()},
	}

	agent.Logger().Debug().
		Str("type", string(agent.SingleQActorCritic)).
		Int("outputs", c.NumOutputs).
		Int("params", network.CountVars(b.Learnables())).
		Msg("constructed actor-critic")

	return &SingleQActorCritic{base: b, q: q}, nil
}

// Q returns the multi-output action-value function
func (s *SingleQActorCritic) Q() *qfunction.SingleQ {
	return s.q
}

// CloneWithBatch returns a copy of the actor-critic which acts on
// batch observations at once
func (s *SingleQActorCritic) CloneWithBatch(batch int) (agent.ActorCritic,
	error) {
	return s.clone(s, batch)
}
