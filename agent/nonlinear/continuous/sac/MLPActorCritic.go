package sac

import (
	"fmt"

	"github.com/samuelfneumann/gosac/agent"
	"github.com/samuelfneumann/gosac/agent/nonlinear/continuous/qfunction"
	"github.com/samuelfneumann/gosac/environment"
	"github.com/samuelfneumann/gosac/network"
	G "gorgonia.org/gorgonia"
)

// MLPActorCritic composes a squashed Gaussian policy with two
// independent action-value functions, each an MLP in its own graph.
type MLPActorCritic struct {
	*base
	q1 *qfunction.MLPQFunction
	q2 *qfunction.MLPQFunction
}

// NewMLPActorCritic returns a new MLPActorCritic acting in the action
// space act given observations from the observation space obs
func NewMLPActorCritic(obs, act environment.Spec,
	c agent.Config) (*MLPActorCritic, error) {
	b, err := newBase(agent.MLPActorCritic, obs, act, c)
	if err != nil {
		return nil, err
	}

	q := make([]*qfunction.MLPQFunction, 2)
	for i := range q {
		q[i], err = qfunction.NewMLPQFunction(G.NewGraph(), c.BatchSize,
			obs.Dims(), act.Dims(), c.HiddenSizes, c.Activation,
			c.InitWFn.InitWFn(), fmt.Sprintf("Q%d", i+1))
		if err != nil {
			return nil, fmt.Errorf("newMLPActorCritic: could not construct "+
				"q function %d: %w", i+1, err)
		}
	}

	b.components = []agent.Component{
		{Name: "pi", Learnables: b.pi.Learnables()},
		{Name: "q1", Learnables: q[0].Learnables()},
		{Name: "q2", Learnables: q[1].Learnables()},
	}

	agent.Logger().Debug().
		Str("type", string(agent.MLPActorCritic)).
		Int("params", network.CountVars(b.Learnables())).
		Msg("constructed actor-critic")

	return &MLPActorCritic{base: b, q1: q[0], q2: q[1]}, nil
}

// Q1 returns the first action-value function
func (m *MLPActorCritic) Q1() *qfunction.MLPQFunction {
	return m.q1
}

// Q2 returns the second action-value function
func (m *MLPActorCritic) Q2() *qfunction.MLPQFunction {
	return m.q2
}

// CloneWithBatch returns a copy of the actor-critic which acts on
// batch observations at once
func (m *MLPActorCritic) CloneWithBatch(batch int) (agent.ActorCritic,
	error) {
	return m.clone(m, batch)
}
