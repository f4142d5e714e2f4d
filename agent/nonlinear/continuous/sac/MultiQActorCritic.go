package sac

import (
	"fmt"

	"github.com/samuelfneumann/gosac/agent"
	"github.com/samuelfneumann/gosac/agent/nonlinear/continuous/qfunction"
	"github.com/samuelfneumann/gosac/environment"
	"github.com/samuelfneumann/gosac/network"
	"github.com/samuelfneumann/gosac/utils/tensorutils"
	G "gorgonia.org/gorgonia"
)

// MultiQActorCritic composes a squashed Gaussian policy with a single
// dual-head action-value function and a state-dependent temperature
// network. The temperature network is an MLP with layer sizes
// (obs, obs, obs, 1) predicting one value per observation.
type MultiQActorCritic struct {
	*base
	q *qfunction.MultiQ

	alpha   *network.MLP
	alphaVM G.VM
}

// NewMultiQActorCritic returns a new MultiQActorCritic acting in the
// action space act given observations from the observation space obs
func NewMultiQActorCritic(obs, act environment.Spec,
	c agent.Config) (*MultiQActorCritic, error) {
	b, err := newBase(agent.MultiQActorCritic, obs, act, c)
	if err != nil {
		return nil, err
	}

	q, err := qfunction.NewMultiQ(G.NewGraph(), c.BatchSize, obs.Dims(),
		act.Dims(), c.HiddenSizes, c.Activation, c.InitWFn.InitWFn(), "Q")
	if err != nil {
		return nil, fmt.Errorf("newMultiQActorCritic: could not construct "+
			"q function: %w", err)
	}

	features := obs.Dims()
	alpha, err := network.NewMLP(G.NewGraph(), c.BatchSize,
		[]int{features, features, features, 1}, c.Activation,
		network.Identity(), c.InitWFn.InitWFn(), "Alpha")
	if err != nil {
		return nil, fmt.Errorf("newMultiQActorCritic: could not construct "+
			"temperature network: %w", err)
	}

	b.components = []agent.Component{
		{Name: "pi", Learnables: b.pi.Learnables()},
		{Name: "q", Learnables: q.Learnables()},
		{Name: "alpha", Learnables: alpha.Learnables()},
	}

	agent.Logger().Debug().
		Str("type", string(agent.MultiQActorCritic)).
		Int("params", network.CountVars(b.Learnables())).
		Msg("constructed actor-critic")

	return &MultiQActorCritic{
		base:    b,
		q:       q,
		alpha:   alpha,
		alphaVM: G.NewTapeMachine(alpha.Graph()),
	}, nil
}

// Q returns the dual-head action-value function
func (m *MultiQActorCritic) Q() *qfunction.MultiQ {
	return m.q
}

// AlphaNetwork returns the temperature network
func (m *MultiQActorCritic) AlphaNetwork() *network.MLP {
	return m.alpha
}

// Alpha returns the output of the temperature network for each of the
// batch of observations obs, given in row major order
func (m *MultiQActorCritic) Alpha(obs []float64) ([]float64, error) {
	if err := m.alpha.SetInput(obs); err != nil {
		return nil, fmt.Errorf("alpha: %w", err)
	}
	if err := m.alphaVM.RunAll(); err != nil {
		m.alphaVM.Reset()
		return nil, fmt.Errorf("alpha: could not run temperature "+
			"network: %w", err)
	}
	defer m.alphaVM.Reset()

	return tensorutils.Float64s(m.alpha.Output())
}

// CloneWithBatch returns a copy of the actor-critic which acts on
// batch observations at once
func (m *MultiQActorCritic) CloneWithBatch(batch int) (agent.ActorCritic,
	error) {
	return m.clone(m, batch)
}
