// Package sac implements the actor-critic function approximators used
// by Soft Actor-Critic. Each actor-critic composes a squashed Gaussian
// policy with one or more action-value functions.
//
// Importing this package registers each actor-critic with the agent
// package, so that they can be constructed with agent.New().
package sac

import (
	"fmt"
	"io"

	"github.com/samuelfneumann/gosac/agent"
	"github.com/samuelfneumann/gosac/agent/nonlinear/continuous/policy"
	"github.com/samuelfneumann/gosac/environment"
	"github.com/samuelfneumann/gosac/network"
	"github.com/samuelfneumann/gosac/timestep"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

func init() {
	agent.Register(agent.MLPActorCritic, func(obs, act environment.Spec,
		c agent.Config) (agent.ActorCritic, error) {
		return NewMLPActorCritic(obs, act, c)
	})
	agent.Register(agent.MultiQActorCritic, func(obs, act environment.Spec,
		c agent.Config) (agent.ActorCritic, error) {
		return NewMultiQActorCritic(obs, act, c)
	})
	agent.Register(agent.SingleQActorCritic, func(obs, act environment.Spec,
		c agent.Config) (agent.ActorCritic, error) {
		return NewSingleQActorCritic(obs, act, c)
	})
	agent.Register(agent.United, func(obs, act environment.Spec,
		c agent.Config) (agent.ActorCritic, error) {
		return NewUnited(obs, act, c)
	})
}

// base implements the functionality shared by all actor-critics: the
// policy, action selection, and weight management in terms of
// Components().
type base struct {
	t       agent.Type
	obsSpec environment.Spec
	actSpec environment.Spec
	config  agent.Config
	pi      *policy.SquashedGaussianTreeMLP

	// Set by the embedding actor-critic once all function
	// approximators are constructed
	components []agent.Component
}

// newBase validates the configuration and constructs the policy of an
// actor-critic in its own graph
func newBase(t agent.Type, obs, act environment.Spec,
	c agent.Config) (*base, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new%v: %w", t, err)
	}

	pi, err := policy.NewSquashedGaussianTreeMLP(G.NewGraph(), obs, act,
		c.BatchSize, c.HiddenSizes, c.Activation, c.InitWFn.InitWFn(),
		c.Seed)
	if err != nil {
		return nil, fmt.Errorf("new%v: could not construct policy: %w", t,
			err)
	}

	return &base{
		t:       t,
		obsSpec: obs,
		actSpec: act,
		config:  c,
		pi:      pi,
	}, nil
}

// Type returns the registered type of the actor-critic
func (b *base) Type() agent.Type {
	return b.t
}

// Config returns the configuration the actor-critic was built with
func (b *base) Config() agent.Config {
	return b.config.WithBatchSize(b.config.BatchSize)
}

// Act returns actions for the batch of observations obs, given in row
// major order. No gradients are tracked.
func (b *base) Act(obs []float64, deterministic bool) ([]float64, error) {
	actions, _, err := b.pi.Forward(obs, deterministic, false)
	if err != nil {
		return nil, fmt.Errorf("act: %w", err)
	}
	return actions, nil
}

// SelectAction selects an action at timestep t, deterministically in
// evaluation mode
func (b *base) SelectAction(t timestep.TimeStep) *mat.VecDense {
	return b.pi.SelectAction(t)
}

// Eval sets the actor-critic to evaluation mode
func (b *base) Eval() { b.pi.Eval() }

// Train sets the actor-critic to training mode
func (b *base) Train() { b.pi.Train() }

// IsEval returns whether the actor-critic is in evaluation mode
func (b *base) IsEval() bool { return b.pi.IsEval() }

// Actor returns the policy of the actor-critic
func (b *base) Actor() agent.Actor {
	return b.pi
}

// Policy returns the squashed Gaussian policy of the actor-critic
func (b *base) Policy() *policy.SquashedGaussianTreeMLP {
	return b.pi
}

// Components returns the named learnables of each function
// approximator of the actor-critic
func (b *base) Components() []agent.Component {
	return append([]agent.Component(nil), b.components...)
}

// Learnables returns the learnables of all components, in order
func (b *base) Learnables() G.Nodes {
	var learnables G.Nodes
	for _, c := range b.components {
		learnables = append(learnables, c.Learnables...)
	}
	return learnables
}

// Set sets the weights of the actor-critic to those of source, which
// must have the same type and architecture
func (b *base) Set(source agent.ActorCritic) error {
	if source.Type() != b.t {
		return fmt.Errorf("set: cannot set weights of %v from %v", b.t,
			source.Type())
	}
	if err := network.SetNodes(b.Learnables(), source.Learnables()); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	return nil
}

// Polyak sets the weights of the actor-critic to a Polyak average of
// its own weights and those of source:
//
//	θ ← (1 - τ) θ + τ θ_source
//
// This is how target networks are updated.
func (b *base) Polyak(source agent.ActorCritic, tau float64) error {
	if source.Type() != b.t {
		return fmt.Errorf("polyak: cannot average weights of %v with %v",
			b.t, source.Type())
	}
	err := network.PolyakNodes(b.Learnables(), source.Learnables(), tau)
	if err != nil {
		return fmt.Errorf("polyak: %w", err)
	}
	return nil
}

// Save writes the weights of all components to w
func (b *base) Save(w io.Writer) error {
	return network.SaveWeights(w, b.Learnables())
}

// Load reads weights written by Save from r
func (b *base) Load(r io.Reader) error {
	return network.LoadWeights(r, b.Learnables())
}

// clone constructs a new actor-critic of the same type as source with
// a different batch size and copies the weights of source into it. The
// policy of the clone is seeded from the policy of source.
func (b *base) clone(source agent.ActorCritic,
	batch int) (agent.ActorCritic, error) {
	c := b.config.WithBatchSize(batch)
	c.Seed = b.pi.NewSeed()
	clone, err := agent.New(b.t, b.obsSpec, b.actSpec, c)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %w", err)
	}
	if err := clone.Set(source); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %w", err)
	}
	if b.IsEval() {
		clone.Eval()
	}
	return clone, nil
}
