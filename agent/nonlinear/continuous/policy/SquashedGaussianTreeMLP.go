// Package policy implements policies parameterized by neural networks
// over continuous action spaces.
package policy

import (
	"fmt"

	"github.com/samuelfneumann/gosac/agent"
	"github.com/samuelfneumann/gosac/environment"
	"github.com/samuelfneumann/gosac/network"
	"github.com/samuelfneumann/gosac/timestep"
	"github.com/samuelfneumann/gosac/utils/floatutils"
	"github.com/samuelfneumann/gosac/utils/op"
	"github.com/samuelfneumann/gosac/utils/tensorutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Bounds on the log standard deviation predicted by the policy
const (
	LogStdMin float64 = -20
	LogStdMax float64 = 2
)

// SquashedGaussianTreeMLP implements a Gaussian policy whose samples
// are squashed by tanh and scaled to the bounds of the action space.
// The policy is parameterized by a tree MLP with a single root network
// and two linear leaf networks. One leaf predicts the mean and the
// other the log standard deviation. See the network.TreeMLP struct
// for more details.
//
// Actions are selected with the reparameterization trick. Given the
// mean μ and standard deviation σ predicted by the network and
// standard normal noise ɛ ~ N(0, I), the pre-squash sample is
// u := μ + σ ⊙ ɛ and the action is a := limit * tanh(u). The noise
// is an input node of the graph, so gradients of any function of the
// action or its log probability flow back to the network weights. In
// deterministic mode the noise is zero and u = μ.
//
// The log probability of an action accounts for the change of
// variables introduced by tanh:
//
//	log π(a|s) = Σⱼ log N(uⱼ; μⱼ, σⱼ) - Σⱼ 2(log 2 - uⱼ - softplus(-2uⱼ))
//
// Since the noise is an input to the graph, the log probability
// computed is always that of the action the policy selected.
type SquashedGaussianTreeMLP struct {
	vm  G.VM
	net *network.TreeMLP

	noise     *G.Node
	mean      *G.Node
	logStd    *G.Node
	std       *G.Node
	preSquash *G.Node
	action    *G.Node
	logProb   *G.Node

	meanVal    G.Value
	logStdVal  G.Value
	actionVal  G.Value
	logProbVal G.Value

	normal     distmv.Rander
	source     rand.Source // shared with normal
	actionDims int
	limit      float64
	eval       bool

	// Architecture, needed for cloning
	obsSpec     environment.Spec
	actSpec     environment.Spec
	hiddenSizes []int
	activation  *network.Activation
}

// NewSquashedGaussianTreeMLP returns a new SquashedGaussianTreeMLP
// policy in the graph g which selects actions for batch observations
// at a time. The policy selects actions from the action space act
// given observations from the observation space obs. Actions are
// scaled to [-limit, limit], where limit is the upper bound of the
// first dimension of act.
//
// The root network of the policy has one layer per element of
// hiddenSizes, each followed by activation. The init parameter
// determines the weight initialization scheme for the neural net and
// the seed parameter determines the seed of the policy's noise
// sampler.
func NewSquashedGaussianTreeMLP(g *G.ExprGraph, obs, act environment.Spec,
	batch int, hiddenSizes []int, activation *network.Activation,
	init G.InitWFn, seed uint64) (*SquashedGaussianTreeMLP, error) {
	if act.Cardinality != environment.Continuous {
		return nil, fmt.Errorf("newSquashedGaussianTreeMLP: actions " +
			"should be continuous")
	}
	limit := act.Limit()
	if limit <= 0 {
		return nil, fmt.Errorf("newSquashedGaussianTreeMLP: action "+
			"limit must be positive, got %v", limit)
	}
	if batch <= 0 {
		return nil, fmt.Errorf("newSquashedGaussianTreeMLP: batch size "+
			"must be positive, got %d", batch)
	}

	features := obs.Dims()
	actionDims := act.Dims()

	net, err := network.NewTreeMLP(g, batch, features, actionDims,
		hiddenSizes, [][]int{{}, {}}, activation, init, "Policy")
	if err != nil {
		return nil, fmt.Errorf("newSquashedGaussianTreeMLP: could not "+
			"construct network: %w", err)
	}

	mean := net.Leaf(0)
	logStd, err := op.Clamp(net.Leaf(1), LogStdMin, LogStdMax)
	if err != nil {
		return nil, fmt.Errorf("newSquashedGaussianTreeMLP: could not "+
			"clamp log standard deviation: %w", err)
	}
	std := G.Must(G.Exp(logStd))

	// Reparameterized sample u = μ + σ ⊙ ɛ
	noise := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithName("PolicyNoise"),
		G.WithShape(batch, actionDims),
		G.WithInit(G.Zeroes()),
	)
	preSquash := G.Must(G.Add(mean, G.Must(G.HadamardProd(std, noise))))

	gaussianLogProb, err := op.GaussianLogPdf(mean, logStd, preSquash)
	if err != nil {
		return nil, fmt.Errorf("newSquashedGaussianTreeMLP: %w", err)
	}
	correction, err := op.TanhLogDetJacobian(preSquash)
	if err != nil {
		return nil, fmt.Errorf("newSquashedGaussianTreeMLP: %w", err)
	}
	logProb := G.Must(G.Sub(gaussianLogProb, correction))

	action := G.Must(G.Tanh(preSquash))
	action = G.Must(G.HadamardProd(G.NewConstant(limit), action))

	// Create standard normal for noise sampling
	means := make([]float64, actionDims)
	stds := mat.NewDiagDense(actionDims, floatutils.Ones(actionDims))
	source := rand.NewSource(seed)
	normal, ok := distmv.NewNormal(means, stds, source)
	if !ok {
		return nil, fmt.Errorf("newSquashedGaussianTreeMLP: could not " +
			"create standard normal for action selection")
	}

	pol := &SquashedGaussianTreeMLP{
		net: net,

		noise:     noise,
		mean:      mean,
		logStd:    logStd,
		std:       std,
		preSquash: preSquash,
		action:    action,
		logProb:   logProb,

		normal:     normal,
		source:     source,
		actionDims: actionDims,
		limit:      limit,

		obsSpec:     obs,
		actSpec:     act,
		hiddenSizes: append([]int(nil), hiddenSizes...),
		activation:  activation,
	}

	// Record values of Gorgonia nodes
	G.Read(pol.mean, &pol.meanVal)
	G.Read(pol.logStd, &pol.logStdVal)
	G.Read(pol.action, &pol.actionVal)
	G.Read(pol.logProb, &pol.logProbVal)

	pol.vm = G.NewTapeMachine(g)

	agent.Logger().Debug().
		Int("features", features).
		Int("actionDims", actionDims).
		Int("batch", batch).
		Float64("limit", limit).
		Int("params", network.CountVars(net.Learnables())).
		Msg("constructed squashed gaussian policy")

	return pol, nil
}

// Forward computes actions for the batch of observations obs given in
// row major order. If deterministic is true, the squashed mean of the
// policy is returned, otherwise actions are sampled. If withLogProb is
// true, the log probability of each action is returned as well,
// otherwise the returned log probability is nil.
//
// Forward runs the policy's own VM, which does not track gradients.
func (p *SquashedGaussianTreeMLP) Forward(obs []float64, deterministic,
	withLogProb bool) (actions, logProb []float64, err error) {
	if err := p.SampleNoise(deterministic); err != nil {
		return nil, nil, fmt.Errorf("forward: %w", err)
	}
	return p.forward(obs, withLogProb)
}

// ForwardWithNoise is like Forward, but uses the given standard normal
// noise, of shape (BatchSize(), ActionDims()) in row major order,
// instead of sampling it.
func (p *SquashedGaussianTreeMLP) ForwardWithNoise(obs, noise []float64,
	withLogProb bool) (actions, logProb []float64, err error) {
	if err := p.SetNoise(noise); err != nil {
		return nil, nil, fmt.Errorf("forwardWithNoise: %w", err)
	}
	return p.forward(obs, withLogProb)
}

// forward runs the VM on obs with the noise currently set
func (p *SquashedGaussianTreeMLP) forward(obs []float64,
	withLogProb bool) (actions, logProb []float64, err error) {
	if err := p.run(obs); err != nil {
		return nil, nil, err
	}
	defer p.vm.Reset()

	actions, err = tensorutils.Float64s(p.actionVal)
	if err != nil {
		return nil, nil, fmt.Errorf("forward: could not read actions: %w",
			err)
	}
	if !withLogProb {
		return actions, nil, nil
	}

	logProb, err = tensorutils.Float64s(p.logProbVal)
	if err != nil {
		return nil, nil, fmt.Errorf("forward: could not read log "+
			"probabilities: %w", err)
	}
	return actions, logProb, nil
}

// Distribution returns the mean and clamped log standard deviation of
// the Gaussian, before squashing, for the batch of observations obs.
func (p *SquashedGaussianTreeMLP) Distribution(obs []float64) (mean,
	logStd []float64, err error) {
	if err := p.run(obs); err != nil {
		return nil, nil, err
	}
	defer p.vm.Reset()

	if mean, err = tensorutils.Float64s(p.meanVal); err != nil {
		return nil, nil, fmt.Errorf("distribution: could not read mean: %w",
			err)
	}
	if logStd, err = tensorutils.Float64s(p.logStdVal); err != nil {
		return nil, nil, fmt.Errorf("distribution: could not read log "+
			"standard deviation: %w", err)
	}
	return mean, logStd, nil
}

// run sets the observations and runs the VM. The caller must reset
// the VM once it has read the values it needs.
func (p *SquashedGaussianTreeMLP) run(obs []float64) error {
	if err := p.SetInput(obs); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := p.vm.RunAll(); err != nil {
		p.vm.Reset()
		return fmt.Errorf("run: could not run policy: %w", err)
	}
	return nil
}

// SelectAction selects an action at the timestep t. The action is
// sampled in training mode and is the squashed mean in evaluation
// mode. The policy must have a batch size of 1.
func (p *SquashedGaussianTreeMLP) SelectAction(
	t timestep.TimeStep) *mat.VecDense {
	if p.BatchSize() != 1 {
		panic("selectAction: cannot select an action from batch policy, " +
			"can only learn weights using a batch policy")
	}

	actions, _, err := p.Forward(t.ObservationData(), p.eval, false)
	if err != nil {
		panic(fmt.Sprintf("selectAction: %v", err))
	}
	return mat.NewVecDense(p.actionDims, actions)
}

// SetInput sets the observations input to the policy
func (p *SquashedGaussianTreeMLP) SetInput(obs []float64) error {
	return p.net.SetInput(obs)
}

// SetNoise sets the standard normal noise used to sample actions
func (p *SquashedGaussianTreeMLP) SetNoise(noise []float64) error {
	if err := tensorutils.SetMatrix(p.noise, noise); err != nil {
		return fmt.Errorf("setNoise: %w", err)
	}
	return nil
}

// SampleNoise samples new standard normal noise into the noise input
// of the policy. If deterministic is true, the noise is set to zero
// so that the policy outputs its squashed mean.
func (p *SquashedGaussianTreeMLP) SampleNoise(deterministic bool) error {
	noise := make([]float64, p.BatchSize()*p.actionDims)
	if !deterministic {
		for i := 0; i < p.BatchSize(); i++ {
			p.normal.Rand(noise[i*p.actionDims : (i+1)*p.actionDims])
		}
	}
	return p.SetNoise(noise)
}

// Eval sets the policy to evaluation mode
func (p *SquashedGaussianTreeMLP) Eval() { p.eval = true }

// Train sets the policy to training mode
func (p *SquashedGaussianTreeMLP) Train() { p.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (p *SquashedGaussianTreeMLP) IsEval() bool { return p.eval }

// BatchSize returns the number of observations the policy acts on at
// once
func (p *SquashedGaussianTreeMLP) BatchSize() int {
	return p.net.BatchSize()
}

// Features returns the number of features in a single observation
func (p *SquashedGaussianTreeMLP) Features() int {
	return p.net.Features()
}

// ActionDims returns the number of dimensions of a single action
func (p *SquashedGaussianTreeMLP) ActionDims() int {
	return p.actionDims
}

// Limit returns the largest absolute value of an action component
func (p *SquashedGaussianTreeMLP) Limit() float64 {
	return p.limit
}

// Graph returns the computational graph of the policy
func (p *SquashedGaussianTreeMLP) Graph() *G.ExprGraph {
	return p.net.Graph()
}

// Network returns the network parameterizing the policy
func (p *SquashedGaussianTreeMLP) Network() network.NeuralNet {
	return p.net
}

// Learnables returns the learnable nodes of the policy
func (p *SquashedGaussianTreeMLP) Learnables() G.Nodes {
	return p.net.Learnables()
}

// Observation returns the observation input node of shape
// (batch, features)
func (p *SquashedGaussianTreeMLP) Observation() *G.Node {
	return p.net.Input()
}

// Noise returns the standard normal noise input node of shape
// (batch, action dims)
func (p *SquashedGaussianTreeMLP) Noise() *G.Node {
	return p.noise
}

// Mean returns the node holding the mean of the Gaussian
func (p *SquashedGaussianTreeMLP) Mean() *G.Node {
	return p.mean
}

// LogStd returns the node holding the clamped log standard deviation
// of the Gaussian
func (p *SquashedGaussianTreeMLP) LogStd() *G.Node {
	return p.logStd
}

// Std returns the node holding the standard deviation of the Gaussian
func (p *SquashedGaussianTreeMLP) Std() *G.Node {
	return p.std
}

// PreSquash returns the node holding the reparameterized sample
// before tanh is applied
func (p *SquashedGaussianTreeMLP) PreSquash() *G.Node {
	return p.preSquash
}

// Action returns the node holding the squashed and scaled actions of
// shape (batch, action dims)
func (p *SquashedGaussianTreeMLP) Action() *G.Node {
	return p.action
}

// LogProb returns the node holding the log probability of each action
// in Action(), of shape (batch)
func (p *SquashedGaussianTreeMLP) LogProb() *G.Node {
	return p.logProb
}

// NewSeed draws a seed from the noise source of the policy. Copies of
// the policy are seeded this way so that they do not replay its noise.
func (p *SquashedGaussianTreeMLP) NewSeed() uint64 {
	return p.source.Uint64()
}

// CloneWithBatch returns a copy of the policy, with its own graph,
// that acts on batch observations at once. The copy samples its own
// noise.
func (p *SquashedGaussianTreeMLP) CloneWithBatch(
	batch int) (*SquashedGaussianTreeMLP, error) {
	clone, err := NewSquashedGaussianTreeMLP(G.NewGraph(), p.obsSpec,
		p.actSpec, batch, p.hiddenSizes, p.activation, G.Zeroes(),
		p.NewSeed())
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %w", err)
	}
	if err := network.Set(clone.net, p.net); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: could not set weights: %w",
			err)
	}
	clone.eval = p.eval
	return clone, nil
}
