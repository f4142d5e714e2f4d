package policy

import (
	"math"
	"testing"

	"github.com/samuelfneumann/gosac/environment"
	"github.com/samuelfneumann/gosac/network"
	"github.com/samuelfneumann/gosac/timestep"
	"github.com/samuelfneumann/gosac/utils/floatutils"
	"github.com/samuelfneumann/gosac/utils/tensorutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

func spaces(t testing.TB, obsDim, actDim int,
	limit float64) (environment.Spec, environment.Spec) {
	obsLow, obsHigh := make([]float64, obsDim), make([]float64, obsDim)
	for i := range obsLow {
		obsLow[i], obsHigh[i] = math.Inf(-1), math.Inf(1)
	}
	obs, err := environment.NewBox(environment.Observation, obsLow, obsHigh)
	require.NoError(t, err)

	actLow, actHigh := make([]float64, actDim), make([]float64, actDim)
	for i := range actLow {
		actLow[i], actHigh[i] = -limit, limit
	}
	act, err := environment.NewBox(environment.Action, actLow, actHigh)
	require.NoError(t, err)
	return obs, act
}

func newPolicy(t testing.TB, batch int, activation *network.Activation,
	init G.InitWFn) *SquashedGaussianTreeMLP {
	obs, act := spaces(t, 4, 2, 2.5)
	p, err := NewSquashedGaussianTreeMLP(G.NewGraph(), obs, act, batch,
		[]int{32, 32}, activation, init, 1)
	require.NoError(t, err)
	return p
}

func randomObs(rng *rand.Rand, n int, scale float64) []float64 {
	obs := make([]float64, n)
	for i := range obs {
		obs[i] = (2*rng.Float64() - 1) * scale
	}
	return obs
}

func TestSquashedGaussianActionsWithinLimit(t *testing.T) {
	batch := 16
	p := newPolicy(t, batch, network.ReLU(), G.GlorotU(1.0))
	rng := rand.New(rand.NewSource(3))

	for _, scale := range []float64{1, 100, 1e4} {
		for _, deterministic := range []bool{true, false} {
			obs := randomObs(rng, batch*p.Features(), scale)
			actions, logProb, err := p.Forward(obs, deterministic, true)
			require.NoError(t, err)
			require.Len(t, actions, batch*p.ActionDims())
			require.Len(t, logProb, batch)

			assert.LessOrEqual(t, floatutils.MaxAbs(actions), p.Limit())
		}
	}
}

func TestSquashedGaussianLogStdClamped(t *testing.T) {
	obs := []float64{10, 10, 10, 10}

	tests := map[string]struct {
		weight float64
		want   float64
	}{
		"Above": {weight: 1, want: LogStdMax},
		"Below": {weight: -1, want: LogStdMin},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			p := newPolicy(t, 1, network.TanH(), G.ValuesOf(test.weight))

			_, logStd, err := p.Distribution(obs)
			require.NoError(t, err)
			for _, v := range logStd {
				assert.Equal(t, test.want, v)
			}

			actions, logProb, err := p.Forward(obs, false, true)
			require.NoError(t, err)
			assert.True(t, floatutils.AllFinite(actions))
			assert.LessOrEqual(t, floatutils.MaxAbs(actions), p.Limit())
			assert.Len(t, logProb, 1)
		})
	}
}

func TestSquashedGaussianDeterministic(t *testing.T) {
	batch := 4
	p := newPolicy(t, batch, network.ReLU(), G.GlorotN(1.0))
	obs := randomObs(rand.New(rand.NewSource(5)), batch*p.Features(), 1)

	mean, _, err := p.Distribution(obs)
	require.NoError(t, err)

	first, _, err := p.Forward(obs, true, false)
	require.NoError(t, err)
	second, _, err := p.Forward(obs, true, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for i := range mean {
		assert.InDelta(t, p.Limit()*math.Tanh(mean[i]), first[i], 1e-12)
	}

	sampled, _, err := p.Forward(obs, false, false)
	require.NoError(t, err)
	assert.NotEqual(t, first, sampled)
}

func TestSquashedGaussianLogProb(t *testing.T) {
	batch := 3
	p := newPolicy(t, batch, network.TanH(), G.GlorotU(1.0))
	rng := rand.New(rand.NewSource(7))
	obs := randomObs(rng, batch*p.Features(), 1)
	noise := randomObs(rng, batch*p.ActionDims(), 1.5)

	mean, logStd, err := p.Distribution(obs)
	require.NoError(t, err)

	actions, logProb, err := p.ForwardWithNoise(obs, noise, true)
	require.NoError(t, err)

	dims := p.ActionDims()
	for i := 0; i < batch; i++ {
		want := 0.0
		for j := 0; j < dims; j++ {
			k := i*dims + j
			u := mean[k] + math.Exp(logStd[k])*noise[k]
			assert.InDelta(t, p.Limit()*math.Tanh(u), actions[k], 1e-9)

			want += -0.5*noise[k]*noise[k] - logStd[k] -
				0.5*math.Log(2*math.Pi)
			want -= math.Log(1 - math.Pow(math.Tanh(u), 2))
		}
		assert.InDelta(t, want, logProb[i], 1e-6)
	}
}

func TestSquashedGaussianGradientsFlow(t *testing.T) {
	batch := 2
	p := newPolicy(t, batch, network.TanH(), G.GlorotU(1.0))
	rng := rand.New(rand.NewSource(11))

	cost := G.Must(G.Sum(p.LogProb()))
	_, err := G.Grad(cost, p.Learnables()...)
	require.NoError(t, err)

	vm := G.NewTapeMachine(p.Graph(), G.BindDualValues(p.Learnables()...))
	defer vm.Close()

	require.NoError(t, p.SetInput(randomObs(rng, batch*p.Features(), 1)))
	require.NoError(t, p.SetNoise(randomObs(rng, batch*p.ActionDims(), 1)))
	require.NoError(t, vm.RunAll())

	for _, l := range p.Learnables() {
		grad, err := l.Grad()
		require.NoError(t, err, l.Name())

		data, err := tensorutils.Float64s(grad)
		require.NoError(t, err)
		assert.Len(t, data, l.Shape().TotalSize())
		assert.NotZero(t, floatutils.MaxAbs(data), l.Name())
	}
}

func TestSquashedGaussianSelectAction(t *testing.T) {
	p := newPolicy(t, 1, network.ReLU(), G.GlorotU(1.0))
	obs := mat.NewVecDense(4, []float64{0.1, -0.2, 0.3, -0.4})
	step := timestep.New(timestep.First, 0, 1, obs, 0)

	p.Eval()
	require.True(t, p.IsEval())
	first := p.SelectAction(step)
	second := p.SelectAction(step)
	assert.True(t, mat.Equal(first, second))
	assert.Equal(t, 2, first.Len())

	p.Train()
	require.False(t, p.IsEval())
	sampled := p.SelectAction(step)
	assert.False(t, mat.Equal(first, sampled))
}

func TestSquashedGaussianCloneWithBatch(t *testing.T) {
	p := newPolicy(t, 1, network.ReLU(), G.GlorotU(1.0))
	obs := randomObs(rand.New(rand.NewSource(13)), 3*p.Features(), 1)

	clone, err := p.CloneWithBatch(3)
	require.NoError(t, err)
	assert.Equal(t, 3, clone.BatchSize())
	assert.NotSame(t, p.Graph(), clone.Graph())

	batched, _, err := clone.Forward(obs, true, false)
	require.NoError(t, err)

	dims := p.ActionDims()
	for i := 0; i < 3; i++ {
		single, _, err := p.Forward(obs[i*4:(i+1)*4], true, false)
		require.NoError(t, err)
		assert.InDeltaSlice(t, single, batched[i*dims:(i+1)*dims], 1e-12)
	}
}

func TestSquashedGaussianClonesSampleOwnNoise(t *testing.T) {
	p := newPolicy(t, 1, network.ReLU(), G.GlorotU(1.0))
	obs := []float64{0.1, 0.2, 0.3, 0.4}

	first, err := p.CloneWithBatch(1)
	require.NoError(t, err)
	second, err := p.CloneWithBatch(1)
	require.NoError(t, err)

	sampled := make([][]float64, 0, 3)
	for _, pol := range []*SquashedGaussianTreeMLP{p, first, second} {
		action, _, err := pol.Forward(obs, false, false)
		require.NoError(t, err)
		sampled = append(sampled, action)
	}

	assert.NotEqual(t, sampled[0], sampled[1])
	assert.NotEqual(t, sampled[0], sampled[2])
	assert.NotEqual(t, sampled[1], sampled[2])

	// Same weights, so the means still agree
	want, _, err := p.Forward(obs, true, false)
	require.NoError(t, err)
	got, _, err := first.Forward(obs, true, false)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-12)
}

func TestNewSquashedGaussianErrors(t *testing.T) {
	obs, act := spaces(t, 3, 1, 1)

	_, err := NewSquashedGaussianTreeMLP(G.NewGraph(), obs, act, 0,
		[]int{8}, network.ReLU(), G.GlorotU(1), 0)
	assert.Error(t, err)

	_, err = NewSquashedGaussianTreeMLP(G.NewGraph(), obs, act, 1,
		nil, network.ReLU(), G.GlorotU(1), 0)
	assert.Error(t, err)

	_, zero := spaces(t, 3, 1, 0)
	_, err = NewSquashedGaussianTreeMLP(G.NewGraph(), obs, zero, 1,
		[]int{8}, network.ReLU(), G.GlorotU(1), 0)
	assert.Error(t, err)

	discrete := act
	discrete.Cardinality = environment.Discrete
	_, err = NewSquashedGaussianTreeMLP(G.NewGraph(), obs, discrete, 1,
		[]int{8}, network.ReLU(), G.GlorotU(1), 0)
	assert.Error(t, err)

	p, err := NewSquashedGaussianTreeMLP(G.NewGraph(), obs, act, 1,
		[]int{8}, network.ReLU(), G.GlorotU(1), 0)
	require.NoError(t, err)
	_, _, err = p.Forward([]float64{1, 2}, true, false)
	assert.Error(t, err)
	_, _, err = p.ForwardWithNoise([]float64{1, 2, 3}, []float64{1, 2}, false)
	assert.Error(t, err)
}

func BenchmarkSquashedGaussianForward(b *testing.B) {
	p := newPolicy(b, 1, network.ReLU(), G.GlorotU(1.0))
	obs := []float64{0.1, 0.2, 0.3, 0.4}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := p.Forward(obs, false, true); err != nil {
			b.Fatal(err)
		}
	}
}
