package op

import (
	"math"
	"testing"

	"github.com/samuelfneumann/gosac/utils/tensorutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func matrix(g *G.ExprGraph, name string, rows, cols int,
	data []float64) *G.Node {
	return G.NewMatrix(g, tensor.Float64, G.WithShape(rows, cols),
		G.WithName(name), G.WithValue(tensor.New(
			tensor.WithShape(rows, cols),
			tensor.WithBacking(data),
		)))
}

// evaluate runs a VM over g and returns the value of n
func evaluate(t *testing.T, g *G.ExprGraph, n *G.Node) []float64 {
	t.Helper()

	var v G.Value
	G.Read(n, &v)
	vm := G.NewTapeMachine(g)
	defer vm.Close()
	require.NoError(t, vm.RunAll())

	out, err := tensorutils.Float64s(v)
	require.NoError(t, err)
	return out
}

func TestClamp(t *testing.T) {
	g := G.NewGraph()
	x := matrix(g, "x", 2, 4, []float64{-30, -20, -3.5, 0, 1.9, 2, 2.1, 50})

	clamped, err := Clamp(x, -20, 2)
	require.NoError(t, err)
	assert.Equal(t, x.Shape(), clamped.Shape())

	got := evaluate(t, g, clamped)
	assert.Equal(t, []float64{-20, -20, -3.5, 0, 1.9, 2, 2, 2}, got)

	_, err = Clamp(x, 1, -1)
	assert.Error(t, err)
}

func TestGaussianLogPdf(t *testing.T) {
	mean := []float64{0, 1, -0.5, 2}
	logStd := []float64{0, -1, 0.5, 1}
	x := []float64{0.3, 1, -2, 0}

	g := G.NewGraph()
	logPdf, err := GaussianLogPdf(
		matrix(g, "mean", 2, 2, mean),
		matrix(g, "logStd", 2, 2, logStd),
		matrix(g, "x", 2, 2, x),
	)
	require.NoError(t, err)
	got := evaluate(t, g, logPdf)
	require.Len(t, got, 2)

	for i := 0; i < 2; i++ {
		want := 0.0
		for j := 0; j < 2; j++ {
			k := 2*i + j
			std := math.Exp(logStd[k])
			z := (x[k] - mean[k]) / std
			want += math.Log(math.Exp(-0.5*z*z) / (std * math.Sqrt(2*math.Pi)))
		}
		assert.InDelta(t, want, got[i], 1e-12)
	}
}

func TestGaussianLogPdfGraphs(t *testing.T) {
	g1, g2 := G.NewGraph(), G.NewGraph()
	_, err := GaussianLogPdf(
		matrix(g1, "mean", 1, 1, []float64{0}),
		matrix(g1, "logStd", 1, 1, []float64{0}),
		matrix(g2, "x", 1, 1, []float64{0}),
	)
	assert.Error(t, err)
}

func TestTanhLogDetJacobian(t *testing.T) {
	u := []float64{0, 0.5, -1.5, 3, -0.1, 2}

	g := G.NewGraph()
	correction, err := TanhLogDetJacobian(matrix(g, "u", 2, 3, u))
	require.NoError(t, err)
	got := evaluate(t, g, correction)
	require.Len(t, got, 2)

	for i := 0; i < 2; i++ {
		want := 0.0
		for j := 0; j < 3; j++ {
			tanh := math.Tanh(u[3*i+j])
			want += math.Log(1 - tanh*tanh)
		}
		assert.InDelta(t, want, got[i], 1e-9)
	}
}

func TestTanhLogDetJacobianStable(t *testing.T) {
	// log(1 - tanh²(u)) is -Inf in floating point for u = 40
	g := G.NewGraph()
	correction, err := TanhLogDetJacobian(matrix(g, "u", 1, 2,
		[]float64{40, -40}))
	require.NoError(t, err)
	got := evaluate(t, g, correction)

	// 2(log 2 - |u|) for large |u|, twice
	want := 2 * 2 * (math.Ln2 - 40)
	assert.InDelta(t, want, got[0], 1e-9)
}
