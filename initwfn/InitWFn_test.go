package initwfn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestJSONRoundTrip(t *testing.T) {
	constructors := map[Type]func() (*InitWFn, error){
		GlorotU:  func() (*InitWFn, error) { return NewGlorotU(1.0) },
		GlorotN:  func() (*InitWFn, error) { return NewGlorotN(0.5) },
		HeU:      func() (*InitWFn, error) { return NewHeU(2.0) },
		HeN:      func() (*InitWFn, error) { return NewHeN(1.0) },
		Zeroes:   NewZeroes,
		Ones:     NewOnes,
		Constant: func() (*InitWFn, error) { return NewConstant(0.3) },
		Uniform:  func() (*InitWFn, error) { return NewUniform(-0.1, 0.1) },
		Gaussian: func() (*InitWFn, error) { return NewGaussian(0, 0.01) },
	}

	for typ, constructor := range constructors {
		t.Run(string(typ), func(t *testing.T) {
			init, err := constructor()
			require.NoError(t, err)
			assert.Equal(t, typ, init.Type)

			data, err := json.Marshal(init)
			require.NoError(t, err)

			decoded := &InitWFn{}
			require.NoError(t, json.Unmarshal(data, decoded))
			assert.Equal(t, init.Type, decoded.Type)
			assert.Equal(t, init.Config, decoded.Config)
			assert.NotNil(t, decoded.InitWFn())
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := map[string]string{
		"MissingType": `{"Config": {}}`,
		"UnknownType": `{"Type": "Orthogonal", "Config": {}}`,
		"NotJSON":     `Type: GlorotU`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, json.Unmarshal([]byte(data), &InitWFn{}))
		})
	}
}

func TestConstantValues(t *testing.T) {
	init, err := NewConstant(0.3)
	require.NoError(t, err)

	g := G.NewGraph()
	w := G.NewMatrix(g, tensor.Float64, G.WithShape(2, 2), G.WithName("w"),
		G.WithInit(init.InitWFn()))
	assert.Equal(t, []float64{0.3, 0.3, 0.3, 0.3}, w.Value().Data())
}

func TestParse(t *testing.T) {
	tests := map[string]struct {
		in   string
		want Config
	}{
		"Name":      {in: "heu", want: HeUConfig{Gain: 1}},
		"MixedCase": {in: " GlorotN ", want: GlorotNConfig{Gain: 1}},
		"Zeroes":    {in: "zeroes", want: ZeroesConfig{}},
		"Uniform": {
			in:   `{"Type": "Uniform", "Config": {"Low": -0.1, "High": 0.1}}`,
			want: UniformConfig{Low: -0.1, High: 0.1},
		},
		"Gaussian": {
			in:   `{"Type": "Gaussian", "Config": {"Mean": 0, "StdDev": 0.5}}`,
			want: GaussianConfig{Mean: 0, StdDev: 0.5},
		},
		"HeN": {
			in:   `{"Type": "HeN", "Config": {"Gain": 2}}`,
			want: HeNConfig{Gain: 2},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			init, err := Parse(test.in)
			require.NoError(t, err)
			assert.Equal(t, test.want, init.Config)
			assert.Equal(t, test.want.Type(), init.Type)
			assert.NotNil(t, init.InitWFn())
		})
	}
}

func TestInvalidParameters(t *testing.T) {
	_, err := NewGlorotU(0)
	assert.Error(t, err)
	_, err = NewHeN(-1)
	assert.Error(t, err)
	_, err = NewUniform(1, -1)
	assert.Error(t, err)
	_, err = NewGaussian(0, 0)
	assert.Error(t, err)

	for _, s := range []string{
		"orthogonal",
		"constant",
		`{"Type": "Uniform", "Config": {"Low": 1, "High": 1}}`,
		`{"Type": "GlorotU", "Config": {"Gain": 0}}`,
	} {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestGaussianValues(t *testing.T) {
	init, err := Parse(`{"Type": "Gaussian", "Config": {"Mean": 5, "StdDev": 1e-9}}`)
	require.NoError(t, err)

	g := G.NewGraph()
	w := G.NewMatrix(g, tensor.Float64, G.WithShape(3, 2), G.WithName("w"),
		G.WithInit(init.InitWFn()))
	for _, v := range w.Value().Data().([]float64) {
		assert.InDelta(t, 5.0, v, 1e-6)
	}
}
