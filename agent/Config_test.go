package agent

import (
	"encoding/json"
	"testing"

	"github.com/samuelfneumann/gosac/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, []int{256, 256}, c.HiddenSizes)
	assert.Equal(t, "relu", c.Activation.String())
	assert.Equal(t, 1, c.BatchSize)
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"NoHidden":   func(c *Config) { c.HiddenSizes = nil },
		"ZeroHidden": func(c *Config) { c.HiddenSizes = []int{4, 0} },
		"Activation": func(c *Config) { c.Activation = nil },
		"InitWFn":    func(c *Config) { c.InitWFn = nil },
		"NumOutputs": func(c *Config) { c.NumOutputs = -1 },
		"BatchSize":  func(c *Config) { c.BatchSize = 0 },
	}

	for name, modify := range tests {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig()
			modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfigWithBatchSize(t *testing.T) {
	c := DefaultConfig()
	b := c.WithBatchSize(32)
	assert.Equal(t, 32, b.BatchSize)
	assert.Equal(t, 1, c.BatchSize)

	b.HiddenSizes[0] = 1
	assert.Equal(t, 256, c.HiddenSizes[0])
}

func TestConfigJSON(t *testing.T) {
	c := DefaultConfig()
	c.NumOutputs = 12
	c.Seed = 99

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NoError(t, decoded.Validate())
	assert.Equal(t, c.HiddenSizes, decoded.HiddenSizes)
	assert.Equal(t, c.Activation.String(), decoded.Activation.String())
	assert.Equal(t, c.InitWFn.Type, decoded.InitWFn.Type)
	assert.Equal(t, c.NumOutputs, decoded.NumOutputs)
	assert.Equal(t, c.Seed, decoded.Seed)
}

func TestRegistry(t *testing.T) {
	const typ Type = "TestActorCritic"
	called := false
	Register(typ, func(obs, act environment.Spec, c Config) (ActorCritic,
		error) {
		called = true
		return nil, nil
	})

	assert.Contains(t, Types(), typ)
	assert.Panics(t, func() { Register(typ, nil) })

	_, err := New(typ, environment.Spec{}, environment.Spec{}, DefaultConfig())
	require.NoError(t, err)
	assert.True(t, called)

	_, err = New("Unregistered", environment.Spec{}, environment.Spec{},
		DefaultConfig())
	assert.Error(t, err)
}
