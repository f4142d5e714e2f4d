package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/gosac/agent"
	"github.com/samuelfneumann/gosac/initwfn"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, agent.MLPActorCritic, c.Type())
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"Variant":    func(c *Config) { c.Variant = "dqn" },
		"NoHidden":   func(c *Config) { c.Hidden = nil },
		"Hidden":     func(c *Config) { c.Hidden = []int{8, 0} },
		"Activation": func(c *Config) { c.Activation = "gelu" },
		"Init":       func(c *Config) { c.Init = "orthogonal" },
		"InitParams": func(c *Config) { c.Init = `{"Type": "HeU", "Config": {"Gain": 0}}` },
		"NumOut":     func(c *Config) { c.NumOut = -1 },
		"ObsDim":     func(c *Config) { c.ObsDim = 0 },
		"ActDim":     func(c *Config) { c.ActDim = -2 },
		"ActLimit":   func(c *Config) { c.ActLimit = 0 },
	}

	for name, modify := range tests {
		t.Run(name, func(t *testing.T) {
			c := Default()
			modify(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gosac.yaml")
	contents := "variant: singleq\nhidden: [32, 16]\nact_limit: 2.5\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	t.Setenv("GOSAC_OBS_DIM", "7")

	c, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, agent.SingleQActorCritic, c.Type())
	assert.Equal(t, []int{32, 16}, c.Hidden)
	assert.Equal(t, 2.5, c.ActLimit)
	assert.Equal(t, 7, c.ObsDim)
	assert.Equal(t, Default().ActDim, c.ActDim)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("GOSAC_VARIANT", "unknown")
	_, err := Load(viper.New(), "")
	assert.Error(t, err)

	_, err = Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSpacesAndAgentConfig(t *testing.T) {
	c := Default()
	c.ObsDim, c.ActDim, c.ActLimit = 5, 3, 0.75

	obs, act, err := c.Spaces()
	require.NoError(t, err)
	assert.Equal(t, 5, obs.Dims())
	assert.Equal(t, 3, act.Dims())
	assert.Equal(t, 0.75, act.Limit())

	ac, err := c.AgentConfig()
	require.NoError(t, err)
	require.NoError(t, ac.Validate())
	assert.Equal(t, c.Hidden, ac.HiddenSizes)
	assert.Equal(t, "relu", ac.Activation.String())
	assert.Equal(t, 1, ac.BatchSize)
}

func TestAgentConfigInit(t *testing.T) {
	tests := map[string]initwfn.Config{
		"glorotu": initwfn.GlorotUConfig{Gain: 1},
		"HeN":     initwfn.HeNConfig{Gain: 1},
		`{"Type": "Gaussian", "Config": {"Mean": 0, "StdDev": 0.1}}`: initwfn.GaussianConfig{StdDev: 0.1},
	}

	for init, want := range tests {
		t.Run(init, func(t *testing.T) {
			c := Default()
			c.Init = init
			require.NoError(t, c.Validate())

			ac, err := c.AgentConfig()
			require.NoError(t, err)
			assert.Equal(t, want, ac.InitWFn.Config)
		})
	}
}

func TestLoadInitFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gosac.yaml")
	contents := "init: '{\"Type\": \"Uniform\", \"Config\": {\"Low\": -1, \"High\": 1}}'\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	c, err := Load(viper.New(), path)
	require.NoError(t, err)
	ac, err := c.AgentConfig()
	require.NoError(t, err)
	assert.Equal(t, initwfn.UniformConfig{Low: -1, High: 1}, ac.InitWFn.Config)
	assert.Equal(t, "glorotu", Default().Init)
}
