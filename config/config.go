// Package config holds the configuration of the gosac command line
// tool. Configuration is read, in increasing order of precedence, from
// defaults, an optional config file, GOSAC_ environment variables, and
// command line flags.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/samuelfneumann/gosac/agent"
	"github.com/samuelfneumann/gosac/environment"
	"github.com/samuelfneumann/gosac/initwfn"
	"github.com/samuelfneumann/gosac/network"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load
const EnvPrefix = "GOSAC"

// Variants maps the names of actor-critic variants to their types
var Variants = map[string]agent.Type{
	"mlp":     agent.MLPActorCritic,
	"multiq":  agent.MultiQActorCritic,
	"singleq": agent.SingleQActorCritic,
	"united":  agent.United,
}

// Config holds all gosac configuration
type Config struct {
	// Actor-critic architecture
	Variant    string `mapstructure:"variant"`
	Hidden     []int  `mapstructure:"hidden"`
	Activation string `mapstructure:"activation"`
	Init       string `mapstructure:"init"`
	NumOut     int    `mapstructure:"num_out"`
	Seed       uint64 `mapstructure:"seed"`

	// Spaces
	ObsDim   int     `mapstructure:"obs_dim"`
	ActDim   int     `mapstructure:"act_dim"`
	ActLimit float64 `mapstructure:"act_limit"`

	// Weights file written by Save, empty for fresh weights
	Weights string `mapstructure:"weights"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		Variant:    "mlp",
		Hidden:     []int{256, 256},
		Activation: "relu",
		Init:       "glorotu",
		NumOut:     0, // per-variant default
		Seed:       0,
		ObsDim:     3,
		ActDim:     1,
		ActLimit:   1.0,
		LogLevel:   "info",
	}
}

// Load reads the configuration from v. If path is not empty, the
// config file at path is read first.
func Load(v *viper.Viper, path string) (*Config, error) {
	d := Default()
	v.SetDefault("variant", d.Variant)
	v.SetDefault("hidden", d.Hidden)
	v.SetDefault("activation", d.Activation)
	v.SetDefault("init", d.Init)
	v.SetDefault("num_out", d.NumOut)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("obs_dim", d.ObsDim)
	v.SetDefault("act_dim", d.ActDim)
	v.SetDefault("act_limit", d.ActLimit)
	v.SetDefault("weights", d.Weights)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load: could not read config file: %w",
				err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, ok := Variants[strings.ToLower(c.Variant)]; !ok {
		return fmt.Errorf("variant %q is not one of %v", c.Variant,
			VariantNames())
	}
	if len(c.Hidden) == 0 {
		return fmt.Errorf("hidden must have at least one layer")
	}
	for _, h := range c.Hidden {
		if h <= 0 {
			return fmt.Errorf("hidden layer sizes must be positive")
		}
	}
	if _, err := network.ActivationByName(c.Activation); err != nil {
		return err
	}
	if _, err := initwfn.Parse(c.Init); err != nil {
		return err
	}
	if c.NumOut < 0 {
		return fmt.Errorf("num_out cannot be negative")
	}
	if c.ObsDim <= 0 || c.ActDim <= 0 {
		return fmt.Errorf("obs_dim and act_dim must be positive")
	}
	if c.ActLimit <= 0 || math.IsInf(c.ActLimit, 0) {
		return fmt.Errorf("act_limit must be positive and finite")
	}
	return nil
}

// Type returns the actor-critic type of the configured variant
func (c *Config) Type() agent.Type {
	return Variants[strings.ToLower(c.Variant)]
}

// Spaces returns the unbounded observation space and the symmetric
// action space [-ActLimit, ActLimit] described by the config
func (c *Config) Spaces() (obs, act environment.Spec, err error) {
	obsLow, obsHigh := make([]float64, c.ObsDim), make([]float64, c.ObsDim)
	for i := range obsLow {
		obsLow[i], obsHigh[i] = math.Inf(-1), math.Inf(1)
	}
	obs, err = environment.NewBox(environment.Observation, obsLow, obsHigh)
	if err != nil {
		return obs, act, fmt.Errorf("spaces: %w", err)
	}

	actLow, actHigh := make([]float64, c.ActDim), make([]float64, c.ActDim)
	for i := range actLow {
		actLow[i], actHigh[i] = -c.ActLimit, c.ActLimit
	}
	act, err = environment.NewBox(environment.Action, actLow, actHigh)
	if err != nil {
		return obs, act, fmt.Errorf("spaces: %w", err)
	}
	return obs, act, nil
}

// AgentConfig returns the actor-critic configuration described by the
// config, acting on single observations
func (c *Config) AgentConfig() (agent.Config, error) {
	activation, err := network.ActivationByName(c.Activation)
	if err != nil {
		return agent.Config{}, fmt.Errorf("agentConfig: %w", err)
	}
	init, err := initwfn.Parse(c.Init)
	if err != nil {
		return agent.Config{}, fmt.Errorf("agentConfig: %w", err)
	}

	return agent.Config{
		HiddenSizes: append([]int(nil), c.Hidden...),
		Activation:  activation,
		InitWFn:     init,
		NumOutputs:  c.NumOut,
		BatchSize:   1,
		Seed:        c.Seed,
	}, nil
}

// VariantNames returns the sorted names of all variants
func VariantNames() []string {
	return []string{"mlp", "multiq", "singleq", "united"}
}
