// Package cmd implements the gosac command line tool, which builds
// actor-critics and queries them.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samuelfneumann/gosac/agent"
	_ "github.com/samuelfneumann/gosac/agent/nonlinear/continuous/sac"
	"github.com/samuelfneumann/gosac/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"variant":    "variant",
	"hidden":     "hidden",
	"activation": "activation",
	"init":       "init",
	"num-out":    "num_out",
	"seed":       "seed",
	"obs-dim":    "obs_dim",
	"act-dim":    "act_dim",
	"act-limit":  "act_limit",
	"weights":    "weights",
	"log-level":  "log_level",
}

// app holds the state shared by the commands of one invocation
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// newRootCmd returns the gosac command tree. Each call returns fresh
// flags and configuration.
func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "gosac",
		Short: "Soft Actor-Critic function approximators",
		Long: `gosac builds the actor-critics used by Soft Actor-Critic and
queries them.

Each actor-critic pairs a squashed Gaussian policy with one or more
action-value functions. Weights are freshly initialized unless a weights
file written by "gosac save" is given.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	d := config.Default()
	f := root.PersistentFlags()

	f.StringVar(&a.cfgFile, "config", "", "Config file (json, yaml, or toml)")

	// Architecture
	f.String("variant", d.Variant, "Actor-critic variant ("+
		strings.Join(config.VariantNames(), ", ")+")")
	f.IntSlice("hidden", d.Hidden, "Hidden layer sizes")
	f.String("activation", d.Activation, "Hidden activation (relu, tanh, "+
		"sigmoid, identity)")
	f.String("init", d.Init, "Weight initializer: glorotu, glorotn, heu, "+
		"hen, zeroes, ones, or a JSON config such as "+
		`'{"Type":"Uniform","Config":{"Low":-0.1,"High":0.1}}'`)
	f.Int("num-out", d.NumOut, "Value estimates of multi-output critics "+
		"(0 for the variant default)")
	f.Uint64("seed", d.Seed, "Seed of the action sampler")

	// Spaces
	f.Int("obs-dim", d.ObsDim, "Observation dimensions")
	f.Int("act-dim", d.ActDim, "Action dimensions")
	f.Float64("act-limit", d.ActLimit, "Bound on the absolute value of "+
		"each action dimension")

	f.String("weights", d.Weights, "Weights file to load")

	// Logging
	f.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")

	for name, key := range flagKeys {
		if err := a.v.BindPFlag(key, f.Lookup(name)); err != nil {
			panic(fmt.Sprintf("newRootCmd: could not bind flag %v: %v",
				name, err))
		}
	}

	root.AddCommand(newActCmd(a), newSummaryCmd(a), newSaveCmd(a))
	return root
}

// setup loads the configuration and configures logging
func (a *app) setup(cmd *cobra.Command, args []string) error {
	var err error
	if a.cfg, err = config.Load(a.v, a.cfgFile); err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
		With().Timestamp().Logger().Level(level)
	agent.SetLogger(log.Logger)

	return nil
}

// build constructs the configured actor-critic, loading its weights if
// a weights file is configured
func (a *app) build() (agent.ActorCritic, error) {
	cfg := a.cfg
	obs, act, err := cfg.Spaces()
	if err != nil {
		return nil, err
	}
	c, err := cfg.AgentConfig()
	if err != nil {
		return nil, err
	}

	ac, err := agent.New(cfg.Type(), obs, act, c)
	if err != nil {
		return nil, err
	}

	if cfg.Weights != "" {
		f, err := os.Open(cfg.Weights)
		if err != nil {
			return nil, fmt.Errorf("could not open weights: %w", err)
		}
		defer f.Close()

		if err := ac.Load(f); err != nil {
			return nil, fmt.Errorf("could not load weights: %w", err)
		}
		log.Info().Str("path", cfg.Weights).Msg("loaded weights")
	}

	log.Debug().
		Str("type", string(ac.Type())).
		Str("init", cfg.Init).
		Int("obsDim", cfg.ObsDim).
		Int("actDim", cfg.ActDim).
		Msg("built actor-critic")
	return ac, nil
}

// Execute runs the gosac command line tool
func Execute() error {
	return newRootCmd().Execute()
}
