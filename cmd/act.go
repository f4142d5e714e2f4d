package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newActCmd(a *app) *cobra.Command {
	var (
		obs           []float64
		deterministic bool
	)

	cmd := &cobra.Command{
		Use:   "act",
		Short: "Select an action for a single observation",
		Long: `Select an action for a single observation.

The action is sampled from the policy unless --deterministic is set, in
which case the squashed mean of the policy is returned.`,
		Example: "  gosac act --obs-dim 3 --act-dim 2 --obs 0.1,-0.5,2",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAct(cmd, obs, deterministic)
		},
	}

	cmd.Flags().Float64SliceVar(&obs, "obs", nil,
		"Observation, comma separated")
	cmd.Flags().BoolVar(&deterministic, "deterministic", false,
		"Return the squashed mean instead of sampling")
	return cmd
}

func (a *app) runAct(cmd *cobra.Command, obs []float64,
	deterministic bool) error {
	if len(obs) != a.cfg.ObsDim {
		return fmt.Errorf("observation must have %d values, got %d",
			a.cfg.ObsDim, len(obs))
	}

	ac, err := a.build()
	if err != nil {
		return err
	}

	action, err := ac.Act(obs, deterministic)
	if err != nil {
		return err
	}
	log.Debug().
		Floats64("obs", obs).
		Floats64("action", action).
		Bool("deterministic", deterministic).
		Msg("selected action")

	fmt.Fprintln(cmd.OutOrStdout(), formatFloats(action))
	return nil
}

// formatFloats formats values as a comma separated list
func formatFloats(values []float64) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(s, ",")
}
