package cmd

import (
	"fmt"

	"github.com/samuelfneumann/gosac/network"
	"github.com/spf13/cobra"
)

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the components and parameter counts of an actor-critic",
		RunE:  a.runSummary,
	}
}

func (a *app) runSummary(cmd *cobra.Command, args []string) error {
	ac, err := a.build()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "type: %v\n", ac.Type())
	fmt.Fprintf(out, "observation dims: %d, action dims: %d, limit: %v\n",
		a.cfg.ObsDim, a.cfg.ActDim, a.cfg.ActLimit)
	fmt.Fprintf(out, "init: %v\n", a.cfg.Init)
	for _, c := range ac.Components() {
		fmt.Fprintf(out, "  %-6s %8d parameters\n", c.Name,
			network.CountVars(c.Learnables))
	}
	fmt.Fprintf(out, "total: %d parameters\n",
		network.CountVars(ac.Learnables()))
	return nil
}
