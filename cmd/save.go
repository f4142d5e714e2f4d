package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newSaveCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write the weights of an actor-critic to a file",
		Long: `Write the weights of an actor-critic to a file.

The file can later be given to other commands with --weights.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSave(out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "weights.gob", "Output file")
	return cmd
}

func (a *app) runSave(path string) error {
	ac, err := a.build()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create weights file: %w", err)
	}
	if err := ac.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("could not save weights: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not save weights: %w", err)
	}

	log.Info().Str("path", path).Str("type", string(ac.Type())).
		Msg("saved weights")
	return nil
}
