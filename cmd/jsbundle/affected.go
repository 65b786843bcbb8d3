package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/jsbundle/compilation"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/manifest"
)

func newAffectedCommand(a *app) *cobra.Command {
	var changed []string

	cmd := &cobra.Command{
		Use:   "affected <manifest> --changed <module>...",
		Short: "List the modules that need regeneration after a change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := manifest.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, id := range changed {
				if _, ok := g.Module(id); !ok {
					return errors.NotFound(errors.PhaseLoad, "module", id)
				}
			}
			for _, id := range compilation.AffectedModules(g, changed) {
				fmt.Fprintln(a.stdout, id)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&changed, "changed", nil, "changed module ids")
	_ = cmd.MarkFlagRequired("changed")
	return cmd
}
