package main

import (
	"fmt"
	"strconv"

	"github.com/hupe1980/ngtgo"
	"github.com/hupe1980/ngtgo/model"
	"github.com/spf13/cobra"
)

func newRemoveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index> <id>...",
		Short: "Remove objects by ID",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]model.ObjectID, 0, len(args)-1)
			for _, a := range args[1:] {
				v, err := strconv.ParseUint(a, 10, 32)
				if err != nil {
					return fmt.Errorf("invalid id %q", a)
				}
				ids = append(ids, model.ObjectID(v))
			}

			loc, err := g.locate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return loc.update(cmd.Context(), func(idx *ngtgo.Index) error {
				for _, id := range ids {
					if err := idx.Remove(id); err != nil {
						return fmt.Errorf("remove %d: %w", id, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d objects\n", len(ids))
				return nil
			})
		},
	}
}
