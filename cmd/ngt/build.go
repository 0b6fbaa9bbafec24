package main

import (
	"fmt"
	"runtime"

	"github.com/hupe1980/ngtgo"
	"github.com/spf13/cobra"
)

func newBuildCmd(g *globalFlags) *cobra.Command {
	var pool int

	cmd := &cobra.Command{
		Use:   "build <index>",
		Short: "Link all appended objects into the graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := g.locate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return loc.update(cmd.Context(), func(idx *ngtgo.Index) error {
				pending := idx.PendingLen()
				if err := idx.CreateIndex(cmd.Context(), pool); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "linked %d objects, %d indexed\n", pending, idx.Len())
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&pool, "pool", "t", runtime.GOMAXPROCS(0), "Number of build workers")
	return cmd
}

func newRebuildCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild <index>",
		Short: "Purge removed objects and release their IDs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := g.locate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return loc.update(cmd.Context(), func(idx *ngtgo.Index) error {
				n, err := idx.Rebuild()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "released %d ids\n", n)
				return nil
			})
		},
	}
}
