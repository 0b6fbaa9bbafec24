package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
)

func newExportGraphCmd(g *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "export-graph <index>",
		Short: "Print the edge list of every node",
		Long: `Print the edge list of every node.

Each line holds a node ID followed by its edges as id:distance pairs in
ascending distance order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := g.locate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			idx, err := loc.open(cmd.Context())
			if err != nil {
				return err
			}
			defer idx.Close()

			graph, err := idx.ExtractGraph()
			if err != nil {
				return err
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			for _, n := range graph.Nodes {
				fmt.Fprint(w, n.ID)
				edges := n.Edges
				if limit > 0 && len(edges) > limit {
					edges = edges[:limit]
				}
				for _, e := range edges {
					fmt.Fprintf(w, "\t%d:%g", e.ID, e.Distance)
				}
				fmt.Fprintln(w)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "edges", "k", 0, "Print at most this many edges per node (0 = all)")
	return cmd
}
