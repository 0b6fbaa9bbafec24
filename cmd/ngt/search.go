package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/hupe1980/ngtgo"
	"github.com/spf13/cobra"
)

type searchFlags struct {
	size    int
	epsilon float32
	radius  float32
	edges   int
	linear  bool
	json    bool
	skip    int
}

type queryResult struct {
	Query   int            `json:"query"`
	Results []ngtgo.Result `json:"results"`
	Took    time.Duration  `json:"took_ns"`
}

func newSearchCmd(g *globalFlags) *cobra.Command {
	f := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search <index> <queries>",
		Short: "Search the nearest neighbors of each query vector",
		Long: `Search the nearest neighbors of each query vector.

Queries are read one per line like the input of append. A negative
--radius leaves the distance unbounded.

Examples:
  ngt search --size 10 --epsilon 0.1 ./idx queries.tsv
  echo "0 0 0 0" | ngt search ./idx -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			queries, err := readVectorFile(args[1], cmd.InOrStdin(), f.skip)
			if err != nil {
				return err
			}
			loc, err := g.locate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			idx, err := loc.open(cmd.Context())
			if err != nil {
				return err
			}
			defer idx.Close()

			if f.edges >= 0 {
				if err := idx.SetEdgeSizeForSearch(f.edges); err != nil {
					return err
				}
			}

			out := make([]queryResult, 0, len(queries))
			for i, q := range queries {
				start := time.Now()
				var res []ngtgo.Result
				if f.linear {
					res, err = idx.LinearSearch(q, f.size, f.radius)
				} else {
					res, err = idx.Search(q, f.size, f.epsilon, f.radius)
				}
				if err != nil {
					return fmt.Errorf("query %d: %w", i+1, err)
				}
				out = append(out, queryResult{Query: i + 1, Results: res, Took: time.Since(start)})
			}

			if f.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return printResults(cmd, out)
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&f.size, "size", "n", 20, "Number of results per query")
	fl.Float32VarP(&f.epsilon, "epsilon", "e", 0.1, "Search range expansion")
	fl.Float32VarP(&f.radius, "radius", "r", -1, "Maximum result distance (negative = unbounded)")
	fl.IntVar(&f.edges, "edge-search", -1, "Override the edges explored per node (0 = all)")
	fl.BoolVar(&f.linear, "linear", false, "Scan all objects instead of the graph")
	fl.BoolVar(&f.json, "json", false, "Print results as JSON")
	fl.IntVar(&f.skip, "skip-columns", 0, "Leading columns to ignore in each row")
	return cmd
}

func printResults(cmd *cobra.Command, out []queryResult) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, q := range out {
		fmt.Fprintf(w, "Query No.%d\n", q.Query)
		fmt.Fprintln(w, "Rank\tID\tDistance")
		for rank, r := range q.Results {
			fmt.Fprintf(w, "%d\t%d\t%g\n", rank+1, r.ID, r.Distance)
		}
		fmt.Fprintf(w, "Query Time= %s\n", q.Took)
	}
	return w.Flush()
}
