package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/hupe1980/ngtgo/optimizer"
	"github.com/spf13/cobra"
)

func newOptimizeCmd(g *globalFlags) *cobra.Command {
	p := optimizer.DefaultParams()

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Tune search coefficients or rewrite the graph of a local index",
	}

	pf := cmd.PersistentFlags()
	pf.IntVarP(&p.NumQueries, "queries", "q", p.NumQueries, "Number of sampled queries")
	pf.Float64Var(&p.QueryTimeExpansion, "query-time-expansion", p.QueryTimeExpansion, "Accepted query time growth for better recall")

	newOptimizer := func() (*optimizer.Optimizer, error) {
		if g.remote.remote() {
			return nil, errors.New("optimize works on local indexes only")
		}
		opts, err := g.options()
		if err != nil {
			return nil, err
		}
		logger, err := g.logger()
		if err != nil {
			return nil, err
		}
		oopts := []optimizer.Option{optimizer.WithIndexOptions(opts...)}
		if logger != nil {
			oopts = append(oopts, optimizer.WithLogger(logger))
		}
		o := optimizer.New(oopts...)
		if err := o.Set(p); err != nil {
			return nil, err
		}
		return o, nil
	}

	adjust := &cobra.Command{
		Use:   "adjust <index>",
		Short: "Measure and store the best edge size for search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOptimizer()
			if err != nil {
				return err
			}
			adj, err := o.AdjustSearchCoefficients(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EdgeSize\tRecall\tQueryTime")
			for _, m := range adj.Measurements {
				fmt.Fprintf(w, "%d\t%.3f\t%s\n", m.EdgeSize, m.Recall, m.QueryTime)
			}
			fmt.Fprintf(w, "edge_size_for_search=%d\n", adj.EdgeSizeForSearch)
			return w.Flush()
		},
	}
	af := adjust.Flags()
	af.Float64Var(&p.BaseAccuracyFrom, "accuracy-from", p.BaseAccuracyFrom, "Lower bound of the targeted recall")
	af.Float64Var(&p.BaseAccuracyTo, "accuracy-to", p.BaseAccuracyTo, "Upper bound of the targeted recall")
	af.Float64Var(&p.Margin, "margin", p.Margin, "Headroom added to the chosen edge size")

	execute := &cobra.Command{
		Use:   "execute <in-index> <out-index>",
		Short: "Rewrite the graph into a new index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOptimizer()
			if err != nil {
				return err
			}
			before, after, err := o.Execute(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recall %.3f -> %.3f, query time %s -> %s\n",
				before.Recall, after.Recall, before.QueryTime, after.QueryTime)
			return nil
		},
	}
	ef := execute.Flags()
	ef.IntVarP(&p.Outgoing, "outgoing", "o", p.Outgoing, "Edges kept per node")
	ef.IntVarP(&p.Incoming, "incoming", "i", p.Incoming, "Edges mirrored as reverse edges per node")
	ef.Float64Var(&p.RateAccuracyFrom, "rate-from", p.RateAccuracyFrom, "Minimum recall ratio of the rewritten graph")
	ef.Float64Var(&p.RateAccuracyTo, "rate-to", p.RateAccuracyTo, "Recall ratio below which a warning is logged")

	cmd.AddCommand(adjust, execute)
	return cmd
}
