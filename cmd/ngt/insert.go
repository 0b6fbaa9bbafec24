package main

import (
	"errors"
	"fmt"

	"github.com/hupe1980/ngtgo"
	"github.com/spf13/cobra"
)

// newInsertCmd returns the insert command, or the append command when
// deferred is set.
func newInsertCmd(g *globalFlags, deferred bool) *cobra.Command {
	var (
		skip int
		pool int
	)

	use, short := "insert <index> <vectors>", "Insert and link vectors"
	if deferred {
		use, short = "append <index> <vectors>", "Append vectors without linking them"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Vectors are read one per line, separated by tabs, spaces or commas. Use
"-" to read from stdin. Rows that fail are reported and skipped; the
others are stored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vectors, err := readVectorFile(args[1], cmd.InOrStdin(), skip)
			if err != nil {
				return err
			}
			loc, err := g.locate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return loc.update(cmd.Context(), func(idx *ngtgo.Index) error {
				batch := idx.BatchInsert
				if deferred {
					batch = idx.BatchAppend
				}
				ids, err := batch(vectors)
				stored := 0
				for _, id := range ids {
					if id != 0 {
						stored++
					}
				}
				reportBatch(cmd, err)

				if deferred && pool > 0 {
					if err := idx.CreateIndex(cmd.Context(), pool); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %d of %d objects\n", stored, len(vectors))
				if stored == 0 && len(vectors) > 0 {
					return errors.New("no objects stored")
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&skip, "skip-columns", 0, "Leading columns to ignore in each row")
	if deferred {
		cmd.Flags().IntVar(&pool, "build", 0, "Link the appended objects with this many workers")
	}
	return cmd
}

func reportBatch(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	var item *ngtgo.BatchItemError
	for _, e := range unjoin(err) {
		if errors.As(e, &item) {
			fmt.Fprintf(cmd.ErrOrStderr(), "row %d: %v\n", item.Index+1, item.Err)
			continue
		}
		fmt.Fprintln(cmd.ErrOrStderr(), e)
	}
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
