package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInfoCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info <index>",
		Short: "Print the property and object counts of an index",
		Args:  cobra.ExactArgs(1),
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

			prop, err := yaml.Marshal(idx.Property())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "uuid: %s\n", idx.UUID())
			fmt.Fprintf(out, "objects: %d\n", idx.Len())
			fmt.Fprintf(out, "pending: %d\n", idx.PendingLen())
			_, err = out.Write(prop)
			return err
		},
	}
}
