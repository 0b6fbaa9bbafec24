package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/ngtgo"
	"github.com/hupe1980/ngtgo/distance"
	"github.com/hupe1980/ngtgo/model"
	"github.com/spf13/cobra"
)

type createFlags struct {
	property        string
	dim             int
	objectType      string
	distance        string
	edgeForCreation int
	edgeForSearch   int
	edgeLimit       int
	buildEpsilon    float32
}

func newCreateCmd(g *globalFlags) *cobra.Command {
	f := &createFlags{}

	cmd := &cobra.Command{
		Use:   "create <index>",
		Short: "Create an empty index",
		Long: `Create an empty index at the given location.

Settings come from --property (a YAML file in the property.yaml format)
and are overridden by any flag given explicitly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prop, err := f.build(cmd)
			if err != nil {
				return err
			}

			loc, err := g.locate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			idx, err := loc.create(cmd.Context(), prop)
			if err != nil {
				return err
			}
			defer idx.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", loc, idx.UUID())
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.property, "property", "p", "", "Read settings from a property YAML file")
	fl.IntVarP(&f.dim, "dim", "d", 0, "Dimension of the objects")
	fl.StringVarP(&f.objectType, "object-type", "o", "float", "Object type (float, uint8, float16)")
	fl.StringVarP(&f.distance, "distance", "D", "l2", "Distance (l1, l2, angle, hamming, jaccard, cosine, normalized-angle, normalized-cosine)")
	fl.IntVarP(&f.edgeForCreation, "edge-creation", "E", ngtgo.DefaultEdgeSizeForCreation, "Edges per object at creation")
	fl.IntVarP(&f.edgeForSearch, "edge-search", "S", ngtgo.DefaultEdgeSizeForSearch, "Edges explored during search (0 = all)")
	fl.IntVar(&f.edgeLimit, "edge-limit", 0, "Maximum stored edges per object (0 = twice the creation size)")
	fl.Float32Var(&f.buildEpsilon, "build-epsilon", ngtgo.DefaultBuildEpsilon, "Search expansion used while linking")
	return cmd
}

// build assembles the property from the file and the changed flags.
func (f *createFlags) build(cmd *cobra.Command) (*ngtgo.Property, error) {
	prop := ngtgo.NewProperty()
	if f.property != "" {
		data, err := os.ReadFile(f.property)
		if err != nil {
			return nil, err
		}
		if prop, err = ngtgo.LoadPropertyYAML(data); err != nil {
			return nil, err
		}
	}

	fl := cmd.Flags()
	set := func(name string, apply func() error) error {
		if f.property != "" && !fl.Changed(name) {
			return nil
		}
		if err := apply(); err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		return nil
	}

	steps := []struct {
		name  string
		apply func() error
	}{
		{"dim", func() error { return prop.SetDimension(f.dim) }},
		{"object-type", func() error {
			t, err := model.ParseObjectType(f.objectType)
			if err != nil {
				return fmt.Errorf("%w: %w", ngtgo.ErrInvalidArgument, err)
			}
			return prop.SetObjectType(t)
		}},
		{"distance", func() error {
			m, err := distance.ParseMetric(f.distance)
			if err != nil {
				return fmt.Errorf("%w: %w", ngtgo.ErrInvalidArgument, err)
			}
			return prop.SetDistanceType(m)
		}},
		{"edge-creation", func() error { return prop.SetEdgeSizeForCreation(f.edgeForCreation) }},
		{"edge-search", func() error { return prop.SetEdgeSizeForSearch(f.edgeForSearch) }},
		{"edge-limit", func() error { return prop.SetEdgeSizeLimit(f.edgeLimit) }},
		{"build-epsilon", func() error { return prop.SetBuildEpsilon(f.buildEpsilon) }},
	}
	for _, s := range steps {
		if err := set(s.name, s.apply); err != nil {
			return nil, err
		}
	}
	return prop, nil
}
