package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/ngtgo"
	"github.com/hupe1980/ngtgo/persistence"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel    string
	compression string
	remote      remoteFlags
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "ngt",
		Short: "Graph and tree nearest neighbor index tool",
		Long: `ngt manages approximate nearest neighbor indexes.

An index is addressed by a local directory, or by a key prefix in S3 or
MinIO when one of the remote flags is given.

Examples:
  ngt create --dim 128 --distance l2 ./idx
  ngt append ./idx vectors.tsv
  ngt build --pool 8 ./idx
  ngt search --size 10 ./idx queries.tsv`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "", "Enable logging to stderr at the given level (debug, info, warn, error)")
	pf.StringVar(&g.compression, "compression", "lz4", "Compression for saved sections (none, lz4, zstd)")
	g.remote.register(pf)

	root.AddCommand(
		newCreateCmd(g),
		newInsertCmd(g, false),
		newInsertCmd(g, true),
		newBuildCmd(g),
		newSearchCmd(g),
		newRemoveCmd(g),
		newRebuildCmd(g),
		newExportGraphCmd(g),
		newOptimizeCmd(g),
		newInfoCmd(g),
	)
	return root
}

// logger returns the stderr logger selected by --log-level, or nil when
// logging is off.
func (g *globalFlags) logger() (*ngtgo.Logger, error) {
	if g.logLevel == "" {
		return nil, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", g.logLevel)
	}
	return ngtgo.NewTextLogger(level), nil
}

// options turns the global flags into index options.
func (g *globalFlags) options() ([]ngtgo.Option, error) {
	var opts []ngtgo.Option
	logger, err := g.logger()
	if err != nil {
		return nil, err
	}
	if logger != nil {
		opts = append(opts, ngtgo.WithLogger(logger))
	}

	c, err := parseCompression(g.compression)
	if err != nil {
		return nil, err
	}
	return append(opts, ngtgo.WithCompression(c)), nil
}

func parseCompression(s string) (persistence.Compression, error) {
	for _, c := range []persistence.Compression{
		persistence.CompressionNone,
		persistence.CompressionLZ4,
		persistence.CompressionZSTD,
	} {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("invalid --compression %q", s)
}
