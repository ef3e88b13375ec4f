package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/navgraph/navgraph"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		dataPath string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "build <name>",
		Short: "Build an index over an .fvecs file and save it",
		Long: `Build links every vector of --data into a new graph and saves it under
<name> in the configured storage backend. Node i refers to record i.

Examples:
  navgraph build sift.ngx --data sift_base.fvecs --workers 8
  navgraph build sift.ngx --data sift_base.fvecs --embed-vectors --compression lz4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			store, err := openVectors(dataPath, limit)
			if err != nil {
				return err
			}

			opts, err := a.indexOptions()
			if err != nil {
				return err
			}

			start := time.Now()
			idx, err := navgraph.Build(ctx, store, opts...)
			if err != nil {
				closeVectors(store)
				return err
			}
			defer idx.Close()
			elapsed := time.Since(start)

			if err := idx.Save(ctx, a.store, name); err != nil {
				return err
			}

			stats := idx.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "built %s: %d vectors, dimension %d, %d layers in %s\n",
				name, stats.Nodes, idx.Dimension(), stats.MaxLayer+1, elapsed.Round(time.Millisecond))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataPath, "data", "", "Base vectors (.fvecs)")
	f.IntVar(&limit, "limit", 0, "Index only the first n vectors")
	f.IntVar(&a.flags.m, "m", 0, "Neighbor cap above layer 0")
	f.IntVar(&a.flags.m0, "m0", 0, "Neighbor cap at layer 0 (default 2*m)")
	f.IntVar(&a.flags.efConstruction, "ef-construction", 0, "Beam width while inserting")
	f.Float64Var(&a.flags.levelMultiplier, "level-multiplier", 0, "Level generation factor (default 1/ln(m))")
	f.StringVar(&a.flags.metric, "metric", "", "Distance metric: ip, cosine or l2")
	f.Uint64Var(&a.flags.seed, "seed", 0, "Seed for level assignment")
	f.IntVar(&a.flags.workers, "workers", 0, "Build goroutines (default GOMAXPROCS)")
	f.BoolVar(&a.flags.keepPruned, "keep-pruned", false, "Fill free neighbor slots with pruned candidates")
	f.BoolVar(&a.flags.normalize, "normalize", false, "L2-normalize vectors before indexing")
	f.StringVar(&a.flags.compression, "compression", "", "Body compression: none, zstd or lz4")
	f.BoolVar(&a.flags.embedVectors, "embed-vectors", false, "Store the vectors inside the index")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}
