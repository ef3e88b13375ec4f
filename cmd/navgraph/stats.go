package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/navgraph/navgraph/hnsw"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		dataPath   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "stats <name>",
		Short: "Print graph statistics and check invariants",
		Long: `Stats loads the index <name>, prints its parameters and per-layer node
and edge counts, and validates the graph structure. It exits with an error if
validation fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.loadIndex(cmd, args[0], dataPath)
			if err != nil {
				return err
			}
			defer idx.Close()

			report := statsReport{Stats: idx.Stats(), Valid: true}
			verr := idx.Validate()
			if verr != nil {
				report.Valid = false
				report.Error = verr.Error()
			}

			if jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				report.writeText(cmd.OutOrStdout())
			}
			return verr
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataPath, "data", "", "Base vectors (.fvecs) the index was built over")
	f.BoolVar(&jsonOutput, "json", false, "Output statistics as JSON")

	return cmd
}

type statsReport struct {
	hnsw.Stats
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func (r statsReport) writeText(w io.Writer) {
	p := r.Params
	fmt.Fprintf(w, "nodes:           %d\n", r.Nodes)
	fmt.Fprintf(w, "dimension:       %d\n", p.Dimension)
	fmt.Fprintf(w, "metric:          %s\n", p.Metric)
	fmt.Fprintf(w, "M / M0:          %d / %d\n", p.M, p.M0)
	fmt.Fprintf(w, "efConstruction:  %d\n", p.EFConstruction)
	fmt.Fprintf(w, "mL:              %.4f\n", p.LevelMultiplier)
	if r.Nodes > 0 {
		fmt.Fprintf(w, "entry point:     %d (layer %d)\n", r.EntryPoint, r.MaxLayer)
	}
	fmt.Fprintf(w, "reachable:       %d/%d\n", r.Reachable, r.Nodes)

	for _, l := range r.Levels {
		fmt.Fprintf(w, "layer %2d: %8d nodes %10d edges  avg degree %.2f\n", l.Level, l.Nodes, l.Edges, l.AvgDegree)
	}

	if r.Valid {
		fmt.Fprintln(w, "valid:           yes")
	} else {
		fmt.Fprintf(w, "valid:           no (%s)\n", r.Error)
	}
}
