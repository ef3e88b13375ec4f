package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/navgraph/navgraph"
	"github.com/navgraph/navgraph/vectorstore"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		dataPath    string
		queriesPath string
		verify      bool
		jsonOutput  bool
		repeat      int
	)

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Run k-NN queries against a saved index",
		Long: `Search loads the index <name> and answers every query in --queries.

--data attaches the base vectors the index was built from; it may be omitted
for indexes built with --embed-vectors. --verify compares every answer with
an exact brute-force scan and reports recall@k.

Examples:
  navgraph search sift.ngx --data sift_base.fvecs --queries sift_query.fvecs --k 10
  navgraph search sift.ngx --queries q.fvecs --ef 200 --verify --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			idx, err := a.loadIndex(cmd, args[0], dataPath)
			if err != nil {
				return err
			}
			defer idx.Close()

			queries, err := readQueries(queriesPath)
			if err != nil {
				return err
			}

			k := a.cfg.Search.K
			var results [][]navgraph.Result
			start := time.Now()
			for range max(repeat, 1) {
				results, err = idx.SearchBatch(ctx, queries, k)
				if err != nil {
					return err
				}
			}
			elapsed := time.Since(start)

			report := searchReport{
				K:       k,
				EF:      a.cfg.Search.EF,
				Queries: len(queries),
				Elapsed: elapsed.String(),
			}
			for i, rs := range results {
				report.Results = append(report.Results, queryResult{Query: i, Hits: rs})
			}

			if verify {
				recall, err := measureRecall(idx, queries, results, k)
				if err != nil {
					return err
				}
				report.Recall = &recall
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			report.writeText(cmd.OutOrStdout())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataPath, "data", "", "Base vectors (.fvecs) the index was built over")
	f.StringVar(&queriesPath, "queries", "", "Query vectors (.fvecs)")
	f.IntVar(&a.flags.k, "k", 0, "Number of neighbors per query")
	f.IntVar(&a.flags.ef, "ef", 0, "Beam width (default from config)")
	f.BoolVar(&a.flags.normalize, "normalize", false, "L2-normalize queries and base vectors")
	f.BoolVar(&verify, "verify", false, "Report recall@k against exact search")
	f.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	f.IntVar(&repeat, "repeat", 1, "Run the query set this many times")
	_ = cmd.MarkFlagRequired("queries")

	return cmd
}

// loadIndex loads name from the configured storage, attaching the vectors
// at dataPath when given.
func (a *app) loadIndex(cmd *cobra.Command, name, dataPath string) (*navgraph.Index, error) {
	opts, err := a.indexOptions()
	if err != nil {
		return nil, err
	}

	var store vectorstore.VectorStore
	if dataPath != "" {
		store, err = openVectors(dataPath, 0)
		if err != nil {
			return nil, err
		}
		opts = append(opts, navgraph.WithVectorStore(store))
	}

	idx, err := navgraph.Load(cmd.Context(), a.store, name, opts...)
	if err != nil {
		if store != nil {
			closeVectors(store)
		}
		return nil, err
	}
	return idx, nil
}

type queryResult struct {
	Query int               `json:"query"`
	Hits  []navgraph.Result `json:"hits"`
}

type searchReport struct {
	K       int           `json:"k"`
	EF      int           `json:"ef"`
	Queries int           `json:"queries"`
	Elapsed string        `json:"elapsed"`
	Recall  *float64      `json:"recall,omitempty"`
	Results []queryResult `json:"results"`
}

func (r searchReport) writeText(w io.Writer) {
	for _, qr := range r.Results {
		fmt.Fprintf(w, "query %d:", qr.Query)
		for _, h := range qr.Hits {
			fmt.Fprintf(w, " %d:%.4f", h.ID, h.Distance)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d queries, k=%d, ef=%d in %s\n", r.Queries, r.K, r.EF, r.Elapsed)
	if r.Recall != nil {
		fmt.Fprintf(w, "recall@%d: %.4f\n", r.K, *r.Recall)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
