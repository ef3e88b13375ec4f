package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navgraph/navgraph/testutil"
	"github.com/navgraph/navgraph/vectorstore"
)

func writeFvecs(t *testing.T, path string, vecs [][]float32) {
	t.Helper()
	store, err := vectorstore.FromVectors(len(vecs[0]), vecs)
	require.NoError(t, err)

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, vectorstore.WriteFvecs(f, store))
	require.NoError(t, f.Close())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.Execute()
	return out.String(), err
}

type fixture struct {
	root    string
	base    string
	queries string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		root:    filepath.Join(dir, "indexes"),
		base:    filepath.Join(dir, "base.fvecs"),
		queries: filepath.Join(dir, "query.fvecs"),
	}
	writeFvecs(t, f.base, testutil.NewRNG(1).UnitVectors(500, 16))
	writeFvecs(t, f.queries, testutil.NewRNG(2).UnitVectors(20, 16))
	return f
}

func TestCommands_Definition(t *testing.T) {
	cmd := newRootCmd()

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["build"])
	assert.True(t, names["search"])
	assert.True(t, names["stats"])

	for _, name := range []string{"config", "backend", "root", "log-level", "log-format", "metrics-addr"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestBuildSearchStats(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "build", "sift.ngx", "--root", f.root, "--data", f.base, "--seed", "5", "--workers", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "built sift.ngx: 500 vectors, dimension 16")

	out, err = run(t, "search", "sift.ngx", "--root", f.root, "--data", f.base,
		"--queries", f.queries, "--k", "5", "--ef", "100", "--verify", "--json")
	require.NoError(t, err)

	var report searchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 5, report.K)
	assert.Equal(t, 100, report.EF)
	assert.Equal(t, 20, report.Queries)
	require.Len(t, report.Results, 20)
	for _, qr := range report.Results {
		assert.Len(t, qr.Hits, 5)
	}
	require.NotNil(t, report.Recall)
	assert.GreaterOrEqual(t, *report.Recall, 0.9)

	out, err = run(t, "stats", "sift.ngx", "--root", f.root, "--data", f.base)
	require.NoError(t, err)
	assert.Contains(t, out, "nodes:           500")
	assert.Contains(t, out, "reachable:       500/500")
	assert.Contains(t, out, "valid:           yes")
}

func TestBuild_EmbeddedVectors(t *testing.T) {
	f := newFixture(t)

	_, err := run(t, "build", "e.ngx", "--root", f.root, "--data", f.base,
		"--limit", "100", "--embed-vectors", "--compression", "lz4", "--metric", "l2")
	require.NoError(t, err)

	out, err := run(t, "search", "e.ngx", "--root", f.root, "--queries", f.queries, "--k", "3", "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "20 queries, k=3")
	assert.Contains(t, out, "recall@3:")
	assert.Equal(t, 22, strings.Count(out, "\n"))

	out, err = run(t, "stats", "e.ngx", "--root", f.root, "--json")
	require.NoError(t, err)

	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.InDelta(t, 100, stats["Nodes"], 0)
	assert.Equal(t, true, stats["valid"])
}

func TestSearch_ConfigAndFlags(t *testing.T) {
	f := newFixture(t)
	cfg := writeConfig(t, "search:\n  k: 2\nstorage:\n  local:\n    root: "+f.root+"\n")

	_, err := run(t, "build", "c.ngx", "--config", cfg, "--data", f.base)
	require.NoError(t, err)

	out, err := run(t, "search", "c.ngx", "--config", cfg, "--data", f.base, "--queries", f.queries, "--json")
	require.NoError(t, err)
	var report searchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Results[0].Hits, 2)

	out, err = run(t, "search", "c.ngx", "--config", cfg, "--data", f.base, "--queries", f.queries, "--json", "--k", "4")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Results[0].Hits, 4)
}

func TestSearch_MetricsServer(t *testing.T) {
	f := newFixture(t)

	_, err := run(t, "build", "m.ngx", "--root", f.root, "--data", f.base, "--embed-vectors")
	require.NoError(t, err)

	_, err = run(t, "search", "m.ngx", "--root", f.root, "--queries", f.queries,
		"--metrics-addr", "127.0.0.1:0", "--repeat", "3")
	require.NoError(t, err)
}

func TestCommands_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := run(t, "build", "x.ngx", "--root", f.root)
	assert.Error(t, err, "missing --data")

	_, err = run(t, "build", "x.ngx", "--root", f.root, "--data", filepath.Join(f.root, "none.fvecs"))
	assert.Error(t, err)

	_, err = run(t, "build", "x.ngx", "--root", f.root, "--data", f.base, "--metric", "hamming")
	assert.Error(t, err)

	_, err = run(t, "search", "missing.ngx", "--root", f.root, "--queries", f.queries)
	assert.Error(t, err)

	_, err = run(t, "build", "novec.ngx", "--root", f.root, "--data", f.base)
	require.NoError(t, err)
	_, err = run(t, "stats", "novec.ngx", "--root", f.root)
	assert.Error(t, err, "index without embedded vectors needs --data")

	_, err = run(t, "stats", "novec.ngx", "--root", f.root, "--backend", "ftp")
	assert.Error(t, err)
}
