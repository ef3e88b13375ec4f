package hnsw

import (
	"fmt"
	"math"
	"runtime"

	"github.com/navgraph/navgraph/distance"
)

const (
	// DefaultM is the default number of connections per node above layer 0.
	DefaultM = 16

	// DefaultEFConstruction is the default beam width during insertion.
	DefaultEFConstruction = 200

	// mmax0Multiplier is the multiplier for calculating maximum connections at layer 0.
	mmax0Multiplier = 2

	// maxLevel bounds the level a node can be assigned.
	maxLevel = 64
)

// Options configures graph construction.
type Options struct {
	// M is the connection cap for layers >= 1.
	M int

	// M0 is the connection cap for layer 0. Zero means 2*M.
	M0 int

	// EFConstruction is the beam width used while inserting.
	EFConstruction int

	// LevelMultiplier is mL in l = floor(-ln(u) * mL). Zero means 1/ln(max(M,2)).
	LevelMultiplier float64

	// Metric selects the distance function.
	Metric distance.Metric

	// Seed seeds level assignment for Build and for an Inserter created
	// without an explicit source.
	Seed uint64

	// Workers bounds the goroutines linking nodes in Build. Zero means GOMAXPROCS.
	Workers int

	// KeepPrunedConnections fills free slots with the nearest candidates the
	// diversity heuristic discarded.
	KeepPrunedConnections bool

	// Progress, if set, is called by Build after each node is linked with the
	// number of nodes linked so far. It is called from worker goroutines.
	Progress func(linked, total int)
}

// DefaultOptions contains the default options for a graph.
var DefaultOptions = Options{
	M:              DefaultM,
	EFConstruction: DefaultEFConstruction,
	Metric:         distance.MetricInnerProduct,
}

// Validate checks the options and fills derived defaults.
func (o *Options) Validate() error {
	if o.M < 1 {
		return fmt.Errorf("%w (got %d)", ErrInvalidM, o.M)
	}
	if o.M0 == 0 {
		o.M0 = mmax0Multiplier * o.M
	}
	if o.M0 < 1 {
		return fmt.Errorf("%w (M0 %d)", ErrInvalidM, o.M0)
	}
	if o.EFConstruction < 1 {
		return fmt.Errorf("%w (got %d)", ErrInvalidEF, o.EFConstruction)
	}
	if o.LevelMultiplier == 0 {
		o.LevelMultiplier = 1 / math.Log(float64(max(o.M, 2)))
	}
	if o.LevelMultiplier < 0 || math.IsNaN(o.LevelMultiplier) || math.IsInf(o.LevelMultiplier, 0) {
		return fmt.Errorf("%w: level multiplier %v", ErrInvalidArgument, o.LevelMultiplier)
	}
	if _, err := distance.Provider(o.Metric); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return nil
}

// Params are the immutable parameters of a graph. They are persisted with it.
type Params struct {
	Dimension       int
	M               int
	M0              int
	EFConstruction  int
	LevelMultiplier float64
	Metric          distance.Metric
}

// Capacity returns the neighbor cap at the given layer.
func (p Params) Capacity(layer int) int {
	if layer == 0 {
		return p.M0
	}
	return p.M
}

// Validate checks that p describes a usable graph.
func (p Params) Validate() error {
	if p.Dimension < 1 {
		return fmt.Errorf("%w (got %d)", ErrInvalidDimension, p.Dimension)
	}
	opts := Options{
		M:               p.M,
		M0:              p.M0,
		EFConstruction:  p.EFConstruction,
		LevelMultiplier: p.LevelMultiplier,
		Metric:          p.Metric,
	}
	if p.M0 < 1 || p.LevelMultiplier <= 0 {
		return fmt.Errorf("%w: M0 %d, level multiplier %v", ErrInvalidArgument, p.M0, p.LevelMultiplier)
	}
	return opts.Validate()
}

func (o Options) params(dim int) Params {
	return Params{
		Dimension:       dim,
		M:               o.M,
		M0:              o.M0,
		EFConstruction:  o.EFConstruction,
		LevelMultiplier: o.LevelMultiplier,
		Metric:          o.Metric,
	}
}

func buildOptions(optFns []func(o *Options)) (Options, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
