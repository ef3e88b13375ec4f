package distance

import (
	"fmt"
	"math"
	"slices"

	"github.com/viterin/vek/vek32"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return vek32.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	d := vek32.Distance(a, b)
	return d * d
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// InnerProduct returns 1 - dot(a, b). For unit vectors this is the cosine
// distance in [0, 2].
func InnerProduct(a, b []float32) float32 {
	return 1 - Dot(a, b)
}

// Cosine returns 1 - cos(a, b). A zero vector is at distance 1 from everything.
func Cosine(a, b []float32) float32 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - Dot(a, b)/(na*nb)
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	n := Norm(v)
	if n == 0 {
		return false
	}
	vek32.MulNumber_Inplace(v, 1/n)
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}

// Metric identifies a distance strategy. The numeric value is persisted,
// so existing values must never be renumbered.
type Metric uint8

const (
	MetricInnerProduct Metric = iota
	MetricCosine
	MetricL2
)

func (m Metric) String() string {
	switch m {
	case MetricInnerProduct:
		return "InnerProduct"
	case MetricCosine:
		return "Cosine"
	case MetricL2:
		return "L2"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric maps a textual metric name (as used in config files) to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "ip", "inner_product", "InnerProduct", "dot":
		return MetricInnerProduct, nil
	case "cosine", "Cosine":
		return MetricCosine, nil
	case "l2", "L2", "euclidean":
		return MetricL2, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", s)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricInnerProduct:
		return InnerProduct, nil
	case MetricCosine:
		return Cosine, nil
	case MetricL2:
		return SquaredL2, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
