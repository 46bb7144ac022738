// Package vecops implements feature-vector normalization, distance metrics,
// and codebook weight-vector extraction on top of gonum's floats package.
package vecops

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/pkuwalter/mr-mpi-som/internal/matrix"
)

// NormalizeMode selects how Normalize rescales a feature vector.
type NormalizeMode int

const (
	// NormNone copies the input unchanged.
	NormNone NormalizeMode = iota
	// NormEnergy divides every component by the vector's L2 norm.
	NormEnergy
	// NormMinMax, NormZScore and NormSigmoid are declared for parity with
	// the source's option set but are not implemented by the core; see
	// spec.md §4.2 and the Open Questions.
	NormMinMax
	NormZScore
	NormSigmoid
)

// DistanceMetric selects the metric Distance evaluates between two vectors.
type DistanceMetric int

const (
	// DistEuclidean is the L2 norm of the component-wise difference.
	DistEuclidean DistanceMetric = iota
	// DistManhattan and DistChebyshev are declared for parity with the
	// source's option set but are not required by the core.
	DistManhattan
	DistChebyshev
)

// Normalize returns a newly owned copy of f rescaled according to mode.
func Normalize(f []float64, mode NormalizeMode) ([]float64, error) {
	out := append([]float64(nil), f...)
	switch mode {
	case NormNone:
		return out, nil
	case NormEnergy:
		norm := floats.Norm(out, 2)
		if norm == 0 {
			return out, nil
		}
		floats.Scale(1/norm, out)
		return out, nil
	default:
		return nil, errors.Errorf("vecops: normalize mode %d not implemented in the core", mode)
	}
}

// Distance evaluates the metric between a and b. Both must have equal
// length.
func Distance(a, b []float64, metric DistanceMetric) (float64, error) {
	switch metric {
	case DistEuclidean:
		return floats.Distance(a, b, 2), nil
	default:
		return 0, errors.Errorf("vecops: distance metric %d not implemented in the core", metric)
	}
}

// GetWeightVector returns a copy of the feature vector stored at grid cell
// (y, x) of the codebook C, whose columns are laid out as SOM_X blocks of
// NDIMEN components each: cell (y, x) occupies columns
// [x*ndimen, (x+1)*ndimen).
func GetWeightVector(C *matrix.Matrix, y, x, ndimen int) ([]float64, error) {
	if y < 0 || y >= C.Rows() {
		return nil, errors.Errorf("vecops: row %d out of range [0,%d)", y, C.Rows())
	}
	start := x * ndimen
	if start < 0 || start+ndimen > C.Cols() {
		return nil, errors.Errorf("vecops: column range [%d,%d) out of range [0,%d)", start, start+ndimen, C.Cols())
	}
	row := C.Row(y)
	out := make([]float64, ndimen)
	copy(out, row[start:start+ndimen])
	return out, nil
}
