// Package accum implements the map body: turning one shard's feature
// vectors into the [SOM_Y][SOM_X][NDIMEN] numerator/denominator
// accumulators the reduce stage sums across the cluster.
package accum

import (
	"math"
	"math/rand"

	"github.com/pkuwalter/mr-mpi-som/internal/bmu"
	"github.com/pkuwalter/mr-mpi-som/internal/matrix"
	"github.com/pkuwalter/mr-mpi-som/internal/vecops"
)

// Accumulator holds the per-shard partial sums, flattened in the same
// row-major [SOM_Y][SOM_X][NDIMEN] order the codec and the update stage
// expect. Index(r, c, d) gives the offset into Numer/Denom for triple
// (r, c, d).
type Accumulator struct {
	SomY, SomX, Ndimen int
	Numer, Denom       []float64
}

// New allocates a zeroed accumulator of the given grid shape.
func New(somY, somX, ndimen int) *Accumulator {
	n := somY * somX * ndimen
	return &Accumulator{
		SomY: somY, SomX: somX, Ndimen: ndimen,
		Numer: make([]float64, n),
		Denom: make([]float64, n),
	}
}

// Index returns the flat offset of triple (r, c, d).
func (a *Accumulator) Index(r, c, d int) int {
	return (r*a.SomX+c)*a.Ndimen + d
}

// Options configures one map-task invocation.
type Options struct {
	NormalizeMode vecops.NormalizeMode
	// Shuffle retains the source's random_shuffle of row order. The batch
	// update sums every vector's contribution before any weight changes,
	// so shuffling is semantically neutral (spec.md §4.4, §9); it exists
	// here only for bit-for-bit parity with the source when Rand is a
	// seeded generator.
	Shuffle bool
	Rand    *rand.Rand
}

// Accumulate runs the map body over data (an NVECSPERFILE x NDIMEN dense
// matrix, one shard already materialized by the caller) against codebook C
// at radius r, and returns the resulting accumulator.
//
// The source computes the grid distance between the BMU and each node
// using NDIMEN as the loop bound, which silently corrupts the distance
// whenever NDIMEN != 2 (spec.md §4.4/§9, "Grid-coordinate Euclidean
// distance"). This implementation always iterates the fixed grid
// dimensionality of 2.
func Accumulate(data *matrix.Matrix, C *matrix.Matrix, somY, somX, ndimen int, r float64, opts Options) (*Accumulator, error) {
	acc := New(somY, somX, ndimen)

	order := make([]int, data.Rows())
	for i := range order {
		order[i] = i
	}
	if opts.Shuffle && opts.Rand != nil {
		opts.Rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	for _, rowIdx := range order {
		v := data.Row(rowIdx)
		normalized, err := vecops.Normalize(v, opts.NormalizeMode)
		if err != nil {
			return nil, err
		}

		best, err := bmu.Search(C, normalized, somY, somX, ndimen)
		if err != nil {
			return nil, err
		}

		for row := 0; row < somY; row++ {
			for col := 0; col < somX; col++ {
				dr := float64(best.Row - row)
				dc := float64(best.Col - col)
				gridDist := math.Sqrt(dr*dr + dc*dc)
				h := math.Exp(-(gridDist * gridDist) / (r * r))

				// The source accumulates denom[row][col][d] += h
				// independently per dimension d, even though h does not
				// depend on d, so every d shares the same denom value
				// for a given (row, col). We preserve that redundancy on
				// the wire (spec.md §4.4) rather than storing one scalar
				// per (row, col).
				for d := 0; d < ndimen; d++ {
					idx := acc.Index(row, col, d)
					acc.Numer[idx] += h * normalized[d]
					acc.Denom[idx] += h
				}
			}
		}
	}

	return acc, nil
}

// Add merges src into dst in place, component-wise. This is the reduce
// combiner: commutative, associative, and safe to call more than once on
// partial results (spec.md §4.5).
func (dst *Accumulator) Add(src *Accumulator) {
	for i := range dst.Numer {
		dst.Numer[i] += src.Numer[i]
		dst.Denom[i] += src.Denom[i]
	}
}
