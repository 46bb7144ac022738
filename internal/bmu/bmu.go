// Package bmu finds the Best-Matching-Unit: the grid cell whose weight
// vector lies closest to a given feature vector.
package bmu

import (
	"github.com/pkuwalter/mr-mpi-som/internal/matrix"
	"github.com/pkuwalter/mr-mpi-som/internal/vecops"
)

// Coord is a grid position, row then column.
type Coord struct {
	Row, Col int
}

// Search scans every cell of the SOM_Y x SOM_X codebook C and returns the
// coordinates of the cell whose weight vector is closest to f under the
// Euclidean metric. Ties resolve to the first-seen cell in row-major
// order, matching the source's strict less-than comparison.
//
// The source's inner loop bound is SOM_Y, a bug when SOM_X != SOM_Y (see
// spec.md §4.3/§9). This implementation iterates the column bound over
// somX, the corrected bound.
func Search(C *matrix.Matrix, f []float64, somY, somX, ndimen int) (Coord, error) {
	best := Coord{}
	bestDist := 0.0
	found := false

	for r := 0; r < somY; r++ {
		for c := 0; c < somX; c++ {
			w, err := vecops.GetWeightVector(C, r, c, ndimen)
			if err != nil {
				return Coord{}, err
			}
			d, err := vecops.Distance(w, f, vecops.DistEuclidean)
			if err != nil {
				return Coord{}, err
			}
			if !found || d < bestDist {
				bestDist = d
				best = Coord{Row: r, Col: c}
				found = true
			}
		}
	}
	return best, nil
}
