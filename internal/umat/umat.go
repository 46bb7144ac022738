// Package umat computes the unified distance matrix and writes the two
// output artifacts a training run produces on rank 0: result.umat.txt and
// result.map.txt. The source's save_umat is a stub that writes nothing;
// spec.md §6 specifies the expected content, implemented here.
package umat

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/pkuwalter/mr-mpi-som/internal/som"
	"github.com/pkuwalter/mr-mpi-som/internal/vecops"
)

// neighborRadius bounds which grid neighbors contribute to a node's
// unified distance, per spec.md §6.
const neighborRadius = 1.5

// Compute returns, for every grid node, the average Euclidean distance in
// feature space to its grid neighbors within neighborRadius.
func Compute(c *som.Codebook) ([][]float64, error) {
	out := make([][]float64, c.SomY)
	for r := 0; r < c.SomY; r++ {
		out[r] = make([]float64, c.SomX)
		for col := 0; col < c.SomX; col++ {
			self, err := vecops.GetWeightVector(c.Weights, r, col, c.Ndimen)
			if err != nil {
				return nil, err
			}

			var sum float64
			var count int
			for nr := r - 2; nr <= r+2; nr++ {
				if nr < 0 || nr >= c.SomY {
					continue
				}
				for nc := col - 2; nc <= col+2; nc++ {
					if nc < 0 || nc >= c.SomX {
						continue
					}
					if nr == r && nc == col {
						continue
					}
					dr, dc := float64(nr-r), float64(nc-col)
					if math.Sqrt(dr*dr+dc*dc) > neighborRadius {
						continue
					}
					other, err := vecops.GetWeightVector(c.Weights, nr, nc, c.Ndimen)
					if err != nil {
						return nil, err
					}
					d, err := vecops.Distance(self, other, vecops.DistEuclidean)
					if err != nil {
						return nil, err
					}
					sum += d
					count++
				}
			}
			if count > 0 {
				out[r][col] = sum / float64(count)
			}
		}
	}
	return out, nil
}

// WriteUMatrix writes the u-matrix row by row, whitespace-separated, to w.
func WriteUMatrix(w io.Writer, u [][]float64) error {
	bw := bufio.NewWriter(w)
	for _, row := range u {
		for j, v := range row {
			if j > 0 {
				if _, err := bw.WriteString(" "); err != nil {
					return errors.WithStack(err)
				}
			}
			if _, err := fmt.Fprintf(bw, "%g", v); err != nil {
				return errors.WithStack(err)
			}
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(bw.Flush())
}

// WriteMap writes result.map.txt: a header line "NDIMEN rect SOM_X SOM_Y"
// followed by SOM_Y*SOM_X lines, each holding one grid cell's NDIMEN-long
// weight vector, row-major.
func WriteMap(w io.Writer, c *som.Codebook) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d rect %d %d\n", c.Ndimen, c.SomX, c.SomY); err != nil {
		return errors.WithStack(err)
	}
	for r := 0; r < c.SomY; r++ {
		for col := 0; col < c.SomX; col++ {
			wv, err := vecops.GetWeightVector(c.Weights, r, col, c.Ndimen)
			if err != nil {
				return err
			}
			for j, v := range wv {
				if j > 0 {
					if _, err := bw.WriteString(" "); err != nil {
						return errors.WithStack(err)
					}
				}
				if _, err := fmt.Fprintf(bw, "%g", v); err != nil {
					return errors.WithStack(err)
				}
			}
			if _, err := bw.WriteString("\n"); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	return errors.WithStack(bw.Flush())
}
