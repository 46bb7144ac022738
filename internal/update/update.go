// Package update applies a reduced epoch's accumulator to rank 0's
// codebook.
package update

import (
	"github.com/pkg/errors"

	"github.com/pkuwalter/mr-mpi-som/internal/accum"
	"github.com/pkuwalter/mr-mpi-som/internal/som"
)

// Apply writes, for every triple (r, c, d) with denom != 0, the new weight
// numer/denom into C.Weights at C.Weights.rows[r][c*ndimen+d]. Degenerate
// keys (denom == 0, meaning zero neighborhood weight reached that cell)
// retain their previous weight silently, per spec.md §4.6/§7.
func Apply(c *som.Codebook, reduced *accum.Accumulator) error {
	if reduced.SomY != c.SomY || reduced.SomX != c.SomX || reduced.Ndimen != c.Ndimen {
		return errors.Errorf("update: shape mismatch %dx%dx%d vs codebook %dx%dx%d",
			reduced.SomY, reduced.SomX, reduced.Ndimen, c.SomY, c.SomX, c.Ndimen)
	}

	for r := 0; r < c.SomY; r++ {
		row := c.Weights.Row(r)
		for col := 0; col < c.SomX; col++ {
			for d := 0; d < c.Ndimen; d++ {
				idx := reduced.Index(r, col, d)
				denom := reduced.Denom[idx]
				if denom == 0 {
					continue
				}
				row[col*c.Ndimen+d] = reduced.Numer[idx] / denom
			}
		}
	}
	return nil
}
