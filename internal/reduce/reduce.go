// Package reduce sums the partial-sum accumulators emitted by every map
// task sharing a grid shape into one reduced accumulator per epoch.
package reduce

import (
	"github.com/pkg/errors"

	"github.com/pkuwalter/mr-mpi-som/internal/accum"
)

// Sum combines every accumulator in parts into one, component-wise. The
// combiner is commutative and associative (spec.md §4.5), so parts may
// arrive in any order and the runtime may invoke Sum more than once on
// partial results without affecting the outcome.
func Sum(parts []*accum.Accumulator) (*accum.Accumulator, error) {
	if len(parts) == 0 {
		return nil, errors.New("reduce: no accumulators to combine")
	}
	out := accum.New(parts[0].SomY, parts[0].SomX, parts[0].Ndimen)
	for _, p := range parts {
		if p.SomY != out.SomY || p.SomX != out.SomX || p.Ndimen != out.Ndimen {
			return nil, errors.Errorf("reduce: shape mismatch %dx%dx%d vs %dx%dx%d",
				p.SomY, p.SomX, p.Ndimen, out.SomY, out.SomX, out.Ndimen)
		}
		out.Add(p)
	}
	return out, nil
}
