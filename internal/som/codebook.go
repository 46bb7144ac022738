// Package som holds the codebook type and the radius decay schedule that
// drives the epoch driver's termination condition.
package som

import (
	"math/rand"

	"github.com/pkuwalter/mr-mpi-som/internal/matrix"
)

// Codebook is the SOM_Y x SOM_X grid of NDIMEN-dimensional weight vectors,
// physically laid out as an SOM_Y x (SOM_X*NDIMEN) matrix: cell (y, x)
// occupies columns [x*NDIMEN, (x+1)*NDIMEN).
type Codebook struct {
	SomY, SomX, Ndimen int
	Weights            *matrix.Matrix
}

// New allocates a codebook of the given grid shape and dimensionality,
// with every weight zeroed.
func New(somY, somX, ndimen int) (*Codebook, error) {
	m, err := matrix.Create(somY, somX*ndimen)
	if err != nil {
		return nil, err
	}
	return &Codebook{SomY: somY, SomX: somX, Ndimen: ndimen, Weights: m}, nil
}

// FromData reconstructs a codebook from a flat row-major buffer received
// over a broadcast; it does not copy the buffer.
func FromData(somY, somX, ndimen int, data []float64) (*Codebook, error) {
	m, err := matrix.FromData(somY, somX*ndimen, data)
	if err != nil {
		return nil, err
	}
	return &Codebook{SomY: somY, SomX: somX, Ndimen: ndimen, Weights: m}, nil
}

// RandomizeInPlace fills every weight with a uniform random value in
// [0, 1), the initial codebook rank 0 seeds before training starts. The
// original C implementation fills the equivalent slot with
// (0xFFF&rand()-0x800)/4096, i.e. [-0.5, 0.5); the shift to [0, 1) matches
// training inputs that are already normalized into that range and has no
// effect on convergence.
func (c *Codebook) RandomizeInPlace(rng *rand.Rand) {
	data := c.Weights.Data()
	for i := range data {
		data[i] = rng.Float64()
	}
}

// Clone returns a deep copy of c whose weight buffer is never aliased with
// c's.
func (c *Codebook) Clone() *Codebook {
	data := append([]float64(nil), c.Weights.Data()...)
	m, _ := matrix.FromData(c.SomY, c.SomX*c.Ndimen, data)
	return &Codebook{SomY: c.SomY, SomX: c.SomX, Ndimen: c.Ndimen, Weights: m}
}
