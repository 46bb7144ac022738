package update

import (
	"testing"

	"github.com/pkuwalter/mr-mpi-som/internal/accum"
	"github.com/pkuwalter/mr-mpi-som/internal/som"
)

func TestApplyWritesNumerOverDenom(t *testing.T) {
	c, err := som.New(1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}

	reduced := accum.New(1, 2, 2)
	reduced.Numer[reduced.Index(0, 1, 0)] = 6
	reduced.Denom[reduced.Index(0, 1, 0)] = 2
	reduced.Numer[reduced.Index(0, 1, 1)] = 9
	reduced.Denom[reduced.Index(0, 1, 1)] = 3

	if err := Apply(c, reduced); err != nil {
		t.Fatal(err)
	}
	if got := c.Weights.At(0, 2); got != 3 {
		t.Fatalf("weight (0,1,0) = %v, want 3", got)
	}
	if got := c.Weights.At(0, 3); got != 3 {
		t.Fatalf("weight (0,1,1) = %v, want 3", got)
	}
}

func TestApplyRetainsWeightOnDegenerateDenom(t *testing.T) {
	// Boundary scenario from spec.md §8.3: a key with denom == 0 must
	// retain its prior weight bit-for-bit rather than divide by zero.
	c, err := som.New(1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	c.Weights.Set(0, 0, 0.42)

	reduced := accum.New(1, 1, 1)
	reduced.Numer[0] = 0
	reduced.Denom[0] = 0

	if err := Apply(c, reduced); err != nil {
		t.Fatal(err)
	}
	if got := c.Weights.At(0, 0); got != 0.42 {
		t.Fatalf("weight = %v, want unchanged 0.42", got)
	}
}

func TestApplyShapeMismatchFails(t *testing.T) {
	c, _ := som.New(2, 2, 2)
	reduced := accum.New(1, 1, 1)
	if err := Apply(c, reduced); err == nil {
		t.Fatal("expected error for shape mismatch")
	}
}
