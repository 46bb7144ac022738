package som

import (
	"math"
	"math/rand"
	"testing"
)

func TestCodebookLayout(t *testing.T) {
	c, err := New(2, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if c.Weights.Rows() != 2 || c.Weights.Cols() != 12 {
		t.Fatalf("got %dx%d, want 2x12", c.Weights.Rows(), c.Weights.Cols())
	}
}

func TestRandomizeInPlaceFillsEveryEntry(t *testing.T) {
	c, _ := New(2, 2, 2)
	rng := rand.New(rand.NewSource(1))
	c.RandomizeInPlace(rng)
	for _, v := range c.Weights.Data() {
		if v < 0 || v >= 1 {
			t.Fatalf("weight %v out of [0,1) range", v)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c, _ := New(1, 1, 2)
	c.Weights.Set(0, 0, 1)
	clone := c.Clone()
	clone.Weights.Set(0, 0, 99)
	if c.Weights.At(0, 0) != 1 {
		t.Fatal("Clone must not alias the original buffer")
	}
}

func TestRadiusSchedule(t *testing.T) {
	r0 := InitialRadius(4)
	if r0 != 2 {
		t.Fatalf("InitialRadius(4) = %v, want 2", r0)
	}

	n := 10000
	r := RadiusAt(r0, 0, n)
	if math.Abs(r-r0) > 1e-9 {
		t.Fatalf("RadiusAt(x=0) = %v, want %v", r, r0)
	}

	// Radius must be monotonically non-increasing across epochs.
	prev := r0
	for x := 1; x < 50; x++ {
		cur := RadiusAt(r0, x, n)
		if cur > prev {
			t.Fatalf("radius increased at x=%d: %v > %v", x, cur, prev)
		}
		prev = cur
	}
}

func TestDoneTermination(t *testing.T) {
	if !Done(0, 5.0) {
		t.Fatal("expected Done when remaining == 0")
	}
	if !Done(10, 1.0) {
		t.Fatal("expected Done when R <= 1")
	}
	if Done(10, 1.5) {
		t.Fatal("expected not Done when remaining > 0 and R > 1")
	}
}

func TestRadiusCollapseTerminationCount(t *testing.T) {
	// Boundary scenario from spec.md §8.2: SOM_X=4, R0=2, NEPOCHS=10000.
	// The loop must exit via the R<=1 branch (not by exhausting NEPOCHS),
	// and within one epoch of the closed-form estimate
	// ceil(N*sqrt(ln(R0)/10)) from spec.md §8, invariant 4.
	n := 10000
	r0 := InitialRadius(4)
	estimate := int(math.Ceil(float64(n) * math.Sqrt(math.Log(r0)/10)))

	remaining := n
	r := r0
	x := 0
	count := 0
	for !Done(remaining, r) {
		r = RadiusAt(r0, x, n)
		x++
		remaining--
		count++
	}

	if remaining == 0 {
		t.Fatal("expected termination via radius collapse, not epoch exhaustion")
	}
	if diff := count - estimate; diff < 0 || diff > 1 {
		t.Fatalf("terminated after %d epochs, want within 1 of estimate %d", count, estimate)
	}
}
