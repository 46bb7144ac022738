package reduce

import (
	"testing"

	"github.com/pkuwalter/mr-mpi-som/internal/accum"
)

func TestSumCombinesComponentwise(t *testing.T) {
	a := accum.New(1, 1, 2)
	a.Numer[0], a.Denom[0] = 1, 2
	a.Numer[1], a.Denom[1] = 3, 4

	b := accum.New(1, 1, 2)
	b.Numer[0], b.Denom[0] = 10, 20
	b.Numer[1], b.Denom[1] = 30, 40

	out, err := Sum([]*accum.Accumulator{a, b})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{11, 33}
	for i, v := range want {
		if out.Numer[i] != v {
			t.Fatalf("Numer[%d] = %v, want %v", i, out.Numer[i], v)
		}
	}
	wantDenom := []float64{22, 44}
	for i, v := range wantDenom {
		if out.Denom[i] != v {
			t.Fatalf("Denom[%d] = %v, want %v", i, out.Denom[i], v)
		}
	}
}

func TestSumInvocationOrderIrrelevant(t *testing.T) {
	// spec.md §4.5: the combiner is commutative/associative, so partial
	// reductions composed in either order must agree.
	a := accum.New(1, 1, 1)
	a.Numer[0], a.Denom[0] = 1, 1
	b := accum.New(1, 1, 1)
	b.Numer[0], b.Denom[0] = 2, 2
	c := accum.New(1, 1, 1)
	c.Numer[0], c.Denom[0] = 3, 3

	ab, err := Sum([]*accum.Accumulator{a, b})
	if err != nil {
		t.Fatal(err)
	}
	abc1, err := Sum([]*accum.Accumulator{ab, c})
	if err != nil {
		t.Fatal(err)
	}
	abc2, err := Sum([]*accum.Accumulator{a, b, c})
	if err != nil {
		t.Fatal(err)
	}
	if abc1.Numer[0] != abc2.Numer[0] || abc1.Denom[0] != abc2.Denom[0] {
		t.Fatalf("partial vs full reduction disagree: %v/%v vs %v/%v",
			abc1.Numer[0], abc1.Denom[0], abc2.Numer[0], abc2.Denom[0])
	}
}

func TestSumEmptyFails(t *testing.T) {
	if _, err := Sum(nil); err == nil {
		t.Fatal("expected error summing zero accumulators")
	}
}

func TestSumShapeMismatchFails(t *testing.T) {
	a := accum.New(1, 1, 2)
	b := accum.New(2, 1, 2)
	if _, err := Sum([]*accum.Accumulator{a, b}); err == nil {
		t.Fatal("expected error for mismatched accumulator shapes")
	}
}
