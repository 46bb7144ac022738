package config

import "testing"

func TestParseArgsSixArity(t *testing.T) {
	tr, err := ParseArgs([]string{"master.txt", "200", "0", "4", "2"})
	if err != nil {
		t.Fatal(err)
	}
	if tr.SomX != defaultSomX || tr.SomY != defaultSomY {
		t.Fatalf("expected default SOM_X/SOM_Y of %d, got %d/%d", defaultSomX, tr.SomX, tr.SomY)
	}
	if tr.NEpochs != 200 || tr.NVecsPerFile != 4 || tr.Ndimen != 2 {
		t.Fatalf("unexpected parse: %+v", tr)
	}
	if tr.TrainMode != Batch {
		t.Fatalf("expected Batch mode, got %v", tr.TrainMode)
	}
}

func TestParseArgsEightArity(t *testing.T) {
	tr, err := ParseArgs([]string{"master.txt", "10000", "0", "4", "2", "4", "4"})
	if err != nil {
		t.Fatal(err)
	}
	if tr.SomX != 4 || tr.SomY != 4 {
		t.Fatalf("got SOM_X=%d SOM_Y=%d, want 4,4", tr.SomX, tr.SomY)
	}
}

func TestParseArgsBadArity(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"only-one"},
		{"a", "b", "c", "d", "e", "f"},
		{"a", "b", "c", "d", "e", "f", "g", "h"},
	} {
		if _, err := ParseArgs(args); !IsUsageError(err) {
			t.Fatalf("ParseArgs(%v): expected usage error, got %v", args, err)
		}
	}
}

func TestParseArgsNonNumeric(t *testing.T) {
	if _, err := ParseArgs([]string{"master.txt", "nope", "0", "4", "2"}); err == nil {
		t.Fatal("expected error for non-numeric NEPOCHS")
	}
}

func TestParseArgsTrainModeAcceptsZero(t *testing.T) {
	// TRAINMODE 0 selects Batch and is the only training mode implemented;
	// it must not be rejected by the positivity check the other fields get.
	tr, err := ParseArgs([]string{"master.txt", "10", "0", "4", "2"})
	if err != nil {
		t.Fatal(err)
	}
	if tr.TrainMode != Batch {
		t.Fatalf("TrainMode = %v, want Batch", tr.TrainMode)
	}
}

func TestParseArgsRejectsNonPositiveFields(t *testing.T) {
	for _, args := range [][]string{
		{"master.txt", "0", "0", "4", "2"},
		{"master.txt", "-1", "0", "4", "2"},
		{"master.txt", "10", "0", "0", "2"},
		{"master.txt", "10", "0", "4", "0"},
		{"master.txt", "10", "0", "4", "2", "0", "4"},
		{"master.txt", "10", "0", "4", "2", "4", "0"},
	} {
		if _, err := ParseArgs(args); err == nil {
			t.Fatalf("ParseArgs(%v): expected error for non-positive field", args)
		}
	}
}
