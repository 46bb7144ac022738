package matrix

import (
	"bytes"
	"testing"
)

func TestCreateValid(t *testing.T) {
	m, err := Create(3, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !m.Valid() {
		t.Fatal("expected newly created matrix to be valid")
	}
	if m.Rows() != 3 || m.Cols() != 4 {
		t.Fatalf("got %dx%d, want 3x4", m.Rows(), m.Cols())
	}
	if len(m.Data()) != 12 {
		t.Fatalf("backing buffer has %d elements, want 12", len(m.Data()))
	}
}

func TestCreateInvalid(t *testing.T) {
	for _, dims := range [][2]int{{0, 4}, {4, 0}, {-1, 4}} {
		if _, err := Create(dims[0], dims[1]); err == nil {
			t.Fatalf("Create(%d, %d): expected error", dims[0], dims[1])
		}
	}
}

func TestRowAddressingIsContiguous(t *testing.T) {
	m, err := Create(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	m.Set(0, 0, 1)
	m.Set(0, 1, 2)
	m.Set(0, 2, 3)
	m.Set(1, 0, 4)
	m.Set(1, 1, 5)
	m.Set(1, 2, 6)

	// The row-major buffer must reconstruct as the same matrix elsewhere,
	// since that buffer is exactly what gets broadcast each epoch.
	data := m.Data()
	rebuilt, err := FromData(2, 3, data)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			if got, want := rebuilt.At(i, j), m.At(i, j); got != want {
				t.Fatalf("rebuilt[%d][%d] = %v, want %v", i, j, got, want)
			}
		}
	}

	row1 := m.Row(1)
	row1[0] = 99
	if m.At(1, 0) != 99 {
		t.Fatal("Row() must return a view into the backing storage, not a copy")
	}
}

func TestFromDataRejectsMismatchedLength(t *testing.T) {
	if _, err := FromData(2, 2, []float64{1, 2, 3}); err == nil {
		t.Fatal("expected error for mismatched buffer length")
	}
}

func TestFree(t *testing.T) {
	m, _ := Create(2, 2)
	m.Free()
	if m.Valid() {
		t.Fatal("expected freed matrix to be invalid")
	}
}

func TestPrint(t *testing.T) {
	m, _ := Create(2, 2)
	m.Set(0, 0, 1)
	m.Set(0, 1, 2)
	m.Set(1, 0, 3)
	m.Set(1, 1, 4)

	var buf bytes.Buffer
	if err := m.Print(&buf); err != nil {
		t.Fatal(err)
	}
	want := "1 2\n3 4\n"
	if buf.String() != want {
		t.Fatalf("Print() = %q, want %q", buf.String(), want)
	}
}
