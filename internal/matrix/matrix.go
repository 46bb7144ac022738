// Package matrix implements the dense, row-major matrix primitive the
// codebook and every shard are built from. It wraps gonum's mat.Dense,
// which already stores its backing array as one contiguous row-major
// buffer addressed through a row stride — exactly the "row-index table
// must point into the single contiguous data buffer" contract required so
// that broadcasting the buffer as one message reconstructs the matrix on
// every rank.
package matrix

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-major grid of float64s with O(1) row addressing.
type Matrix struct {
	rows, cols int
	dense      *mat.Dense
}

// Create allocates a rows x cols matrix with zeroed storage. rows and cols
// must both be positive.
func Create(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("matrix: invalid dimensions %dx%d", rows, cols)
	}
	return &Matrix{
		rows:  rows,
		cols:  cols,
		dense: mat.NewDense(rows, cols, make([]float64, rows*cols)),
	}, nil
}

// FromData wraps an existing row-major buffer of length rows*cols without
// copying it. This is how a broadcast codebook buffer is reconstituted on
// every rank.
func FromData(rows, cols int, data []float64) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("matrix: invalid dimensions %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, errors.Errorf("matrix: data has %d elements, want %d", len(data), rows*cols)
	}
	return &Matrix{rows: rows, cols: cols, dense: mat.NewDense(rows, cols, data)}, nil
}

// Valid reports whether m is a well-formed matrix: non-nil storage and
// positive dimensions.
func (m *Matrix) Valid() bool {
	return m != nil && m.dense != nil && m.rows > 0 && m.cols > 0
}

// Rows returns the row count.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the column count.
func (m *Matrix) Cols() int { return m.cols }

// Row returns the backing slice for row i, in O(1); mutating it mutates m.
func (m *Matrix) Row(i int) []float64 {
	return m.dense.RawRowView(i)
}

// At returns the element at (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.dense.At(i, j)
}

// Set assigns the element at (i, j).
func (m *Matrix) Set(i, j int, v float64) {
	m.dense.Set(i, j, v)
}

// Data returns the full contiguous row-major buffer backing m. This is the
// single slice broadcast wholesale from rank 0 to every other rank each
// epoch.
func (m *Matrix) Data() []float64 {
	return m.dense.RawMatrix().Data
}

// Free releases m's storage and zeroes its metadata. Go's GC reclaims the
// backing array once unreferenced; this exists so call sites that mirror
// the source's explicit free() calls read the same way.
func (m *Matrix) Free() {
	m.rows, m.cols = 0, 0
	m.dense = nil
}

// Print dumps m row by row to w, whitespace-separated, matching the format
// used for result.map.txt and shard files.
func (m *Matrix) Print(w io.Writer) error {
	for i := 0; i < m.rows; i++ {
		row := m.Row(i)
		for j, v := range row {
			if j > 0 {
				if _, err := io.WriteString(w, " "); err != nil {
					return errors.WithStack(err)
				}
			}
			if _, err := fmt.Fprintf(w, "%g", v); err != nil {
				return errors.WithStack(err)
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
