// Package linalg provides the small dense matrix kernel used by the
// circuit Heisenberg representations and the gaussian device.
//
// Matrices here are tiny (dimension 2n+1 for n-wire programs), so the
// implementation favors clarity over blocking or vectorization: a flat
// float64 buffer in row-major order plus explicit dimensions.
package linalg

import "fmt"

// Matrix is a dense row-major float64 matrix.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// New creates a zero matrix with the given dimensions.
func New(rows, cols int) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("linalg: invalid dimensions %dx%d", rows, cols))
	}
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// Eye creates the n-by-n identity matrix.
func Eye(n int) *Matrix {
	m := New(n, n)
	for i := 0; i < n; i++ {
		m.Data[i*n+i] = 1
	}
	return m
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}

// Set assigns the element at row i, column j.
func (m *Matrix) Set(i, j int, v float64) {
	m.Data[i*m.Cols+j] = v
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := New(m.Rows, m.Cols)
	copy(c.Data, m.Data)
	return c
}

// Transpose returns a new transposed matrix.
func (m *Matrix) Transpose() *Matrix {
	t := New(m.Cols, m.Rows)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			t.Data[j*t.Cols+i] = m.Data[i*m.Cols+j]
		}
	}
	return t
}

// Mul returns the matrix product m * o.
func (m *Matrix) Mul(o *Matrix) *Matrix {
	if m.Cols != o.Rows {
		panic(fmt.Sprintf("linalg: Mul dimension mismatch %dx%d * %dx%d", m.Rows, m.Cols, o.Rows, o.Cols))
	}
	r := New(m.Rows, o.Cols)
	for i := 0; i < m.Rows; i++ {
		for k := 0; k < m.Cols; k++ {
			a := m.Data[i*m.Cols+k]
			if a == 0 {
				continue
			}
			for j := 0; j < o.Cols; j++ {
				r.Data[i*r.Cols+j] += a * o.Data[k*o.Cols+j]
			}
		}
	}
	return r
}

// MulVec returns the matrix-vector product m * v.
func (m *Matrix) MulVec(v []float64) []float64 {
	if m.Cols != len(v) {
		panic(fmt.Sprintf("linalg: MulVec dimension mismatch %dx%d * %d", m.Rows, m.Cols, len(v)))
	}
	r := make([]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		var s float64
		for j := 0; j < m.Cols; j++ {
			s += m.Data[i*m.Cols+j] * v[j]
		}
		r[i] = s
	}
	return r
}

// VecMul returns the row-vector-matrix product v * m.
func VecMul(v []float64, m *Matrix) []float64 {
	if len(v) != m.Rows {
		panic(fmt.Sprintf("linalg: VecMul dimension mismatch %d * %dx%d", len(v), m.Rows, m.Cols))
	}
	r := make([]float64, m.Cols)
	for i, a := range v {
		if a == 0 {
			continue
		}
		for j := 0; j < m.Cols; j++ {
			r[j] += a * m.Data[i*m.Cols+j]
		}
	}
	return r
}

// Add returns m + o.
func (m *Matrix) Add(o *Matrix) *Matrix {
	m.assertSameShape(o, "Add")
	r := m.Clone()
	for i, v := range o.Data {
		r.Data[i] += v
	}
	return r
}

// Sub returns m - o.
func (m *Matrix) Sub(o *Matrix) *Matrix {
	m.assertSameShape(o, "Sub")
	r := m.Clone()
	for i, v := range o.Data {
		r.Data[i] -= v
	}
	return r
}

// Scale returns c * m.
func (m *Matrix) Scale(c float64) *Matrix {
	r := m.Clone()
	for i := range r.Data {
		r.Data[i] *= c
	}
	return r
}

func (m *Matrix) assertSameShape(o *Matrix, op string) {
	if m.Rows != o.Rows || m.Cols != o.Cols {
		panic(fmt.Sprintf("linalg: %s shape mismatch %dx%d vs %dx%d", op, m.Rows, m.Cols, o.Rows, o.Cols))
	}
}
