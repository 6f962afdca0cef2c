// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package trace

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/fft"
)

// Matrix is a column-major matrix of field elements, where every column has
// the same height.  Depending on context it holds column evaluations over
// some domain, or column polynomial coefficients.  Matrices are read-only
// once fully populated, and may then be shared across workers without
// synchronisation.
type Matrix struct {
	cols [][]fr.Element
}

// NewMatrix constructs a zeroed matrix with the given shape.
func NewMatrix(ncols, nrows uint) *Matrix {
	cols := make([][]fr.Element, ncols)
	//
	for i := range cols {
		cols[i] = make([]fr.Element, nrows)
	}
	// Done
	return &Matrix{cols}
}

// NewMatrixFromColumns wraps existing column data as a matrix, checking all
// columns have the same height.
func NewMatrixFromColumns(cols [][]fr.Element) *Matrix {
	for _, col := range cols {
		if len(col) != len(cols[0]) {
			panic(fmt.Sprintf("ragged matrix (%d vs %d rows)", len(col), len(cols[0])))
		}
	}
	// Done
	return &Matrix{cols}
}

// NumCols returns the number of columns in this matrix.
func (m *Matrix) NumCols() uint {
	return uint(len(m.cols))
}

// NumRows returns the height of this matrix.
func (m *Matrix) NumRows() uint {
	if len(m.cols) == 0 {
		return 0
	}
	// Done
	return uint(len(m.cols[0]))
}

// Column returns the data of a given column.
func (m *Matrix) Column(col uint) []fr.Element {
	return m.cols[col]
}

// Get returns a single element.
func (m *Matrix) Get(col, row uint) fr.Element {
	return m.cols[col][row]
}

// Set assigns a single element.
func (m *Matrix) Set(col, row uint, val fr.Element) {
	m.cols[col][row] = val
}

// Row materialises a single row of this matrix.
func (m *Matrix) Row(row uint) []fr.Element {
	out := make([]fr.Element, len(m.cols))
	//
	for i, col := range m.cols {
		out[i] = col[row]
	}
	// Done
	return out
}

// Interpolate treats every column as evaluations over the given domain and
// converts it to coefficient form.  Columns are processed in parallel, one
// goroutine each.
func (m *Matrix) Interpolate(domain *fft.Domain) *Matrix {
	return m.mapColumns(func(col, out []fr.Element) {
		copy(out, col)
		domain.FFTInverse(out, fft.DIF)
		fft.BitReverse(out)
	}, m.NumRows())
}

// EvaluateLDE treats every column as polynomial coefficients and evaluates it
// over the (larger) evaluation domain, on a coset of the subgroup so that
// evaluation points never collide with trace domain points.  Columns are
// processed in parallel, one goroutine each.
func (m *Matrix) EvaluateLDE(domain *fft.Domain) *Matrix {
	if m.NumRows() > uint(domain.Cardinality) {
		panic(fmt.Sprintf("degree %d exceeds evaluation domain %d", m.NumRows(), domain.Cardinality))
	}
	//
	return m.mapColumns(func(col, out []fr.Element) {
		copy(out, col)
		domain.FFT(out, fft.DIF, fft.OnCoset())
		fft.BitReverse(out)
	}, uint(domain.Cardinality))
}

// InterpolateCoset treats every column as evaluations over a coset of the
// given domain (as produced by EvaluateLDE) and converts it back to
// coefficient form.
func (m *Matrix) InterpolateCoset(domain *fft.Domain) *Matrix {
	return m.mapColumns(func(col, out []fr.Element) {
		copy(out, col)
		domain.FFTInverse(out, fft.DIF, fft.OnCoset())
		fft.BitReverse(out)
	}, m.NumRows())
}

// EvalAt evaluates every column (in coefficient form) at a single point,
// via Horner's rule.
func (m *Matrix) EvalAt(x fr.Element) []fr.Element {
	out := make([]fr.Element, len(m.cols))
	//
	for i, col := range m.cols {
		out[i] = EvalAt(col, x)
	}
	// Done
	return out
}

// EvalAt evaluates a polynomial, given in coefficient form, at a single
// point via Horner's rule.
func EvalAt(coeffs []fr.Element, x fr.Element) fr.Element {
	var acc fr.Element
	//
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc.Mul(&acc, &x)
		acc.Add(&acc, &coeffs[i])
	}
	// Done
	return acc
}

type columnResult struct {
	col  int
	data []fr.Element
}

// Apply a transformation to every column in parallel, collecting results via
// a channel.
func (m *Matrix) mapColumns(fn func(col, out []fr.Element), height uint) *Matrix {
	c := make(chan columnResult, len(m.cols))
	// Dispatch go-routines
	for i, col := range m.cols {
		go func(i int, col []fr.Element) {
			out := make([]fr.Element, height)
			fn(col, out)
			// Package result
			c <- columnResult{i, out}
		}(i, col)
	}
	//
	cols := make([][]fr.Element, len(m.cols))
	// Collect results
	for range m.cols {
		res := <-c
		cols[res.col] = res.data
	}
	// Done
	return &Matrix{cols}
}
