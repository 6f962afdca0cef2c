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
package prover

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// DeepCompose builds the deep composition over the evaluation domain: a
// random linear combination of the quotients (c_j(x) - c_j(z)) / (x - z)
// across every committed column c_j, where z is the out-of-domain point.
// Each quotient is a polynomial precisely when the claimed out-of-domain
// evaluation c_j(z) is honest, so proving the combination has low degree
// binds the openings to the commitments.
//
// Columns holds every committed column evaluated over the domain points,
// oodEvals the claimed evaluations at z in the same order, and gammas one
// random coefficient per column.
func DeepCompose(columns [][]fr.Element, oodEvals, gammas, points []fr.Element,
	z fr.Element) ([]fr.Element, error) {
	//
	if len(columns) != len(oodEvals) || len(columns) != len(gammas) {
		return nil, fmt.Errorf("deep composition over %d columns given %d evaluations and %d coefficients",
			len(columns), len(oodEvals), len(gammas))
	}
	// Batch invert the shared denominators x - z
	denominators := make([]fr.Element, len(points))
	for i, x := range points {
		denominators[i].Sub(&x, &z)
	}
	//
	denominators = fr.BatchInvert(denominators)
	//
	composition := make([]fr.Element, len(points))
	//
	for j, column := range columns {
		if len(column) != len(points) {
			return nil, fmt.Errorf("column %d has %d evaluations for %d points", j, len(column), len(points))
		}
		//
		for i := range points {
			var term fr.Element
			//
			term.Sub(&column[i], &oodEvals[j])
			term.Mul(&term, &denominators[i])
			term.Mul(&term, &gammas[j])
			composition[i].Add(&composition[i], &term)
		}
	}
	// Done
	return composition, nil
}
