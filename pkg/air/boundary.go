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
package air

import (
	"fmt"

	"github.com/consensys/go-cairo/pkg/trace"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// BoundarySchema is a minimal reference schema with a single constraint: the
// program counter of the first executed step must equal the initial program
// counter declared in the public inputs.  It declares no extension columns
// and draws no challenges.  It exists to exercise the full proof pipeline
// end-to-end, and serves as the template for richer schemas.
type BoundarySchema struct {
	traceLength uint
	// Expected value of the pc column at row zero.
	initialPc fr.Element
}

// NewBoundarySchema is a Factory for BoundarySchema.
func NewBoundarySchema(traceLength uint, public trace.PublicInputs, options ProofOptions) (Schema, error) {
	var initialPc fr.Element
	//
	initialPc.SetUint64(public.InitialState.Pc)
	// Done
	return &BoundarySchema{traceLength, initialPc}, nil
}

// NumBaseColumns implementation for the Schema interface.
func (p *BoundarySchema) NumBaseColumns() uint {
	return trace.NumBaseColumns
}

// NumExtensionColumns implementation for the Schema interface.
func (p *BoundarySchema) NumExtensionColumns() uint {
	return 0
}

// NumConstraints implementation for the Schema interface.
func (p *BoundarySchema) NumConstraints() uint {
	return 1
}

// CeBlowupFactor implementation for the Schema interface.  The boundary
// quotient has degree below the trace length, hence a single chunk suffices.
func (p *BoundarySchema) CeBlowupFactor() uint {
	return 1
}

// GenChallenges implementation for the Schema interface.
func (p *BoundarySchema) GenChallenges(transcript Transcript) Challenges {
	return nil
}

// GenHints implementation for the Schema interface.
func (p *BoundarySchema) GenHints(challenges Challenges) Hints {
	return nil
}

// BuildExtensionColumns implementation for the Schema interface.
func (p *BoundarySchema) BuildExtensionColumns(base *trace.Matrix, challenges Challenges) (*trace.Matrix, error) {
	return nil, nil
}

// EvalConstraints evaluates coeff * (pc(x) - initialPc) / (x - 1) pointwise.
// The first trace row sits at x = 1 (the trace generator raised to zero), so
// the quotient is a polynomial exactly when the boundary condition holds.
func (p *BoundarySchema) EvalConstraints(input EvalInput) ([]fr.Element, error) {
	if len(input.Coeffs) != 1 {
		return nil, fmt.Errorf("expected 1 composition coefficient, got %d", len(input.Coeffs))
	}
	//
	var one fr.Element
	//
	one.SetOne()
	// Batch invert the vanishing terms x - 1
	denominators := make([]fr.Element, len(input.Points))
	for i, x := range input.Points {
		denominators[i].Sub(&x, &one)
	}
	//
	denominators = fr.BatchInvert(denominators)
	//
	pcColumn := input.Base.Column(trace.ColPc)
	evaluations := make([]fr.Element, len(input.Points))
	//
	for i := range evaluations {
		var numerator fr.Element
		//
		numerator.Sub(&pcColumn[i], &p.initialPc)
		numerator.Mul(&numerator, &denominators[i])
		evaluations[i].Mul(&numerator, &input.Coeffs[0])
	}
	// Done
	return evaluations, nil
}
