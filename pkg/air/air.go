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

// Package air defines the contracts through which the proof pipeline
// consumes an algebraic constraint system.  The pipeline never inspects the
// constraints themselves; it only needs their count, their shape relative to
// the trace, and the ability to evaluate their randomised composition
// pointwise over an evaluation domain.  This keeps the decoder and the
// pipeline orchestration independent of any particular constraint system,
// hash function or field extension.
package air

import (
	"github.com/consensys/go-cairo/pkg/trace"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Transcript is the verifier-facing randomness source: a Fiat-Shamir
// accumulator which absorbs every prover commitment and public value, and
// deterministically emits challenges derived from everything absorbed so
// far.  Implementations are exclusively owned by a single proof generation.
type Transcript interface {
	// Absorb commits the given bytes to the transcript.
	Absorb(data []byte)
	// DrawChallenge derives a pseudorandom field element from the current
	// transcript state.
	DrawChallenge() fr.Element
	// DrawIndices derives count distinct pseudorandom indices in the range
	// [0, bound).
	DrawIndices(count, bound uint) []uint
}

// Challenges holds the pseudorandom field elements drawn for building the
// extension (permutation / consistency argument) columns.
type Challenges []fr.Element

// Hints holds schema-specific values precomputed from the challenges, handed
// back to the schema during constraint evaluation.
type Hints []fr.Element

// EvalInput gathers everything a schema needs to evaluate the randomised
// composition of its constraints pointwise over the evaluation domain.
type EvalInput struct {
	// One random coefficient per constraint.
	Coeffs []fr.Element
	// Challenges drawn after the base trace commitment.
	Challenges Challenges
	// Precomputed hints.
	Hints Hints
	// Base columns evaluated over the evaluation domain.
	Base *trace.Matrix
	// Extension columns evaluated over the evaluation domain, or nil when
	// the schema declares none.
	Extension *trace.Matrix
	// The evaluation domain points themselves.
	Points []fr.Element
	// Ratio between evaluation and trace domain sizes.
	Blowup uint
	// Generator of the trace domain.
	TraceGenerator fr.Element
}

// Schema is the constraint system an execution trace is proven against,
// consumed as an opaque capability.  Dimension accessors are checked against
// the trace before any proving work: a disagreement is a fatal
// incompatibility, not a recoverable fault.
type Schema interface {
	// NumBaseColumns returns the number of base trace columns this schema
	// expects.
	NumBaseColumns() uint
	// NumExtensionColumns returns the number of extension columns this
	// schema builds from its challenges (possibly zero).
	NumExtensionColumns() uint
	// NumConstraints returns the total number of boundary and transition
	// constraints.
	NumConstraints() uint
	// CeBlowupFactor returns the number of equal-degree column chunks the
	// composition polynomial is split into.
	CeBlowupFactor() uint
	// GenChallenges draws the schema's extension-column challenges from the
	// given transcript.
	GenChallenges(transcript Transcript) Challenges
	// GenHints precomputes schema-specific values from the challenges.
	GenHints(challenges Challenges) Hints
	// BuildExtensionColumns materialises the extension columns over the
	// trace domain, or returns nil when the schema declares none.
	BuildExtensionColumns(base *trace.Matrix, challenges Challenges) (*trace.Matrix, error)
	// EvalConstraints evaluates the randomised constraint composition
	// pointwise over the evaluation domain.
	EvalConstraints(input EvalInput) ([]fr.Element, error)
}

// Factory constructs a schema instance for a given trace length, set of
// public inputs and proof options.
type Factory func(traceLength uint, public trace.PublicInputs, options ProofOptions) (Schema, error)
