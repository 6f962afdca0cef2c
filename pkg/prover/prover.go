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

// Package prover implements the proof pipeline: commit to the trace columns,
// draw challenges, build and commit the constraint composition, run the deep
// quotient and low-degree argument, and assemble the query openings into a
// self-contained proof.
package prover

import (
	"encoding/binary"
	"fmt"

	"github.com/consensys/go-cairo/pkg/air"
	"github.com/consensys/go-cairo/pkg/trace"
	"github.com/consensys/go-cairo/pkg/util"
	"github.com/consensys/go-cairo/pkg/vm"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Prove runs the full pipeline over an execution trace, proving it against
// the schema produced by the given factory.  The resulting proof is fully
// deterministic in its inputs.
func Prove(execution *trace.ExecutionTrace, factory air.Factory, options air.ProofOptions) (*Proof, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	//
	schema, err := factory(execution.Length(), execution.Public(), options)
	if err != nil {
		return nil, err
	}
	// Sanity check schema against trace and options
	if err := checkDimensions(execution, schema, options); err != nil {
		return nil, err
	}
	//
	domains, err := NewDomains(execution.Length(), options.BlowupFactor)
	if err != nil {
		return nil, err
	}
	// Seed the transcript with everything the verifier knows upfront
	channel := NewChannel(transcriptSeed(execution, options))
	//
	stats := util.NewPerfStats()
	// Commit to the base columns
	basePoly := execution.Columns().Interpolate(domains.Trace)
	baseLde := basePoly.EvaluateLDE(domains.LDE)
	//
	baseTree, err := CommitMatrix(baseLde)
	if err != nil {
		return nil, err
	}
	//
	channel.Absorb(baseTree.Root())
	stats.Log("base trace commitment")
	// Draw schema challenges and build extension columns
	challenges := schema.GenChallenges(channel)
	hints := schema.GenHints(challenges)
	//
	extension, err := schema.BuildExtensionColumns(execution.Columns(), challenges)
	if err != nil {
		return nil, err
	}
	//
	var (
		extPoly *trace.Matrix
		extLde  *trace.Matrix
		extTree *MerkleTree
	)
	//
	if extension != nil {
		if extension.NumCols() != schema.NumExtensionColumns() {
			return nil, fmt.Errorf("%w: schema built %d extension columns, declared %d",
				trace.ErrDimensionMismatch, extension.NumCols(), schema.NumExtensionColumns())
		}
		//
		extPoly = extension.Interpolate(domains.Trace)
		extLde = extPoly.EvaluateLDE(domains.LDE)
		//
		if extTree, err = CommitMatrix(extLde); err != nil {
			return nil, err
		}
		//
		channel.Absorb(extTree.Root())
		stats.Log("extension commitment")
	}
	// Evaluate the randomised constraint composition
	coeffs := make([]fr.Element, schema.NumConstraints())
	for i := range coeffs {
		coeffs[i] = channel.DrawChallenge()
	}
	//
	compositionEvals, err := schema.EvalConstraints(air.EvalInput{
		Coeffs:         coeffs,
		Challenges:     challenges,
		Hints:          hints,
		Base:           baseLde,
		Extension:      extLde,
		Points:         domains.Points,
		Blowup:         options.BlowupFactor,
		TraceGenerator: domains.Trace.Generator,
	})
	//
	if err != nil {
		return nil, err
	}
	//
	stats.Log("constraint evaluation")
	// Split the composition into trace-degree chunks and commit
	chunkPoly, err := splitComposition(compositionEvals, execution.Length(), schema.CeBlowupFactor(), domains)
	if err != nil {
		return nil, err
	}
	//
	chunkLde := chunkPoly.EvaluateLDE(domains.LDE)
	//
	compTree, err := CommitMatrix(chunkLde)
	if err != nil {
		return nil, err
	}
	//
	channel.Absorb(compTree.Root())
	stats.Log("composition commitment")
	// Evaluate everything at an out-of-domain point
	z := domains.DrawOffDomainPoint(channel)
	//
	oodBase := basePoly.EvalAt(z)
	channel.AbsorbElements(oodBase)
	//
	var oodExt []fr.Element
	if extPoly != nil {
		oodExt = extPoly.EvalAt(z)
		channel.AbsorbElements(oodExt)
	}
	//
	oodComp := chunkPoly.EvalAt(z)
	channel.AbsorbElements(oodComp)
	stats.Log("out-of-domain evaluation")
	// Build the deep composition over every committed column
	var (
		columns  [][]fr.Element
		oodEvals []fr.Element
	)
	//
	columns, oodEvals = appendColumns(columns, oodEvals, baseLde, oodBase)
	columns, oodEvals = appendColumns(columns, oodEvals, extLde, oodExt)
	columns, oodEvals = appendColumns(columns, oodEvals, chunkLde, oodComp)
	//
	gammas := make([]fr.Element, len(columns))
	for i := range gammas {
		gammas[i] = channel.DrawChallenge()
	}
	//
	deepEvals, err := DeepCompose(columns, oodEvals, gammas, domains.Points, z)
	if err != nil {
		return nil, err
	}
	//
	stats.Log("deep composition")
	// Low-degree argument
	fri, err := BuildLayers(deepEvals, domains.Points, options.MaxRemainderSize, channel)
	if err != nil {
		return nil, err
	}
	//
	stats.Log("low-degree folding")
	// Proof-of-work, then query positions
	nonce := channel.Grind(options.GrindingBits)
	positions := channel.DrawIndices(options.NumQueries, domains.Size())
	stats.Log("grinding")
	// Open every commitment at the query positions
	proof := &Proof{
		TraceLength:         execution.Length(),
		Options:             options,
		BaseRoot:            baseTree.Root(),
		CompositionRoot:     compTree.Root(),
		OodPoint:            z,
		OodBaseEvals:        oodBase,
		OodExtensionEvals:   oodExt,
		OodCompositionEvals: oodComp,
		FriRoots:            fri.Roots(),
		FriRemainder:        fri.Remainder(),
		Nonce:               nonce,
		Positions:           positions,
		BaseOpenings:        openRows(baseLde, baseTree, positions),
		CompositionOpenings: openRows(chunkLde, compTree, positions),
	}
	//
	if extTree != nil {
		proof.ExtensionRoot = extTree.Root()
		proof.ExtensionOpenings = openRows(extLde, extTree, positions)
	}
	//
	proof.FriOpenings = make([][]FriLayerOpening, len(positions))
	for i, position := range positions {
		proof.FriOpenings[i] = fri.Open(position)
	}
	//
	stats.Log("query openings")
	// Done
	return proof, nil
}

// Check the schema's declared shape against the trace and the proof options.
func checkDimensions(execution *trace.ExecutionTrace, schema air.Schema, options air.ProofOptions) error {
	switch {
	case schema.NumBaseColumns() != execution.Columns().NumCols():
		return fmt.Errorf("%w: schema expects %d base columns, trace has %d",
			trace.ErrDimensionMismatch, schema.NumBaseColumns(), execution.Columns().NumCols())
	case schema.NumConstraints() == 0:
		return fmt.Errorf("%w: schema declares no constraints", trace.ErrDimensionMismatch)
	case schema.CeBlowupFactor() > options.BlowupFactor:
		return fmt.Errorf("%w: composition blowup %d exceeds domain blowup %d",
			trace.ErrDimensionMismatch, schema.CeBlowupFactor(), options.BlowupFactor)
	}
	// Done
	return nil
}

// Serialise the public context the transcript is seeded with: trace length,
// proof parameters, public memory and the boundary register states.
func transcriptSeed(execution *trace.ExecutionTrace, options air.ProofOptions) []byte {
	var (
		public = execution.Public()
		seed   []byte
	)
	//
	seed = appendUint64(seed, uint64(execution.Length()))
	seed = appendUint64(seed, uint64(options.BlowupFactor))
	seed = appendUint64(seed, uint64(options.FoldingFactor))
	seed = appendUint64(seed, uint64(options.NumQueries))
	seed = appendUint64(seed, uint64(options.GrindingBits))
	seed = appendUint64(seed, uint64(options.MaxRemainderSize))
	//
	seed = appendUint64(seed, uint64(len(public.MemoryEntries)))
	for _, entry := range public.MemoryEntries {
		seed = appendUint64(seed, entry.Address)
		seed = append(seed, entry.Value.Marshal()...)
	}
	//
	seed = appendUint64(seed, public.Padding.Address)
	seed = append(seed, public.Padding.Value.Marshal()...)
	//
	for _, state := range []vm.RegisterState{public.InitialState, public.FinalState} {
		seed = appendUint64(seed, state.Ap)
		seed = appendUint64(seed, state.Fp)
		seed = appendUint64(seed, state.Pc)
	}
	// Done
	return seed
}

func appendUint64(data []byte, value uint64) []byte {
	var buf [8]byte
	//
	binary.BigEndian.PutUint64(buf[:], value)
	// Done
	return append(data, buf[:]...)
}

// Interpolate the composition evaluations over the evaluation coset and
// split the coefficients into chunks of trace degree, one chunk per column.
// A randomised composition of satisfied constraints has degree below chunks
// times the trace length; any trailing coefficient beyond that indicates an
// unsatisfied constraint and aborts proving.
func splitComposition(evaluations []fr.Element, traceLength, chunks uint, domains *Domains) (*trace.Matrix, error) {
	var (
		evalMatrix = trace.NewMatrixFromColumns([][]fr.Element{evaluations})
		coeffs     = evalMatrix.InterpolateCoset(domains.LDE).Column(0)
	)
	//
	for i := chunks * traceLength; i < uint(len(coeffs)); i++ {
		if !coeffs[i].IsZero() {
			return nil, fmt.Errorf("composition degree exceeds %d, constraints unsatisfied", chunks*traceLength)
		}
	}
	//
	cols := make([][]fr.Element, chunks)
	for i := range cols {
		cols[i] = coeffs[uint(i)*traceLength : uint(i+1)*traceLength]
	}
	// Done
	return trace.NewMatrixFromColumns(cols), nil
}

// Append the columns of a matrix (and their matching out-of-domain
// evaluations) to the deep composition inputs.  Nil matrices are skipped.
func appendColumns(columns [][]fr.Element, oodEvals []fr.Element, matrix *trace.Matrix,
	evals []fr.Element) ([][]fr.Element, []fr.Element) {
	//
	if matrix == nil {
		return columns, oodEvals
	}
	//
	for i := uint(0); i < matrix.NumCols(); i++ {
		columns = append(columns, matrix.Column(i))
	}
	// Done
	return columns, append(oodEvals, evals...)
}

// Open the rows of a committed matrix at every query position.
func openRows(matrix *trace.Matrix, tree *MerkleTree, positions []uint) []RowOpening {
	openings := make([]RowOpening, len(positions))
	//
	for i, position := range positions {
		openings[i] = RowOpening{
			Index: position,
			Row:   matrix.Row(position),
			Path:  tree.Open(position),
		}
	}
	// Done
	return openings
}
