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
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"
	"testing"

	"github.com/consensys/go-cairo/pkg/air"
	"github.com/consensys/go-cairo/pkg/trace"
	"github.com/consensys/go-cairo/pkg/vm"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Build a recorded execution of n "assert equal immediate" steps, each
// asserting [ap] equals an immediate and bumping ap.
func testExecution(t *testing.T, n uint64) *trace.ExecutionTrace {
	const flags = 1<<vm.FlagOp0Reg | 1<<vm.FlagOp1Imm | 1<<vm.FlagApAdd1 | 1<<vm.FlagOpcodeAssertEq
	//
	var (
		data   []string
		states []vm.RegisterState
		memBuf bytes.Buffer
		instr  = uint64(vm.HalfOffset) |
			uint64(vm.HalfOffset-1)<<vm.OffOp0BitOffset |
			uint64(vm.HalfOffset+1)<<vm.OffOp1BitOffset |
			uint64(flags)<<vm.FlagsBitOffset
	)
	//
	writeCell := func(address, value uint64) {
		var record [40]byte
		binary.LittleEndian.PutUint64(record[:8], address)
		binary.LittleEndian.PutUint64(record[8:16], value)
		memBuf.Write(record[:])
	}
	//
	writeCell(99, 777)
	//
	for i := uint64(0); i < n; i++ {
		data = append(data, strconv.FormatUint(instr, 10), strconv.FormatUint(200+i, 10))
		writeCell(2*i+1, instr)
		writeCell(2*i+2, 200+i)
		writeCell(100+i, 200+i)
		//
		states = append(states, vm.RegisterState{Ap: 100 + i, Fp: 100, Pc: 2*i + 1})
	}
	//
	memory, err := vm.ReadMemory(&memBuf)
	require.NoError(t, err)
	//
	program := &vm.CompiledProgram{Data: data, Prime: fmt.Sprintf("%#x", fr.Modulus())}
	//
	execution, err := trace.NewExecutionTrace(program, states, memory)
	require.NoError(t, err)
	//
	return execution
}

func testOptions() air.ProofOptions {
	options := air.DefaultProofOptions()
	options.BlowupFactor = 8
	options.NumQueries = 8
	options.GrindingBits = 2
	options.MaxRemainderSize = 8
	//
	return options
}

func TestProveEndToEnd(t *testing.T) {
	execution := testExecution(t, 8)
	//
	proof, err := Prove(execution, air.NewBoundarySchema, testOptions())
	require.NoError(t, err)
	//
	assert.Equal(t, uint(8), proof.TraceLength)
	assert.NotEmpty(t, proof.BaseRoot)
	assert.Nil(t, proof.ExtensionRoot)
	assert.NotEmpty(t, proof.CompositionRoot)
	// 64 evaluations folded down to 8 leaves three layers
	assert.Len(t, proof.FriRoots, 3)
	require.Len(t, proof.FriRemainder, 8)
	// Three folds of the deep composition leave a constant
	for i := 1; i < len(proof.FriRemainder); i++ {
		assert.True(t, proof.FriRemainder[i].IsZero(), "remainder coefficient %d", i)
	}
	//
	require.Len(t, proof.Positions, 8)
	require.Len(t, proof.BaseOpenings, 8)
	require.Len(t, proof.CompositionOpenings, 8)
	require.Len(t, proof.FriOpenings, 8)
	// Trace openings authenticate against the commitment
	for i, opening := range proof.BaseOpenings {
		assert.Equal(t, proof.Positions[i], opening.Index)
		assert.Len(t, opening.Row, trace.NumBaseColumns)
		assert.True(t, VerifyOpening(proof.BaseRoot, opening.Index, encodeRow(opening.Row), opening.Path))
	}
	//
	for _, opening := range proof.CompositionOpenings {
		assert.Len(t, opening.Row, 1)
		assert.True(t, VerifyOpening(proof.CompositionRoot, opening.Index, encodeRow(opening.Row), opening.Path))
	}
	//
	for i, openings := range proof.FriOpenings {
		require.Len(t, openings, 3)
		//
		size := uint(64)
		for layer, opening := range openings {
			index := proof.Positions[i] % size
			assert.True(t, VerifyOpening(proof.FriRoots[layer], index, opening.Evaluation.Marshal(), opening.Path))
			size /= 2
		}
	}
}

func TestProveDeterminism(t *testing.T) {
	execution := testExecution(t, 8)
	//
	proof1, err := Prove(execution, air.NewBoundarySchema, testOptions())
	require.NoError(t, err)
	//
	proof2, err := Prove(execution, air.NewBoundarySchema, testOptions())
	require.NoError(t, err)
	//
	assert.Equal(t, proof1.BaseRoot, proof2.BaseRoot)
	assert.Equal(t, proof1.CompositionRoot, proof2.CompositionRoot)
	assert.Equal(t, proof1.OodPoint, proof2.OodPoint)
	assert.Equal(t, proof1.FriRoots, proof2.FriRoots)
	assert.Equal(t, proof1.Nonce, proof2.Nonce)
	assert.Equal(t, proof1.Positions, proof2.Positions)
}

func TestProveOptionsInfluenceTranscript(t *testing.T) {
	execution := testExecution(t, 8)
	//
	proof1, err := Prove(execution, air.NewBoundarySchema, testOptions())
	require.NoError(t, err)
	//
	options := testOptions()
	options.NumQueries = 7
	//
	proof2, err := Prove(execution, air.NewBoundarySchema, options)
	require.NoError(t, err)
	// Same commitments, different challenges
	assert.Equal(t, proof1.BaseRoot, proof2.BaseRoot)
	assert.NotEqual(t, proof1.OodPoint, proof2.OodPoint)
}

func TestProofRoundTrip(t *testing.T) {
	execution := testExecution(t, 8)
	//
	proof, err := Prove(execution, air.NewBoundarySchema, testOptions())
	require.NoError(t, err)
	//
	var buf bytes.Buffer
	require.NoError(t, proof.Encode(&buf))
	//
	decoded, err := ReadProof(&buf)
	require.NoError(t, err)
	//
	assert.Equal(t, proof, decoded)
}

func TestProveInvalidOptions(t *testing.T) {
	execution := testExecution(t, 8)
	//
	options := testOptions()
	options.FoldingFactor = 4
	//
	_, err := Prove(execution, air.NewBoundarySchema, options)
	assert.Error(t, err)
}

// Minimal schema stub for exercising pipeline error paths.
type stubSchema struct {
	baseCols    uint
	constraints uint
	ceBlowup    uint
	eval        func(air.EvalInput) ([]fr.Element, error)
}

func (p *stubSchema) NumBaseColumns() uint      { return p.baseCols }
func (p *stubSchema) NumExtensionColumns() uint { return 0 }
func (p *stubSchema) NumConstraints() uint      { return p.constraints }
func (p *stubSchema) CeBlowupFactor() uint      { return p.ceBlowup }

func (p *stubSchema) GenChallenges(transcript air.Transcript) air.Challenges { return nil }
func (p *stubSchema) GenHints(challenges air.Challenges) air.Hints           { return nil }

func (p *stubSchema) BuildExtensionColumns(base *trace.Matrix, challenges air.Challenges) (*trace.Matrix, error) {
	return nil, nil
}

func (p *stubSchema) EvalConstraints(input air.EvalInput) ([]fr.Element, error) {
	return p.eval(input)
}

func stubFactory(schema air.Schema) air.Factory {
	return func(traceLength uint, public trace.PublicInputs, options air.ProofOptions) (air.Schema, error) {
		return schema, nil
	}
}

func TestProveSchemaShapeMismatch(t *testing.T) {
	execution := testExecution(t, 8)
	// Wrong column count
	schema := &stubSchema{baseCols: 7, constraints: 1, ceBlowup: 1}
	_, err := Prove(execution, stubFactory(schema), testOptions())
	assert.ErrorIs(t, err, trace.ErrDimensionMismatch)
	// No constraints
	schema = &stubSchema{baseCols: trace.NumBaseColumns, constraints: 0, ceBlowup: 1}
	_, err = Prove(execution, stubFactory(schema), testOptions())
	assert.ErrorIs(t, err, trace.ErrDimensionMismatch)
	// Composition blowup exceeding the domain blowup
	schema = &stubSchema{baseCols: trace.NumBaseColumns, constraints: 1, ceBlowup: 16}
	_, err = Prove(execution, stubFactory(schema), testOptions())
	assert.ErrorIs(t, err, trace.ErrDimensionMismatch)
}

func TestProveUnsatisfiedConstraints(t *testing.T) {
	execution := testExecution(t, 8)
	// A "composition" of maximal degree, as produced by constraints which do
	// not divide their vanishing polynomial.
	schema := &stubSchema{
		baseCols:    trace.NumBaseColumns,
		constraints: 1,
		ceBlowup:    1,
		eval: func(input air.EvalInput) ([]fr.Element, error) {
			exponent := big.NewInt(int64(len(input.Points) - 1))
			evals := make([]fr.Element, len(input.Points))
			//
			for i, x := range input.Points {
				evals[i].Exp(x, exponent)
			}
			//
			return evals, nil
		},
	}
	//
	_, err := Prove(execution, stubFactory(schema), testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsatisfied")
}
