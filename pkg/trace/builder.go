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
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/consensys/go-cairo/pkg/vm"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// ErrDimensionMismatch indicates a shape disagreement between the trace and
// the constraint schema consuming it: a non-power-of-two trace length, a
// column count differing from the schema's declared shape, or similar.  Such
// errors are fatal construction errors, signalling an incompatible pairing
// rather than a transient fault.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// PublicInputs is the non-secret part of an execution: the public memory
// derived from the compiled program, the canonical padding cell, and the
// register states at the first and last executed step.
type PublicInputs struct {
	MemoryEntries []vm.PublicMemoryEntry
	Padding       vm.PublicMemoryEntry
	InitialState  vm.RegisterState
	FinalState    vm.RegisterState
}

// ExecutionTrace is the fully materialised algebraic view of a recorded
// execution: one row per executed step, one column per algebraic quantity
// required by the constraint schema, together with the public inputs.  It is
// read-only after construction.
type ExecutionTrace struct {
	columns *Matrix
	public  PublicInputs
}

// NewExecutionTrace decodes every step of the recorded execution into the
// full base-column set.  The number of steps must be a non-zero power of two,
// since the trace rows are interpolated over a multiplicative subgroup of
// matching order.  Rows are populated in parallel, since each row depends
// only on the (read-only) register states and memory.
func NewExecutionTrace(program *vm.CompiledProgram, states []vm.RegisterState, memory *vm.Memory,
) (*ExecutionTrace, error) {
	if err := program.Validate(); err != nil {
		return nil, err
	}
	//
	n := uint(len(states))
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: trace length %d not a power of two", ErrDimensionMismatch, n)
	}
	//
	entries, err := program.PublicMemory()
	if err != nil {
		return nil, err
	}
	//
	columns := NewMatrix(NumBaseColumns, n)
	// Dispatch go-routines, one per chunk of rows
	nworkers := min(uint(runtime.NumCPU()), n)
	chunk := n / nworkers
	c := make(chan error, nworkers)
	//
	for w := uint(0); w < nworkers; w++ {
		first, last := w*chunk, (w+1)*chunk
		if w+1 == nworkers {
			last = n
		}
		//
		go func(first, last uint) {
			c <- fillRows(columns, states, memory, first, last)
		}(first, last)
	}
	// Collect results
	for i := uint(0); i < nworkers; i++ {
		if werr := <-c; werr != nil && err == nil {
			err = werr
		}
	}
	//
	if err != nil {
		return nil, err
	}
	// Done
	return &ExecutionTrace{
		columns: columns,
		public: PublicInputs{
			MemoryEntries: entries,
			Padding:       program.PaddingEntry(),
			InitialState:  states[0],
			FinalState:    states[n-1],
		},
	}, nil
}

// FromFiles loads the three artifacts emitted by a machine runner (compiled
// program, register trace, partial memory image) and materialises the
// execution trace.
func FromFiles(programPath, tracePath, memoryPath string) (*ExecutionTrace, error) {
	programBytes, err := os.ReadFile(programPath)
	if err != nil {
		return nil, err
	}
	//
	program, err := vm.ParseProgram(programBytes)
	if err != nil {
		return nil, err
	}
	//
	traceFile, err := os.Open(tracePath)
	if err != nil {
		return nil, err
	}
	defer traceFile.Close()
	//
	states, err := vm.ReadRegisterStates(traceFile)
	if err != nil {
		return nil, err
	}
	//
	memoryFile, err := os.Open(memoryPath)
	if err != nil {
		return nil, err
	}
	defer memoryFile.Close()
	//
	memory, err := vm.ReadMemory(memoryFile)
	if err != nil {
		return nil, err
	}
	// Done
	return NewExecutionTrace(program, states, memory)
}

// Columns returns the base column matrix, one row per executed step.
func (t *ExecutionTrace) Columns() *Matrix {
	return t.columns
}

// Length returns the number of executed steps.
func (t *ExecutionTrace) Length() uint {
	return t.columns.NumRows()
}

// Public returns the public inputs of this execution.
func (t *ExecutionTrace) Public() PublicInputs {
	return t.public
}

// Populate the base columns for rows [first, last).
func fillRows(columns *Matrix, states []vm.RegisterState, memory *vm.Memory, first, last uint) error {
	for row := first; row < last; row++ {
		if err := fillRow(columns, states[row], memory, row); err != nil {
			return fmt.Errorf("step %d: %w", row, err)
		}
	}
	// Done
	return nil
}

func fillRow(columns *Matrix, state vm.RegisterState, memory *vm.Memory, row uint) error {
	word, ok := memory.Resolve(state.Pc)
	if !ok {
		return fmt.Errorf("%w: no instruction at pc %d", vm.ErrMalformedInput, state.Pc)
	}
	//
	setUint64(columns, ColPc, row, state.Pc)
	setUint64(columns, ColAp, row, state.Ap)
	setUint64(columns, ColFp, row, state.Fp)
	// Flag bits
	for i := uint(0); i < uint(vm.NumFlags); i++ {
		if word.Flag(vm.Flag(i)) {
			setUint64(columns, ColFlagBase+i, row, 1)
		}
	}
	// Operand offsets
	setUint64(columns, ColOffDst, row, word.OffDst())
	setUint64(columns, ColOffOp0, row, word.OffOp0())
	setUint64(columns, ColOffOp1, row, word.OffOp1())
	// Operand addresses
	op1Addr, err := word.Op1Addr(state.Pc, state.Ap, state.Fp, memory)
	if err != nil {
		return err
	}
	//
	setUint64(columns, ColDstAddr, row, word.DstAddr(state.Ap, state.Fp))
	setUint64(columns, ColOp0Addr, row, word.Op0Addr(state.Ap, state.Fp))
	setUint64(columns, ColOp1Addr, row, op1Addr)
	// Operand values
	dst, err := word.Dst(state.Ap, state.Fp, memory)
	if err != nil {
		return err
	}
	//
	op0, err := word.Op0(state.Ap, state.Fp, memory)
	if err != nil {
		return err
	}
	//
	op1, err := word.Op1(state.Pc, state.Ap, state.Fp, memory)
	if err != nil {
		return err
	}
	//
	columns.Set(ColDst, row, dst)
	columns.Set(ColOp0, row, op0)
	columns.Set(ColOp1, row, op1)
	// Result and helper values
	res, err := word.Res(state.Pc, state.Ap, state.Fp, memory)
	if err != nil {
		return err
	}
	//
	tmp0, err := word.Tmp0(state.Ap, state.Fp, memory)
	if err != nil {
		return err
	}
	//
	var tmp1 fr.Element
	tmp1.Mul(&tmp0, &res)
	//
	columns.Set(ColRes, row, res)
	columns.Set(ColTmp0, row, tmp0)
	columns.Set(ColTmp1, row, tmp1)
	// Done
	return nil
}

func setUint64(columns *Matrix, col, row uint, val uint64) {
	var elem fr.Element
	//
	elem.SetUint64(val)
	columns.Set(col, row, elem)
}
