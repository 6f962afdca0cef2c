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
package vm

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Pack an instruction word from signed operand offsets and a raw flag block.
func packInstruction(t *testing.T, offDst, offOp0, offOp1 int64, flags uint64) Word {
	var bytes [32]byte
	//
	limb := uint64(offDst+HalfOffset) |
		uint64(offOp0+HalfOffset)<<OffOp0BitOffset |
		uint64(offOp1+HalfOffset)<<OffOp1BitOffset |
		flags<<FlagsBitOffset
	//
	binary.LittleEndian.PutUint64(bytes[:8], limb)
	//
	word, err := NewWord(bytes)
	require.NoError(t, err)
	//
	return word
}

func TestWordOffsets(t *testing.T) {
	word := packInstruction(t, -3, 0, 17, 0)
	//
	assert.Equal(t, uint64(HalfOffset-3), word.OffDst())
	assert.Equal(t, uint64(HalfOffset), word.OffOp0())
	assert.Equal(t, uint64(HalfOffset+17), word.OffOp1())
}

func TestWordFlags(t *testing.T) {
	for flag := FlagDstReg; flag < FlagUnused; flag++ {
		word := packInstruction(t, 0, 0, 0, 1<<flag)
		//
		for other := FlagDstReg; other <= FlagUnused; other++ {
			assert.Equal(t, flag == other, word.Flag(other), "flag %d vs %d", flag, other)
		}
	}
}

func TestWordFlagPrefixes(t *testing.T) {
	// Flags 1, 9 and 14 set
	word := packInstruction(t, 0, 0, 0, 1<<FlagOp0Reg|1<<FlagPcJnz|1<<FlagOpcodeAssertEq)
	//
	expected := uint64(1<<FlagOp0Reg | 1<<FlagPcJnz | 1<<FlagOpcodeAssertEq)
	//
	for flag := FlagDstReg; flag < FlagUnused; flag++ {
		assert.Equal(t, expected>>flag, word.FlagPrefix(flag), "prefix at flag %d", flag)
	}
	// Padding flag prefix is zero by definition
	assert.Equal(t, uint64(0), word.FlagPrefix(FlagUnused))
}

func TestWordFlagGroups(t *testing.T) {
	word := packInstruction(t, 0, 0, 0, 1<<FlagOp1Fp|1<<FlagResMul|1<<FlagPcJumpRel|1<<FlagOpcodeCall)
	//
	assert.Equal(t, uint8(0), word.FlagGroup(GroupDstReg))
	assert.Equal(t, uint8(0), word.FlagGroup(GroupOp0Reg))
	assert.Equal(t, uint8(2), word.FlagGroup(GroupOp1Src))
	assert.Equal(t, uint8(2), word.FlagGroup(GroupResLogic))
	assert.Equal(t, uint8(2), word.FlagGroup(GroupPcUpdate))
	assert.Equal(t, uint8(0), word.FlagGroup(GroupApUpdate))
	assert.Equal(t, uint8(1), word.FlagGroup(GroupOpcode))
}

func TestWordRejectsOversizeValue(t *testing.T) {
	var bytes [32]byte
	// Encode the modulus itself, little endian
	modBytes := fr.Modulus().Bytes()
	for i, b := range modBytes {
		bytes[len(modBytes)-1-i] = b
	}
	//
	_, err := NewWord(bytes)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestWordFromString(t *testing.T) {
	decimal, err := NewWordFromString("12345")
	require.NoError(t, err)
	//
	hex, err := NewWordFromString("0x3039")
	require.NoError(t, err)
	//
	assert.Equal(t, decimal.Felt(), hex.Felt())
	//
	value, err := decimal.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), value)
	// Negative and garbage items are rejected
	_, err = NewWordFromString("-1")
	assert.ErrorIs(t, err, ErrMalformedInput)
	//
	_, err = NewWordFromString("zzz")
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestWordUint64Overflow(t *testing.T) {
	var bytes [32]byte
	// 2^64, which fits the field but not an address
	bytes[8] = 1
	//
	word, err := NewWord(bytes)
	require.NoError(t, err)
	//
	_, err = word.Uint64()
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestWordBytesRoundTrip(t *testing.T) {
	word := packInstruction(t, -1, 2, -3, 0x4812)
	//
	recovered, err := NewWord(word.Bytes())
	require.NoError(t, err)
	assert.Equal(t, word, recovered)
}

func TestWordDstAddr(t *testing.T) {
	// Destination relative to ap
	word := packInstruction(t, 5, 0, 0, 0)
	assert.Equal(t, uint64(105), word.DstAddr(100, 200))
	// Destination relative to fp
	word = packInstruction(t, -5, 0, 0, 1<<FlagDstReg)
	assert.Equal(t, uint64(195), word.DstAddr(100, 200))
}

func TestWordOp1Immediate(t *testing.T) {
	// Immediate operand lives at pc+1; op0 must not be dereferenced.
	word := packInstruction(t, 0, -1, 1, 1<<FlagOp1Imm|1<<FlagOp0Reg)
	memory := buildMemory(t, map[uint64]string{11: "42"})
	//
	addr, err := word.Op1Addr(10, 100, 200, memory)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), addr)
	//
	op1, err := word.Op1(10, 100, 200, memory)
	require.NoError(t, err)
	assert.Equal(t, feltOf(42), op1)
}

func TestWordOp1Indirect(t *testing.T) {
	// Base address stored at the op0 address.
	word := packInstruction(t, 0, 2, 3, 0)
	memory := buildMemory(t, map[uint64]string{102: "500", 503: "7"})
	//
	addr, err := word.Op1Addr(10, 100, 200, memory)
	require.NoError(t, err)
	assert.Equal(t, uint64(503), addr)
}

func TestWordOp1UndefinedSource(t *testing.T) {
	// Op1Imm and Op1Fp together have no meaning.
	word := packInstruction(t, 0, 0, 0, 1<<FlagOp1Imm|1<<FlagOp1Fp)
	memory := buildMemory(t, nil)
	//
	_, err := word.Op1Addr(10, 100, 200, memory)
	assert.ErrorIs(t, err, ErrMalformedInstruction)
}

func TestWordResAdd(t *testing.T) {
	word := packInstruction(t, 0, 1, 2, 1<<FlagResAdd)
	memory := buildMemory(t, map[uint64]string{101: "30", 32: "12"})
	//
	res, err := word.Res(10, 100, 200, memory)
	require.NoError(t, err)
	assert.Equal(t, feltOf(42), res)
}

func TestWordResCondJumpInverse(t *testing.T) {
	// Conditional jump: res is repurposed as the inverse of dst.
	word := packInstruction(t, 3, 0, 0, 1<<FlagPcJnz)
	memory := buildMemory(t, map[uint64]string{103: "7"})
	//
	res, err := word.Res(10, 100, 200, memory)
	require.NoError(t, err)
	//
	var product fr.Element
	dst := feltOf(7)
	product.Mul(&res, &dst)
	assert.True(t, product.IsOne())
	// Helper columns follow suit
	tmp0, err := word.Tmp0(100, 200, memory)
	require.NoError(t, err)
	assert.Equal(t, dst, tmp0)
	//
	tmp1, err := word.Tmp1(10, 100, 200, memory)
	require.NoError(t, err)
	assert.True(t, tmp1.IsOne())
}

func TestWordResCondJumpZeroDst(t *testing.T) {
	word := packInstruction(t, 3, 0, 0, 1<<FlagPcJnz)
	memory := buildMemory(t, map[uint64]string{103: "0"})
	//
	res, err := word.Res(10, 100, 200, memory)
	require.NoError(t, err)
	assert.True(t, res.IsZero())
}

func TestWordResCondJumpMalformed(t *testing.T) {
	// Conditional jump may not carry a res logic.
	word := packInstruction(t, 3, 0, 0, 1<<FlagPcJnz|1<<FlagResAdd)
	memory := buildMemory(t, map[uint64]string{103: "7"})
	//
	_, err := word.Res(10, 100, 200, memory)
	assert.ErrorIs(t, err, ErrMalformedInstruction)
}

func TestWordResUnknownCell(t *testing.T) {
	word := packInstruction(t, 0, 1, 2, 1<<FlagResAdd)
	memory := buildMemory(t, nil)
	//
	_, err := word.Res(10, 100, 200, memory)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

// Construct a memory image from an address to value map.
func buildMemory(t *testing.T, cells map[uint64]string) *Memory {
	var buf []byte
	//
	for address, item := range cells {
		value, ok := new(big.Int).SetString(item, 0)
		require.True(t, ok)
		//
		var record [40]byte
		binary.LittleEndian.PutUint64(record[:8], address)
		//
		valueBytes := value.Bytes()
		for i, b := range valueBytes {
			record[8+len(valueBytes)-1-i] = b
		}
		//
		buf = append(buf, record[:]...)
	}
	//
	memory, err := ReadMemory(bytes.NewReader(buf))
	require.NoError(t, err)
	//
	return memory
}

func feltOf(value uint64) fr.Element {
	var elem fr.Element
	elem.SetUint64(value)
	//
	return elem
}
