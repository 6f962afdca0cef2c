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
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Bit offsets of the three biased operand offsets, and of the flag block,
// within a packed instruction word.
const (
	OffDstBitOffset = 0
	OffOp0BitOffset = 16
	OffOp1BitOffset = 32
	FlagsBitOffset  = 48
)

// NumFlags is the number of flag bits packed into an instruction word.  The
// final slot is reserved padding which is always zero, giving the flag block a
// power-of-two size.
const NumFlags = 16

// OffsetMask selects a single 16-bit operand offset.
const OffsetMask = 0xFFFF

// HalfOffset is the bias applied to each operand offset, such that the stored
// unsigned value represents a signed displacement.
const HalfOffset = 1 << 15

// Flag identifies a single boolean bit within the flag block of an
// instruction word.
type Flag uint

// The sixteen instruction flags, in bit order.
const (
	FlagDstReg Flag = iota
	FlagOp0Reg
	FlagOp1Imm
	FlagOp1Fp
	FlagOp1Ap
	FlagResAdd
	FlagResMul
	FlagPcJumpAbs
	FlagPcJumpRel
	FlagPcJnz
	FlagApAdd
	FlagApAdd1
	FlagOpcodeCall
	FlagOpcodeRet
	FlagOpcodeAssertEq
	// FlagUnused pads the flag block to a power-of-two size.  It is always
	// false, and its prefix is always zero.
	FlagUnused
)

// FlagGroup identifies a small-integer discriminant derived from between one
// and three related flags.
type FlagGroup uint

// The seven flag groups.
const (
	GroupDstReg FlagGroup = iota
	GroupOp0Reg
	GroupOp1Src
	GroupResLogic
	GroupPcUpdate
	GroupApUpdate
	GroupOpcode
)

// Word represents a single machine word.  Its value is a field element in the
// range [0, modulus), stored alongside its canonical little-endian limbs to
// make binary decompositions efficient.  Words are immutable once
// constructed.
type Word struct {
	// Canonical value, little-endian limb order.
	limbs [4]uint64
	// Field embedding of the value.
	elem fr.Element
}

// NewWord constructs a word from its 32-byte little-endian encoding,
// returning an error if the encoded value is not below the field modulus.
func NewWord(bytes [32]byte) (Word, error) {
	var word Word
	//
	for i := range word.limbs {
		word.limbs[i] = binary.LittleEndian.Uint64(bytes[i*8:])
	}
	// Check value within field
	value := word.toBigInt()
	if value.Cmp(fr.Modulus()) >= 0 {
		return Word{}, fmt.Errorf("%w: word value %s exceeds field modulus", ErrMalformedInput, value.String())
	}
	//
	word.elem.SetBigInt(value)
	// Done
	return word, nil
}

// NewWordFromString constructs a word from a decimal or (0x-prefixed)
// hexadecimal string, as found in a compiled program description.
func NewWordFromString(str string) (Word, error) {
	value, ok := new(big.Int).SetString(str, 0)
	//
	if !ok || value.Sign() < 0 {
		return Word{}, fmt.Errorf("%w: invalid data item %q", ErrMalformedInput, str)
	}
	//
	var bytes [32]byte
	//
	if value.BitLen() > 256 {
		return Word{}, fmt.Errorf("%w: data item %q exceeds 256 bits", ErrMalformedInput, str)
	}
	//
	value.FillBytes(bytes[:])
	// Convert big endian => little endian
	for i, j := 0, len(bytes)-1; i < j; i, j = i+1, j-1 {
		bytes[i], bytes[j] = bytes[j], bytes[i]
	}
	// Done
	return NewWord(bytes)
}

// Felt returns the field embedding of this word.
func (w Word) Felt() fr.Element {
	return w.elem
}

// Uint64 returns the value of this word as an unsigned 64-bit address,
// returning an error if it does not fit.
func (w Word) Uint64() (uint64, error) {
	if w.limbs[1] != 0 || w.limbs[2] != 0 || w.limbs[3] != 0 {
		return 0, fmt.Errorf("%w: word does not fit an address", ErrMalformedInput)
	}
	// Done
	return w.limbs[0], nil
}

// Bytes returns the 32-byte little-endian encoding of this word.
func (w Word) Bytes() [32]byte {
	var bytes [32]byte
	//
	for i, limb := range w.limbs {
		binary.LittleEndian.PutUint64(bytes[i*8:], limb)
	}
	// Done
	return bytes
}

// Flag returns the given flag bit of this word.  All flags live within the
// lowest limb, at bit offsets 48 upwards.
func (w Word) Flag(flag Flag) bool {
	return (w.limbs[0]>>(FlagsBitOffset+uint(flag)))&1 == 1
}

// FlagPrefix computes the cumulative value of all flag bits at the given
// position and above, excluding the reserved padding flag (whose prefix is
// zero by definition).  This quantity is what allows a constraint system to
// prove booleanity of the individual flag bits.
func (w Word) FlagPrefix(flag Flag) uint64 {
	if flag == FlagUnused {
		return 0
	}
	//
	prefix := w.limbs[0] >> (FlagsBitOffset + uint(flag))
	mask := uint64(1)<<(NumFlags-1-uint(flag)) - 1
	// Done
	return prefix & mask
}

// FlagGroup combines between one and three related flags into a single
// discriminant in the range 0..7.
func (w Word) FlagGroup(group FlagGroup) uint8 {
	switch group {
	case GroupDstReg:
		return w.flagBit(FlagDstReg)
	case GroupOp0Reg:
		return w.flagBit(FlagOp0Reg)
	case GroupOp1Src:
		return w.flagBit(FlagOp1Imm) + w.flagBit(FlagOp1Fp)*2 + w.flagBit(FlagOp1Ap)*4
	case GroupResLogic:
		return w.flagBit(FlagResAdd) + w.flagBit(FlagResMul)*2
	case GroupPcUpdate:
		return w.flagBit(FlagPcJumpAbs) + w.flagBit(FlagPcJumpRel)*2 + w.flagBit(FlagPcJnz)*4
	case GroupApUpdate:
		return w.flagBit(FlagApAdd) + w.flagBit(FlagApAdd1)*2
	case GroupOpcode:
		return w.flagBit(FlagOpcodeCall) + w.flagBit(FlagOpcodeRet)*2 + w.flagBit(FlagOpcodeAssertEq)*4
	}
	// Unreachable for well-formed groups
	panic(fmt.Sprintf("unknown flag group %d", group))
}

// OffDst returns the (biased) destination offset of this word.
func (w Word) OffDst() uint64 {
	return (w.limbs[0] >> OffDstBitOffset) & OffsetMask
}

// OffOp0 returns the (biased) first operand offset of this word.
func (w Word) OffOp0() uint64 {
	return (w.limbs[0] >> OffOp0BitOffset) & OffsetMask
}

// OffOp1 returns the (biased) second operand offset of this word.
func (w Word) OffOp1() uint64 {
	return (w.limbs[0] >> OffOp1BitOffset) & OffsetMask
}

// DstAddr computes the address of the destination operand, relative to either
// the frame or stack pointer as selected by the DstReg flag.
func (w Word) DstAddr(ap, fp uint64) uint64 {
	return w.OffDst() + w.base(FlagDstReg, ap, fp) - HalfOffset
}

// Op0Addr computes the address of the first operand, relative to either the
// frame or stack pointer as selected by the Op0Reg flag.
func (w Word) Op0Addr(ap, fp uint64) uint64 {
	return w.OffOp0() + w.base(FlagOp0Reg, ap, fp) - HalfOffset
}

// Op1Addr computes the address of the second operand.  The base address is
// selected by the Op1Src flag group: indirect through op0 (0), the program
// counter (1), the frame pointer (2) or the stack pointer (4).  Any other
// group value indicates a malformed instruction.
func (w Word) Op1Addr(pc, ap, fp uint64, mem *Memory) (uint64, error) {
	var base uint64
	//
	switch group := w.FlagGroup(GroupOp1Src); group {
	case 0:
		// Indirect operand, base stored at op0 address.
		word, err := w.resolve(mem, w.Op0Addr(ap, fp))
		if err != nil {
			return 0, err
		}
		//
		if base, err = word.Uint64(); err != nil {
			return 0, err
		}
	case 1:
		base = pc
	case 2:
		base = fp
	case 4:
		base = ap
	default:
		return 0, fmt.Errorf("%w: undefined op1 source %d", ErrMalformedInstruction, group)
	}
	// Done
	return w.OffOp1() + base - HalfOffset, nil
}

// Dst returns the value of the destination operand.
func (w Word) Dst(ap, fp uint64, mem *Memory) (fr.Element, error) {
	word, err := w.resolve(mem, w.DstAddr(ap, fp))
	//
	return word.Felt(), err
}

// Op0 returns the value of the first operand.
func (w Word) Op0(ap, fp uint64, mem *Memory) (fr.Element, error) {
	word, err := w.resolve(mem, w.Op0Addr(ap, fp))
	//
	return word.Felt(), err
}

// Op1 returns the value of the second operand.
func (w Word) Op1(pc, ap, fp uint64, mem *Memory) (fr.Element, error) {
	addr, err := w.Op1Addr(pc, ap, fp, mem)
	if err != nil {
		return fr.Element{}, err
	}
	//
	word, err := w.resolve(mem, addr)
	//
	return word.Felt(), err
}

// Res computes the result value of this instruction.  For pc-update groups
// 0..2 this is determined by the ResLogic group: op1 (0), op0+op1 (1) or
// op0*op1 (2).  Group 4 identifies a conditional jump, for which res is
// unused by the machine and repurposed to hold dst⁻¹ (or zero when dst is
// zero); this requires ResLogic and Opcode to be zero and ApUpdate to be
// anything other than one.  Every remaining combination is a malformed
// instruction.
func (w Word) Res(pc, ap, fp uint64, mem *Memory) (fr.Element, error) {
	var res fr.Element
	//
	resLogic := w.FlagGroup(GroupResLogic)
	//
	switch pcUpdate := w.FlagGroup(GroupPcUpdate); pcUpdate {
	case 4:
		opcode := w.FlagGroup(GroupOpcode)
		apUpdate := w.FlagGroup(GroupApUpdate)
		//
		if resLogic != 0 || opcode != 0 || apUpdate == 1 {
			return res, fmt.Errorf("%w: conditional jump with res=%d opcode=%d ap=%d",
				ErrMalformedInstruction, resLogic, opcode, apUpdate)
		}
		// Unused value convention: inverse of dst, or zero when dst is zero.
		dst, err := w.Dst(ap, fp, mem)
		if err != nil {
			return res, err
		}
		//
		if !dst.IsZero() {
			res.Inverse(&dst)
		}
	case 0, 1, 2:
		op0, err := w.Op0(ap, fp, mem)
		if err != nil {
			return res, err
		}
		//
		op1, err := w.Op1(pc, ap, fp, mem)
		if err != nil {
			return res, err
		}
		//
		switch resLogic {
		case 0:
			res = op1
		case 1:
			res.Add(&op0, &op1)
		case 2:
			res.Mul(&op0, &op1)
		default:
			return res, fmt.Errorf("%w: undefined res logic %d", ErrMalformedInstruction, resLogic)
		}
	default:
		return res, fmt.Errorf("%w: undefined pc update %d", ErrMalformedInstruction, pcUpdate)
	}
	// Done
	return res, nil
}

// Tmp0 returns dst when this instruction is a conditional jump, and zero
// otherwise.
func (w Word) Tmp0(ap, fp uint64, mem *Memory) (fr.Element, error) {
	if w.Flag(FlagPcJnz) {
		return w.Dst(ap, fp, mem)
	}
	// Done
	return fr.Element{}, nil
}

// Tmp1 returns tmp0 * res.
func (w Word) Tmp1(pc, ap, fp uint64, mem *Memory) (fr.Element, error) {
	tmp0, err := w.Tmp0(ap, fp, mem)
	if err != nil {
		return fr.Element{}, err
	}
	//
	res, err := w.Res(pc, ap, fp, mem)
	if err != nil {
		return fr.Element{}, err
	}
	//
	tmp0.Mul(&tmp0, &res)
	// Done
	return tmp0, nil
}

func (w Word) flagBit(flag Flag) uint8 {
	if w.Flag(flag) {
		return 1
	}
	//
	return 0
}

// Select the fp or ap register according to the given flag.
func (w Word) base(flag Flag, ap, fp uint64) uint64 {
	if w.Flag(flag) {
		return fp
	}
	//
	return ap
}

// Resolve an address against memory, turning an absent cell into a
// malformed-input error.
func (w Word) resolve(mem *Memory, addr uint64) (Word, error) {
	word, ok := mem.Resolve(addr)
	//
	if !ok {
		return Word{}, fmt.Errorf("%w: access to unknown memory cell %d", ErrMalformedInput, addr)
	}
	// Done
	return word, nil
}

func (w Word) toBigInt() *big.Int {
	var bytes [32]byte
	//
	for i, limb := range w.limbs {
		binary.BigEndian.PutUint64(bytes[24-i*8:], limb)
	}
	// Done
	return new(big.Int).SetBytes(bytes[:])
}
