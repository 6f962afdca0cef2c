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
	"io"
)

// RegisterState holds the three machine registers of a single executed step:
// the stack pointer (ap), the frame pointer (fp) and the program counter
// (pc).
type RegisterState struct {
	Ap uint64
	Fp uint64
	Pc uint64
}

// ReadRegisterStates parses the register trace emitted by a machine runner:
// fixed 24-byte records of three little-endian unsigned 64-bit values (ap,
// fp, pc), concatenated back-to-back with no terminator.  The resulting order
// is execution order, and determines the trace row order.  A record partially
// present at end-of-file is a malformed-input error.
func ReadRegisterStates(r io.Reader) ([]RegisterState, error) {
	var (
		states    []RegisterState
		recordBuf [24]byte
	)
	//
	for {
		if _, err := io.ReadFull(r, recordBuf[:]); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%w: truncated register record: %v", ErrMalformedInput, err)
		}
		//
		states = append(states, RegisterState{
			Ap: binary.LittleEndian.Uint64(recordBuf[0:8]),
			Fp: binary.LittleEndian.Uint64(recordBuf[8:16]),
			Pc: binary.LittleEndian.Uint64(recordBuf[16:24]),
		})
	}
	// Done
	return states, nil
}
