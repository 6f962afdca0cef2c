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

// Memory provides a sparse, address-indexed view over the partial memory
// image recorded by a run of the machine.  Addresses never written by the
// recorded execution are absent, representing nondeterministic cells rather
// than zeroes.  The backing store is deliberately dense (a vector of optional
// words sized to the maximum address) since the recorded segments are
// contiguous, giving O(1) lookup without hashing overhead.  Memory is
// immutable after construction.
type Memory struct {
	words []*Word
}

// ReadMemory parses the partial memory image emitted by a machine runner.
// The image is a concatenation of records, each a little-endian unsigned
// 64-bit address followed by a 32-byte little-endian word value, in no
// particular address order.  A truncated record, a value at or above the
// field modulus, or a duplicate address is a malformed-input error.
func ReadMemory(r io.Reader) (*Memory, error) {
	var (
		entries   []memoryEntry
		maxAddr   uint64
		recordBuf [8 + 32]byte
	)
	//
	for {
		if _, err := io.ReadFull(r, recordBuf[:]); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%w: truncated memory record: %v", ErrMalformedInput, err)
		}
		//
		address := binary.LittleEndian.Uint64(recordBuf[:8])
		//
		word, err := NewWord([32]byte(recordBuf[8:]))
		if err != nil {
			return nil, fmt.Errorf("memory cell %d: %w", address, err)
		}
		//
		entries = append(entries, memoryEntry{address, word})
		maxAddr = max(maxAddr, address)
	}
	// Size backing store to maximum address seen
	words := make([]*Word, maxAddr+1)
	//
	for _, entry := range entries {
		if words[entry.address] != nil {
			return nil, fmt.Errorf("%w: duplicate memory cell %d", ErrMalformedInput, entry.address)
		}
		//
		word := entry.word
		words[entry.address] = &word
	}
	// Done
	return &Memory{words}, nil
}

// Resolve looks up the word stored at a given address, returning false for
// addresses which were never written (including addresses beyond the sized
// region).
func (m *Memory) Resolve(address uint64) (Word, bool) {
	if address >= uint64(len(m.words)) || m.words[address] == nil {
		return Word{}, false
	}
	// Done
	return *m.words[address], true
}

// Len returns the size of the addressed region, being one past the maximum
// address written.
func (m *Memory) Len() uint64 {
	return uint64(len(m.words))
}

// Encode writes all present cells back out in the binary record format
// accepted by ReadMemory, in ascending address order.
func (m *Memory) Encode(w io.Writer) error {
	var recordBuf [8 + 32]byte
	//
	for address, word := range m.words {
		if word == nil {
			continue
		}
		//
		binary.LittleEndian.PutUint64(recordBuf[:8], uint64(address))
		bytes := word.Bytes()
		copy(recordBuf[8:], bytes[:])
		//
		if _, err := w.Write(recordBuf[:]); err != nil {
			return err
		}
	}
	// Done
	return nil
}

type memoryEntry struct {
	address uint64
	word    Word
}
