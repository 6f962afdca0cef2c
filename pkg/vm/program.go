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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// CompiledProgram is the static description of a compiled program: an
// ordered list of data words (decimal or 0x-prefixed hexadecimal strings)
// together with the field modulus the program was compiled for.  It is used
// only to derive the public portion of memory, and to reject programs
// compiled for a different field.
type CompiledProgram struct {
	Data  []string `json:"data"`
	Prime string   `json:"prime"`
}

// PublicMemoryEntry is a single public (address, value) pair derived from the
// program data.
type PublicMemoryEntry struct {
	Address uint64
	Value   fr.Element
}

// ParseProgram parses a compiled program description from its JSON encoding
// and validates its declared modulus against the active field.
func ParseProgram(bytes []byte) (*CompiledProgram, error) {
	var program CompiledProgram
	//
	if err := json.Unmarshal(bytes, &program); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	//
	if err := program.Validate(); err != nil {
		return nil, err
	}
	// Done
	return &program, nil
}

// Validate checks the declared field modulus matches the active field
// exactly, comparing hex strings case-insensitively.  A mismatch aborts
// before any proving work begins.
func (p *CompiledProgram) Validate() error {
	expected := fmt.Sprintf("%#x", fr.Modulus())
	//
	if expected != strings.ToLower(p.Prime) {
		return fmt.Errorf("%w: program declares %s, active field is %s", ErrModulusMismatch, p.Prime, expected)
	}
	// Done
	return nil
}

// PublicMemory maps each program data word to a public memory entry.
// Addresses start at one, since address zero is reserved for dummy accesses.
func (p *CompiledProgram) PublicMemory() ([]PublicMemoryEntry, error) {
	entries := make([]PublicMemoryEntry, len(p.Data))
	//
	for i, item := range p.Data {
		word, err := NewWordFromString(item)
		if err != nil {
			return nil, fmt.Errorf("data item %d: %w", i, err)
		}
		//
		entries[i] = PublicMemoryEntry{Address: uint64(i) + 1, Value: word.Felt()}
	}
	// Done
	return entries, nil
}

// PaddingEntry returns the canonical padding cell used to round the public
// memory up to a convenient length: the address one past the last public
// entry, whose expected value is the address itself embedded in the field.
func (p *CompiledProgram) PaddingEntry() PublicMemoryEntry {
	address := uint64(len(p.Data)) + 1
	//
	var value fr.Element
	value.SetUint64(address)
	// Done
	return PublicMemoryEntry{Address: address, Value: value}
}
