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
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"golang.org/x/crypto/sha3"
)

// Channel is the prover side of the Fiat-Shamir transcript.  Its state is a
// single running digest: every absorption folds new data in, and every
// challenge is squeezed from the state together with a draw counter (so
// consecutive draws differ without mutating the absorbed state).  A channel
// is exclusively owned by one proof generation; identical absorption
// sequences yield identical challenges, which is what makes proofs
// deterministic and non-interactive.
type Channel struct {
	state   [32]byte
	counter uint64
}

// NewChannel creates a channel seeded with the given public context.
func NewChannel(seed []byte) *Channel {
	return &Channel{state: sha3.Sum256(seed)}
}

// Absorb commits the given bytes to the transcript, resetting the draw
// counter.
func (c *Channel) Absorb(data []byte) {
	hasher := sha3.New256()
	hasher.Write(c.state[:])
	hasher.Write(data)
	//
	copy(c.state[:], hasher.Sum(nil))
	c.counter = 0
}

// AbsorbElements commits a sequence of field elements to the transcript as a
// single absorption.
func (c *Channel) AbsorbElements(elements []fr.Element) {
	data := make([]byte, 0, len(elements)*fr.Bytes)
	//
	for _, element := range elements {
		data = append(data, element.Marshal()...)
	}
	//
	c.Absorb(data)
}

// AbsorbUint64 commits a single unsigned integer to the transcript.
func (c *Channel) AbsorbUint64(value uint64) {
	var buf [8]byte
	//
	binary.BigEndian.PutUint64(buf[:], value)
	c.Absorb(buf[:])
}

// DrawChallenge derives a pseudorandom field element from the current state.
func (c *Channel) DrawChallenge() fr.Element {
	var element fr.Element
	//
	digest := c.squeeze()
	element.SetBytes(digest[:])
	// Done
	return element
}

// DrawIndices derives count distinct pseudorandom indices in [0, bound).
func (c *Channel) DrawIndices(count, bound uint) []uint {
	if count > bound {
		panic(fmt.Sprintf("cannot draw %d distinct indices from %d", count, bound))
	}
	//
	var (
		indices []uint
		seen    = make(map[uint]bool, count)
	)
	//
	for uint(len(indices)) < count {
		digest := c.squeeze()
		index := uint(binary.BigEndian.Uint64(digest[:8]) % uint64(bound))
		//
		if !seen[index] {
			seen[index] = true
			indices = append(indices, index)
		}
	}
	// Done
	return indices
}

// Grind searches for a nonce whose hash against the current state has at
// least difficulty leading zero bits, then absorbs it.  This is the
// proof-of-work step which amplifies query soundness without additional
// queries.
func (c *Channel) Grind(difficulty uint) uint64 {
	for nonce := uint64(0); ; nonce++ {
		if c.checkNonce(nonce, difficulty) {
			c.AbsorbUint64(nonce)
			// Done
			return nonce
		}
	}
}

// Check whether a given nonce meets the grinding difficulty against the
// current state.
func (c *Channel) checkNonce(nonce uint64, difficulty uint) bool {
	var buf [8]byte
	//
	binary.BigEndian.PutUint64(buf[:], nonce)
	//
	hasher := sha3.New256()
	hasher.Write(c.state[:])
	hasher.Write([]byte("pow"))
	hasher.Write(buf[:])
	digest := hasher.Sum(nil)
	// Done
	return uint(bits.LeadingZeros64(binary.BigEndian.Uint64(digest[:8]))) >= difficulty
}

// Squeeze a digest from the current state and draw counter.
func (c *Channel) squeeze() [32]byte {
	var buf [8]byte
	//
	binary.BigEndian.PutUint64(buf[:], c.counter)
	c.counter++
	//
	hasher := sha3.New256()
	hasher.Write(c.state[:])
	hasher.Write(buf[:])
	//
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	// Done
	return digest
}
