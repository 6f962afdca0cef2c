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
	"fmt"
	"runtime"

	"github.com/consensys/go-cairo/pkg/trace"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"golang.org/x/crypto/sha3"
)

// MerkleTree is the vector commitment used for every committed evaluation
// table: trace rows, composition rows and FRI layers.  Leaves are hashed in
// parallel; inner levels are built bottom-up, with a lone rightmost node
// hashed against itself.
type MerkleTree struct {
	// levels[0] holds the leaf hashes; the last level holds the root.
	levels [][][]byte
}

// NewMerkleTree builds a tree over the given leaves.
func NewMerkleTree(leaves [][]byte) (*MerkleTree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("cannot commit to an empty vector")
	}
	// Hash leaves in parallel
	hashes := hashLeaves(leaves)
	levels := [][][]byte{hashes}
	// Build inner levels
	for level := hashes; len(level) > 1; {
		next := make([][]byte, (len(level)+1)/2)
		//
		for i := range next {
			left := level[2*i]
			right := left
			//
			if 2*i+1 < len(level) {
				right = level[2*i+1]
			}
			//
			next[i] = hashPair(left, right)
		}
		//
		levels = append(levels, next)
		level = next
	}
	// Done
	return &MerkleTree{levels}, nil
}

// CommitMatrix commits to a matrix row-wise: leaf i is the concatenated
// encoding of row i.
func CommitMatrix(matrix *trace.Matrix) (*MerkleTree, error) {
	leaves := make([][]byte, matrix.NumRows())
	//
	for i := range leaves {
		leaves[i] = encodeRow(matrix.Row(uint(i)))
	}
	// Done
	return NewMerkleTree(leaves)
}

// CommitValues commits to a vector of field elements, one per leaf.
func CommitValues(values []fr.Element) (*MerkleTree, error) {
	leaves := make([][]byte, len(values))
	//
	for i := range leaves {
		leaves[i] = values[i].Marshal()
	}
	// Done
	return NewMerkleTree(leaves)
}

// Root returns the root commitment of this tree.
func (t *MerkleTree) Root() []byte {
	return t.levels[len(t.levels)-1][0]
}

// Open produces the authentication path for a given leaf index, consisting
// of one sibling hash per inner level.
func (t *MerkleTree) Open(index uint) [][]byte {
	var path [][]byte
	//
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		//
		if sibling >= uint(len(level)) {
			// Lone rightmost node pairs with itself.
			sibling = index
		}
		//
		path = append(path, level[sibling])
		index >>= 1
	}
	// Done
	return path
}

// VerifyOpening checks an authentication path against a root, for the given
// raw leaf data at the given index.
func VerifyOpening(root []byte, index uint, leaf []byte, path [][]byte) bool {
	hash := hashLeaf(leaf)
	//
	for _, sibling := range path {
		if index&1 == 1 {
			hash = hashPair(sibling, hash)
		} else {
			hash = hashPair(hash, sibling)
		}
		//
		index >>= 1
	}
	// Done
	return bytes.Equal(hash, root)
}

// EncodeRow produces the canonical leaf encoding of a row of field elements.
func encodeRow(row []fr.Element) []byte {
	data := make([]byte, 0, len(row)*fr.Bytes)
	//
	for _, element := range row {
		data = append(data, element.Marshal()...)
	}
	// Done
	return data
}

func hashLeaf(data []byte) []byte {
	digest := sha3.Sum256(data)
	return digest[:]
}

func hashPair(left, right []byte) []byte {
	hasher := sha3.New256()
	hasher.Write(left)
	hasher.Write(right)
	// Done
	return hasher.Sum(nil)
}

type leafResult struct {
	first  int
	hashes [][]byte
}

// Hash all leaves, splitting the work across available cores.
func hashLeaves(leaves [][]byte) [][]byte {
	nworkers := min(runtime.NumCPU(), len(leaves))
	chunk := len(leaves) / nworkers
	c := make(chan leafResult, nworkers)
	// Dispatch go-routines
	for w := 0; w < nworkers; w++ {
		first, last := w*chunk, (w+1)*chunk
		if w+1 == nworkers {
			last = len(leaves)
		}
		//
		go func(first, last int) {
			hashes := make([][]byte, last-first)
			for i := first; i < last; i++ {
				hashes[i-first] = hashLeaf(leaves[i])
			}
			// Package result
			c <- leafResult{first, hashes}
		}(first, last)
	}
	//
	hashes := make([][]byte, len(leaves))
	// Collect results
	for i := 0; i < nworkers; i++ {
		res := <-c
		copy(hashes[res.first:], res.hashes)
	}
	// Done
	return hashes
}
