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
	"fmt"
	"testing"

	"github.com/consensys/go-cairo/pkg/trace"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLeaves(n int) [][]byte {
	leaves := make([][]byte, n)
	//
	for i := range leaves {
		leaves[i] = []byte(fmt.Sprintf("leaf-%d", i))
	}
	//
	return leaves
}

func TestMerkleOpenVerify(t *testing.T) {
	// Odd leaf count exercises the lone-node case
	leaves := testLeaves(5)
	//
	tree, err := NewMerkleTree(leaves)
	require.NoError(t, err)
	//
	for i, leaf := range leaves {
		path := tree.Open(uint(i))
		assert.True(t, VerifyOpening(tree.Root(), uint(i), leaf, path), "leaf %d", i)
	}
}

func TestMerkleRejectsTamperedLeaf(t *testing.T) {
	leaves := testLeaves(8)
	//
	tree, err := NewMerkleTree(leaves)
	require.NoError(t, err)
	//
	path := tree.Open(3)
	assert.False(t, VerifyOpening(tree.Root(), 3, []byte("tampered"), path))
	// Wrong index fails too
	assert.False(t, VerifyOpening(tree.Root(), 4, leaves[3], path))
}

func TestMerkleSingleLeaf(t *testing.T) {
	tree, err := NewMerkleTree(testLeaves(1))
	require.NoError(t, err)
	//
	assert.True(t, VerifyOpening(tree.Root(), 0, []byte("leaf-0"), tree.Open(0)))
}

func TestMerkleEmpty(t *testing.T) {
	_, err := NewMerkleTree(nil)
	assert.Error(t, err)
}

func TestMerkleCommitMatrix(t *testing.T) {
	matrix := trace.NewMatrix(2, 4)
	//
	var v fr.Element
	v.SetUint64(99)
	matrix.Set(1, 2, v)
	//
	tree, err := CommitMatrix(matrix)
	require.NoError(t, err)
	// Row openings verify against the row encoding
	for row := uint(0); row < 4; row++ {
		leaf := encodeRow(matrix.Row(row))
		assert.True(t, VerifyOpening(tree.Root(), row, leaf, tree.Open(row)))
	}
	// A different matrix commits differently
	matrix.Set(0, 0, v)
	//
	other, err := CommitMatrix(matrix)
	require.NoError(t, err)
	assert.NotEqual(t, tree.Root(), other.Root())
}

func TestMerkleCommitValues(t *testing.T) {
	values := make([]fr.Element, 6)
	for i := range values {
		values[i].SetUint64(uint64(i * i))
	}
	//
	tree, err := CommitValues(values)
	require.NoError(t, err)
	//
	for i, value := range values {
		assert.True(t, VerifyOpening(tree.Root(), uint(i), value.Marshal(), tree.Open(uint(i))))
	}
}
