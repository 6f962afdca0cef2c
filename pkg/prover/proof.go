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
	"encoding/gob"
	"io"

	"github.com/consensys/go-cairo/pkg/air"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// RowOpening authenticates one committed row at a query position.
type RowOpening struct {
	// Position within the evaluation domain.
	Index uint
	// The committed row itself.
	Row []fr.Element
	// Authentication path against the corresponding root.
	Path [][]byte
}

// Proof is the complete output of a proving run: every commitment,
// out-of-domain evaluation, low-degree layer and query opening a verifier
// needs to replay the transcript and check the claimed execution.
type Proof struct {
	// Number of steps in the proven execution.
	TraceLength uint
	// Parameters the proof was generated under.
	Options air.ProofOptions
	// Commitment to the base trace columns.
	BaseRoot []byte
	// Commitment to the extension columns, or nil when the schema declares
	// none.
	ExtensionRoot []byte
	// Commitment to the composition polynomial chunks.
	CompositionRoot []byte
	// The out-of-domain evaluation point.
	OodPoint fr.Element
	// Base column evaluations at the out-of-domain point.
	OodBaseEvals []fr.Element
	// Extension column evaluations at the out-of-domain point.
	OodExtensionEvals []fr.Element
	// Composition chunk evaluations at the out-of-domain point.
	OodCompositionEvals []fr.Element
	// Commitment to every folded layer of the low-degree proof.
	FriRoots [][]byte
	// Coefficients of the final low-degree layer.
	FriRemainder []fr.Element
	// Proof-of-work nonce.
	Nonce uint64
	// Query positions within the evaluation domain.
	Positions []uint
	// Openings of the base trace rows at the query positions.
	BaseOpenings []RowOpening
	// Openings of the extension rows at the query positions.
	ExtensionOpenings []RowOpening
	// Openings of the composition rows at the query positions.
	CompositionOpenings []RowOpening
	// Per-query openings of every low-degree layer.
	FriOpenings [][]FriLayerOpening
}

// Encode serialises this proof to the given writer.
func (p *Proof) Encode(writer io.Writer) error {
	return gob.NewEncoder(writer).Encode(p)
}

// ReadProof deserialises a proof from the given reader.
func ReadProof(reader io.Reader) (*Proof, error) {
	var proof Proof
	//
	if err := gob.NewDecoder(reader).Decode(&proof); err != nil {
		return nil, err
	}
	// Done
	return &proof, nil
}
