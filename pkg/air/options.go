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
package air

import "fmt"

// ProofOptions bundles the parameters trading proof size against proving
// time and soundness.
type ProofOptions struct {
	// Ratio between evaluation and trace domain sizes.  Must be a power of
	// two, and at least the schema's composition blowup.
	BlowupFactor uint
	// Per-layer folding factor of the low-degree proof.  Only binary
	// folding is currently supported.
	FoldingFactor uint
	// Number of positions opened against every commitment.
	NumQueries uint
	// Difficulty (in leading zero bits) of the proof-of-work nonce mixed
	// into the transcript before query positions are drawn.
	GrindingBits uint
	// Degree of the extension field challenges are drawn from.  Only the
	// base field itself is currently supported.
	ExtensionDegree uint
	// Folding stops once a layer has at most this many evaluations; the
	// remainder is then sent in full.  Must be a power of two.
	MaxRemainderSize uint
}

// DefaultProofOptions returns a conservative parameter choice suitable for
// production proofs.
func DefaultProofOptions() ProofOptions {
	return ProofOptions{
		BlowupFactor:     4,
		FoldingFactor:    2,
		NumQueries:       30,
		GrindingBits:     16,
		ExtensionDegree:  1,
		MaxRemainderSize: 64,
	}
}

// Validate checks the options are internally consistent, returning an error
// describing the first problem found.
func (p ProofOptions) Validate() error {
	switch {
	case p.BlowupFactor == 0 || p.BlowupFactor&(p.BlowupFactor-1) != 0:
		return fmt.Errorf("blowup factor %d not a power of two", p.BlowupFactor)
	case p.FoldingFactor != 2:
		return fmt.Errorf("unsupported folding factor %d", p.FoldingFactor)
	case p.NumQueries == 0:
		return fmt.Errorf("at least one query required")
	case p.ExtensionDegree != 1:
		return fmt.Errorf("unsupported extension degree %d", p.ExtensionDegree)
	case p.MaxRemainderSize == 0 || p.MaxRemainderSize&(p.MaxRemainderSize-1) != 0:
		return fmt.Errorf("remainder size %d not a power of two", p.MaxRemainderSize)
	case p.GrindingBits > 32:
		return fmt.Errorf("grinding difficulty %d too high", p.GrindingBits)
	}
	// Done
	return nil
}
