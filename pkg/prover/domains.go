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
	"math/big"

	"github.com/consensys/go-cairo/pkg/trace"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/fft"
)

// Domains holds the two evaluation domains of a proof: the trace domain (a
// multiplicative subgroup whose order is the trace length) over which
// columns are interpolated, and the larger evaluation domain (a coset of a
// subgroup blowup times bigger) over which everything is committed.  Using a
// coset keeps evaluation points disjoint from the trace domain, so that
// vanishing denominators never hit zero.
type Domains struct {
	// Trace domain, of size traceLength.
	Trace *fft.Domain
	// Evaluation domain, of size traceLength * blowup.
	LDE *fft.Domain
	// Ratio between the two domain sizes.
	Blowup uint
	// The evaluation domain points h, h*g, h*g^2, ... in natural order,
	// materialised once and shared read-only across all stages.
	Points []fr.Element
}

// NewDomains constructs both domains for a given trace length and blowup
// factor, both of which must be powers of two.
func NewDomains(traceLength, blowup uint) (*Domains, error) {
	if traceLength == 0 || traceLength&(traceLength-1) != 0 {
		return nil, fmt.Errorf("%w: trace domain size %d not a power of two", trace.ErrDimensionMismatch, traceLength)
	}
	//
	var (
		traceDomain = fft.NewDomain(uint64(traceLength))
		ldeDomain   = fft.NewDomain(uint64(traceLength * blowup))
		points      = make([]fr.Element, traceLength*blowup)
	)
	//
	points[0] = ldeDomain.FrMultiplicativeGen
	for i := 1; i < len(points); i++ {
		points[i].Mul(&points[i-1], &ldeDomain.Generator)
	}
	// Done
	return &Domains{
		Trace:  traceDomain,
		LDE:    ldeDomain,
		Blowup: blowup,
		Points: points,
	}, nil
}

// Size returns the size of the evaluation domain.
func (d *Domains) Size() uint {
	return uint(d.LDE.Cardinality)
}

// DrawOffDomainPoint draws a pseudorandom point guaranteed to lie outside
// both the evaluation coset and every subgroup whose order divides the
// evaluation domain size (which includes the trace domain).
func (d *Domains) DrawOffDomainPoint(channel *Channel) fr.Element {
	var (
		one      fr.Element
		exponent = big.NewInt(int64(d.LDE.Cardinality))
		// h^N identifies the coset
		cosetId fr.Element
	)
	//
	one.SetOne()
	cosetId.Exp(d.LDE.FrMultiplicativeGen, exponent)
	//
	for {
		var zId fr.Element
		//
		z := channel.DrawChallenge()
		zId.Exp(z, exponent)
		// Reject points on either domain
		if !zId.Equal(&one) && !zId.Equal(&cosetId) {
			// Done
			return z
		}
	}
}
