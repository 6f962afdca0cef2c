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

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/fft"
)

// FriProver holds the committed layers of a low-degree proof.  Starting from
// the deep composition evaluations, each round commits the current layer,
// draws a folding challenge from the transcript and halves the layer, until
// the layer fits within the remainder bound.  The remainder is then sent in
// coefficient form, so the verifier can check its degree directly.
type FriProver struct {
	layers    []friLayer
	remainder []fr.Element
}

// A single committed layer, retained for query openings.
type friLayer struct {
	evaluations []fr.Element
	tree        *MerkleTree
}

// FriLayerOpening authenticates one folding step at a query position: the
// evaluation at the position itself, the evaluation at the position shifted
// by half the layer (its folding partner), and the authentication paths of
// both against the layer commitment.
type FriLayerOpening struct {
	// Evaluation at the query position within this layer.
	Evaluation fr.Element
	// Evaluation at the folding partner position.
	Sibling fr.Element
	// Authentication path for the query position.
	Path [][]byte
	// Authentication path for the partner position.
	SiblingPath [][]byte
}

// BuildLayers runs the commit-and-fold loop over the given evaluations,
// which must cover the full evaluation domain in natural order.  Every layer
// root and the final remainder coefficients are absorbed into the channel as
// they are produced.
func BuildLayers(evaluations, points []fr.Element, maxRemainderSize uint,
	channel *Channel) (*FriProver, error) {
	//
	if len(evaluations) != len(points) {
		return nil, fmt.Errorf("layer has %d evaluations for %d points", len(evaluations), len(points))
	}
	//
	var layers []friLayer
	// Commit-and-fold until the remainder bound is reached
	for uint(len(evaluations)) > maxRemainderSize {
		tree, err := CommitValues(evaluations)
		//
		if err != nil {
			return nil, err
		}
		//
		channel.Absorb(tree.Root())
		beta := channel.DrawChallenge()
		//
		layers = append(layers, friLayer{evaluations, tree})
		evaluations, points = foldLayer(evaluations, points, beta)
	}
	// Interpolate the remainder and absorb its coefficients
	remainder := interpolateRemainder(evaluations, points[0])
	channel.AbsorbElements(remainder)
	// Done
	return &FriProver{layers, remainder}, nil
}

// Roots returns the commitment of every folded layer, in folding order.
func (p *FriProver) Roots() [][]byte {
	roots := make([][]byte, len(p.layers))
	//
	for i, layer := range p.layers {
		roots[i] = layer.tree.Root()
	}
	// Done
	return roots
}

// Remainder returns the coefficients of the final layer polynomial.
func (p *FriProver) Remainder() []fr.Element {
	return p.remainder
}

// Open produces one opening per committed layer for a query position on the
// outermost layer.  The position is reduced modulo each layer size as the
// layers shrink.
func (p *FriProver) Open(position uint) []FriLayerOpening {
	openings := make([]FriLayerOpening, len(p.layers))
	//
	for i, layer := range p.layers {
		var (
			size    = uint(len(layer.evaluations))
			index   = position % size
			partner = (index + size/2) % size
		)
		//
		openings[i] = FriLayerOpening{
			Evaluation:  layer.evaluations[index],
			Sibling:     layer.evaluations[partner],
			Path:        layer.tree.Open(index),
			SiblingPath: layer.tree.Open(partner),
		}
	}
	// Done
	return openings
}

// Fold a layer in two.  Writing the layer as p(x) = e(x^2) + x*o(x^2), the
// folded layer evaluates e + beta*o over the squared points.  Points at
// index i and i + half satisfy x_{i+half} = -x_i, so both evaluations of p
// needed at each squared point are a half-stride apart.
func foldLayer(evaluations, points []fr.Element, beta fr.Element) ([]fr.Element, []fr.Element) {
	var (
		half       = len(evaluations) / 2
		folded     = make([]fr.Element, half)
		nextPoints = make([]fr.Element, half)
		inverses   = make([]fr.Element, half)
		twoInv     fr.Element
	)
	//
	twoInv.SetUint64(2)
	twoInv.Inverse(&twoInv)
	//
	copy(inverses, points[:half])
	inverses = fr.BatchInvert(inverses)
	//
	for i := 0; i < half; i++ {
		var even, odd fr.Element
		// e(x^2) = (p(x) + p(-x)) / 2
		even.Add(&evaluations[i], &evaluations[i+half])
		even.Mul(&even, &twoInv)
		// o(x^2) = (p(x) - p(-x)) / (2x)
		odd.Sub(&evaluations[i], &evaluations[i+half])
		odd.Mul(&odd, &twoInv)
		odd.Mul(&odd, &inverses[i])
		//
		odd.Mul(&odd, &beta)
		folded[i].Add(&even, &odd)
		//
		nextPoints[i].Square(&points[i])
	}
	// Done
	return folded, nextPoints
}

// Interpolate the final layer back into coefficient form.  The layer lives
// on a coset shift*H of the subgroup H matching its size, so a plain inverse
// transform recovers the coefficients of p(shift*x); undoing the shift means
// scaling coefficient j by shift^-j.
func interpolateRemainder(evaluations []fr.Element, shift fr.Element) []fr.Element {
	var (
		domain = fft.NewDomain(uint64(len(evaluations)))
		coeffs = make([]fr.Element, len(evaluations))
		scale  fr.Element
		power  fr.Element
	)
	//
	copy(coeffs, evaluations)
	domain.FFTInverse(coeffs, fft.DIF)
	fft.BitReverse(coeffs)
	//
	scale.Inverse(&shift)
	power.SetOne()
	//
	for i := range coeffs {
		coeffs[i].Mul(&coeffs[i], &power)
		power.Mul(&power, &scale)
	}
	// Done
	return coeffs
}
